package train

import (
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// LinearSVM is a one-vs-rest linear classifier trained with the Pegasos
// subgradient update. Probability estimates come from a softmax over the
// per-class margins, which is enough for ranking and thresholding.
type LinearSVM struct {
	Classes []string    `json:"classes"`
	Weights [][]float64 `json:"weights"`
	Epochs  int         `json:"epochs"`
	Lambda  float64     `json:"lambda"`
}

func NewLinearSVM() *LinearSVM {
	return &LinearSVM{Epochs: 100, Lambda: 1e-3}
}

func (m *LinearSVM) Fit(X [][]float64, y []int, classes []string, seed int64) {
	m.Classes = classes
	dim := len(X[0]) + 1
	m.Weights = make([][]float64, len(classes))

	for k := range classes {
		w := make([]float64, dim)
		rng := rand.New(rand.NewSource(seed + int64(k)))
		t := 0
		for epoch := 0; epoch < m.Epochs; epoch++ {
			for _, i := range rng.Perm(len(X)) {
				t++
				eta := 1 / (m.Lambda * float64(t))
				label := -1.0
				if y[i] == k {
					label = 1.0
				}
				margin := label * (floats.Dot(w[:dim-1], X[i]) + w[dim-1])
				floats.Scale(1-eta*m.Lambda, w[:dim-1])
				if margin < 1 {
					floats.AddScaled(w[:dim-1], eta*label, X[i])
					w[dim-1] += eta * label
				}
			}
		}
		m.Weights[k] = w
	}
}

func (m *LinearSVM) PredictProba(x []float64) []float64 {
	margins := make([]float64, len(m.Weights))
	for k, w := range m.Weights {
		margins[k] = floats.Dot(w[:len(w)-1], x) + w[len(w)-1]
	}
	return softmax(margins)
}

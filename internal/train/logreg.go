package train

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// LogisticRegression is a multinomial classifier trained with shuffled
// stochastic gradient descent. Weights hold one row per class; the last
// element of each row is the bias.
type LogisticRegression struct {
	Classes      []string    `json:"classes"`
	Weights      [][]float64 `json:"weights"`
	LearningRate float64     `json:"learning_rate"`
	Epochs       int         `json:"epochs"`
	L2           float64     `json:"l2"`
}

func NewLogisticRegression() *LogisticRegression {
	return &LogisticRegression{LearningRate: 0.1, Epochs: 200, L2: 1e-4}
}

func (m *LogisticRegression) Fit(X [][]float64, y []int, classes []string, seed int64) {
	m.Classes = classes
	dim := len(X[0]) + 1
	m.Weights = make([][]float64, len(classes))
	for k := range m.Weights {
		m.Weights[k] = make([]float64, dim)
	}

	rng := rand.New(rand.NewSource(seed))
	order := rng.Perm(len(X))
	for epoch := 0; epoch < m.Epochs; epoch++ {
		rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
		for _, i := range order {
			p := m.PredictProba(X[i])
			for k, w := range m.Weights {
				grad := p[k]
				if k == y[i] {
					grad -= 1
				}
				step := -m.LearningRate * grad
				floats.AddScaled(w[:len(w)-1], step, X[i])
				w[len(w)-1] += step
				if m.L2 > 0 {
					floats.Scale(1-m.LearningRate*m.L2, w[:len(w)-1])
				}
			}
		}
	}
}

func (m *LogisticRegression) PredictProba(x []float64) []float64 {
	scores := make([]float64, len(m.Weights))
	for k, w := range m.Weights {
		scores[k] = floats.Dot(w[:len(w)-1], x) + w[len(w)-1]
	}
	return softmax(scores)
}

// softmax with max subtraction for numeric stability.
func softmax(z []float64) []float64 {
	out := make([]float64, len(z))
	if len(z) == 0 {
		return out
	}
	max := floats.Max(z)
	sum := 0.0
	for i, v := range z {
		out[i] = math.Exp(v - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

package train

import (
	"math"
	"math/rand"
	"sort"
)

// TreeNode is one node of a classification tree, stored flat so trees
// serialize to JSON without pointer cycles. Leaves have Left == -1 and a
// class distribution in Dist.
type TreeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Dist      []float64 `json:"dist,omitempty"`
}

// Tree is a CART-style classification tree split on Gini impurity.
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

type treeBuilder struct {
	X           [][]float64
	y           []int
	nClasses    int
	maxDepth    int
	minLeaf     int
	featureFrac float64
	rng         *rand.Rand
}

func (t *Tree) fit(b *treeBuilder, idx []int) {
	t.Nodes = t.Nodes[:0]
	t.build(b, idx, 0)
}

func (t *Tree) build(b *treeBuilder, idx []int, depth int) int {
	counts := make([]float64, b.nClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}

	node := TreeNode{Left: -1, Right: -1}
	if depth >= b.maxDepth || len(idx) < 2*b.minLeaf || pure(counts) {
		node.Dist = normalizeCounts(counts)
		t.Nodes = append(t.Nodes, node)
		return len(t.Nodes) - 1
	}

	feature, threshold, ok := t.bestSplit(b, idx, counts)
	if !ok {
		node.Dist = normalizeCounts(counts)
		t.Nodes = append(t.Nodes, node)
		return len(t.Nodes) - 1
	}

	var left, right []int
	for _, i := range idx {
		if b.X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	node.Feature = feature
	node.Threshold = threshold
	t.Nodes = append(t.Nodes, node)
	pos := len(t.Nodes) - 1
	l := t.build(b, left, depth+1)
	r := t.build(b, right, depth+1)
	t.Nodes[pos].Left = l
	t.Nodes[pos].Right = r
	return pos
}

// bestSplit searches a random feature subset for the threshold with the
// lowest weighted Gini impurity. Candidate thresholds are strided so wide
// features stay cheap.
func (t *Tree) bestSplit(b *treeBuilder, idx []int, counts []float64) (int, float64, bool) {
	nFeatures := len(b.X[0])
	nTry := int(math.Ceil(b.featureFrac * float64(nFeatures)))
	if nTry < 1 {
		nTry = 1
	}

	bestGini := gini(counts)
	bestFeature, bestThreshold := -1, 0.0

	for _, f := range b.rng.Perm(nFeatures)[:nTry] {
		values := make([]float64, 0, len(idx))
		for _, i := range idx {
			values = append(values, b.X[i][f])
		}
		sort.Float64s(values)

		stride := len(values) / 32
		if stride < 1 {
			stride = 1
		}
		for v := stride; v < len(values); v += stride {
			if values[v] == values[v-1] {
				continue
			}
			threshold := (values[v] + values[v-1]) / 2

			leftCounts := make([]float64, b.nClasses)
			var nLeft float64
			for _, i := range idx {
				if b.X[i][f] <= threshold {
					leftCounts[b.y[i]]++
					nLeft++
				}
			}
			nRight := float64(len(idx)) - nLeft
			if nLeft < float64(b.minLeaf) || nRight < float64(b.minLeaf) {
				continue
			}
			rightCounts := make([]float64, b.nClasses)
			for c := range rightCounts {
				rightCounts[c] = counts[c] - leftCounts[c]
			}

			weighted := (nLeft*gini(leftCounts) + nRight*gini(rightCounts)) / float64(len(idx))
			if weighted < bestGini {
				bestGini = weighted
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}
	return bestFeature, bestThreshold, bestFeature >= 0
}

func (t *Tree) predictProba(x []float64) []float64 {
	i := 0
	for t.Nodes[i].Left != -1 {
		if x[t.Nodes[i].Feature] <= t.Nodes[i].Threshold {
			i = t.Nodes[i].Left
		} else {
			i = t.Nodes[i].Right
		}
	}
	return t.Nodes[i].Dist
}

func gini(counts []float64) float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := c / total
		g -= p * p
	}
	return g
}

func pure(counts []float64) bool {
	nonzero := 0
	for _, c := range counts {
		if c > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

func normalizeCounts(counts []float64) []float64 {
	total := 0.0
	for _, c := range counts {
		total += c
	}
	dist := make([]float64, len(counts))
	if total == 0 {
		return dist
	}
	for i, c := range counts {
		dist[i] = c / total
	}
	return dist
}

// RandomForest bags Gini trees over bootstrap samples, searching sqrt of
// the features at each split.
type RandomForest struct {
	Classes  []string `json:"classes"`
	Trees    []Tree   `json:"trees"`
	NumTrees int      `json:"num_trees"`
	MaxDepth int      `json:"max_depth"`
}

func NewRandomForest() *RandomForest {
	return &RandomForest{NumTrees: 30, MaxDepth: 8}
}

func (m *RandomForest) Fit(X [][]float64, y []int, classes []string, seed int64) {
	m.Classes = classes
	m.Trees = make([]Tree, m.NumTrees)
	frac := math.Sqrt(float64(len(X[0]))) / float64(len(X[0]))

	for n := range m.Trees {
		rng := rand.New(rand.NewSource(seed + int64(n)))
		idx := make([]int, len(X))
		for i := range idx {
			idx[i] = rng.Intn(len(X))
		}
		b := &treeBuilder{
			X: X, y: y, nClasses: len(classes),
			maxDepth: m.MaxDepth, minLeaf: 1, featureFrac: frac, rng: rng,
		}
		m.Trees[n].fit(b, idx)
	}
}

func (m *RandomForest) PredictProba(x []float64) []float64 {
	out := make([]float64, len(m.Classes))
	for i := range m.Trees {
		dist := m.Trees[i].predictProba(x)
		for k, p := range dist {
			out[k] += p
		}
	}
	for k := range out {
		out[k] /= float64(len(m.Trees))
	}
	return out
}

// Stump is a one-split regression tree used as the gradient boosting base
// learner.
type Stump struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	LeftVal   float64 `json:"left_val"`
	RightVal  float64 `json:"right_val"`
}

func (s Stump) value(x []float64) float64 {
	if x[s.Feature] <= s.Threshold {
		return s.LeftVal
	}
	return s.RightVal
}

// GradientBoosting fits additive stumps to the softmax residuals, one stump
// per class per round.
type GradientBoosting struct {
	Classes      []string  `json:"classes"`
	LearningRate float64   `json:"learning_rate"`
	NumRounds    int       `json:"num_rounds"`
	Rounds       [][]Stump `json:"rounds"`
}

func NewGradientBoosting() *GradientBoosting {
	return &GradientBoosting{LearningRate: 0.2, NumRounds: 50}
}

func (m *GradientBoosting) Fit(X [][]float64, y []int, classes []string, seed int64) {
	m.Classes = classes
	m.Rounds = make([][]Stump, 0, m.NumRounds)

	scores := make([][]float64, len(X))
	for i := range scores {
		scores[i] = make([]float64, len(classes))
	}

	residual := make([]float64, len(X))
	for round := 0; round < m.NumRounds; round++ {
		stumps := make([]Stump, len(classes))
		for k := range classes {
			for i := range X {
				p := softmax(scores[i])
				target := 0.0
				if y[i] == k {
					target = 1.0
				}
				residual[i] = target - p[k]
			}
			stumps[k] = fitStump(X, residual)
		}
		m.Rounds = append(m.Rounds, stumps)
		for i := range X {
			for k := range classes {
				scores[i][k] += m.LearningRate * stumps[k].value(X[i])
			}
		}
	}
}

// fitStump finds the single split minimizing squared error against the
// residuals, trying up to 16 quantile thresholds per feature.
func fitStump(X [][]float64, residual []float64) Stump {
	mean := 0.0
	for _, r := range residual {
		mean += r
	}
	mean /= float64(len(residual))

	best := Stump{Feature: 0, Threshold: math.Inf(1), LeftVal: mean, RightVal: mean}
	bestErr := sse(residual, func(int) float64 { return mean })

	for f := range X[0] {
		values := make([]float64, len(X))
		for i := range X {
			values[i] = X[i][f]
		}
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)

		stride := len(sorted) / 16
		if stride < 1 {
			stride = 1
		}
		for v := stride; v < len(sorted); v += stride {
			if sorted[v] == sorted[v-1] {
				continue
			}
			threshold := (sorted[v] + sorted[v-1]) / 2

			var sumL, sumR, nL, nR float64
			for i, r := range residual {
				if values[i] <= threshold {
					sumL += r
					nL++
				} else {
					sumR += r
					nR++
				}
			}
			if nL == 0 || nR == 0 {
				continue
			}
			meanL, meanR := sumL/nL, sumR/nR

			s := Stump{Feature: f, Threshold: threshold, LeftVal: meanL, RightVal: meanR}
			err := sse(residual, func(i int) float64 {
				if values[i] <= threshold {
					return meanL
				}
				return meanR
			})
			if err < bestErr {
				bestErr = err
				best = s
			}
		}
	}
	return best
}

func sse(residual []float64, predict func(int) float64) float64 {
	total := 0.0
	for i, r := range residual {
		d := r - predict(i)
		total += d * d
	}
	return total
}

func (m *GradientBoosting) PredictProba(x []float64) []float64 {
	scores := make([]float64, len(m.Classes))
	for _, stumps := range m.Rounds {
		for k, s := range stumps {
			scores[k] += m.LearningRate * s.value(x)
		}
	}
	return softmax(scores)
}

package scoring

import (
	"math"
	"sort"
)

// DefaultDiversityFactor controls how strongly a flat score distribution
// lowers confidence. 0 ignores entropy entirely, 1 lets a uniform
// distribution zero the confidence out.
const DefaultDiversityFactor = 0.5

// Normalize applies a softmax over the raw signal values so the result is a
// proper distribution: strictly positive, summing to 1. If the softmax
// degenerates numerically (overflow, NaN inputs) it falls back to plain
// sum-normalization with the total floored at 1.
func Normalize(scores map[string]float64) map[string]float64 {
	if len(scores) == 0 {
		return map[string]float64{}
	}

	maxVal := math.Inf(-1)
	for _, v := range scores {
		if v > maxVal {
			maxVal = v
		}
	}

	out := make(map[string]float64, len(scores))
	total := 0.0
	for k, v := range scores {
		e := math.Exp(v - maxVal)
		out[k] = e
		total += e
	}
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return sumNormalize(scores)
	}
	for k := range out {
		out[k] /= total
	}
	return out
}

// sumNormalize divides every score by the sum of all scores. The total is
// floored at 1 so an all-zero map stays all-zero instead of dividing by zero.
func sumNormalize(scores map[string]float64) map[string]float64 {
	total := 0.0
	for _, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		total += v
	}
	if total < 1 {
		total = 1
	}
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			out[k] = 0
			continue
		}
		out[k] = v / total
	}
	return out
}

// ApplyWeights multiplies each score by its weight. Signals without an entry
// in the weight map keep their raw value (weight 1).
func ApplyWeights(scores, weights map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(scores))
	for k, v := range scores {
		w, ok := weights[k]
		if !ok {
			w = 1.0
		}
		out[k] = v * w
	}
	return out
}

// Confidence combines the top score with an entropy penalty: a distribution
// with one clear winner yields high confidence, a flat distribution yields
// low confidence even when the top score is moderate.
//
//	confidence = max_score * (1 - normalized_entropy * diversityFactor)
//
// The result is always within [0,1].
func Confidence(scores map[string]float64, diversityFactor float64) float64 {
	if len(scores) == 0 {
		return 0
	}

	maxScore := 0.0
	total := 0.0
	for _, v := range scores {
		if v > maxScore {
			maxScore = v
		}
		if v > 0 {
			total += v
		}
	}
	maxScore = Clamp(maxScore)
	if total == 0 {
		return 0
	}

	// Shannon entropy of the score proportions, normalized to [0,1] by the
	// maximum entropy for this many categories.
	entropy := 0.0
	for _, v := range scores {
		if v <= 0 {
			continue
		}
		p := v / total
		entropy -= p * math.Log(p)
	}
	normalized := 0.0
	if len(scores) > 1 {
		normalized = entropy / math.Log(float64(len(scores)))
	}

	return Clamp(maxScore * (1 - normalized*diversityFactor))
}

// RankItems filters the items by a minimum score and returns the keys sorted
// by descending score. topN truncates the result when positive; ties break
// alphabetically so ordering is deterministic.
func RankItems(scores map[string]float64, minScore float64, topN int) []string {
	type kv struct {
		key   string
		score float64
	}
	items := make([]kv, 0, len(scores))
	for k, v := range scores {
		if v >= minScore {
			items = append(items, kv{k, v})
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score > items[j].score
		}
		return items[i].key < items[j].key
	})
	if topN > 0 && len(items) > topN {
		items = items[:topN]
	}
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.key
	}
	return out
}

// Clamp bounds a score to [0,1].
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

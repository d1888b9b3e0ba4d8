package train

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats"
)

func TestTFIDF_FitTransform(t *testing.T) {
	docs := []string{
		"el precio es muy caro",
		"el precio me parece bien",
		"quiero saber más del soporte",
	}
	v := NewTFIDF(50)
	v.Fit(docs)

	if v.NumFeatures() == 0 {
		t.Fatal("empty vocabulary after Fit")
	}
	if v.NumFeatures() > 50 {
		t.Errorf("vocabulary size %d exceeds max features", v.NumFeatures())
	}

	x := v.Transform("el precio es caro")
	if norm := floats.Norm(x, 2); math.Abs(norm-1) > 1e-9 {
		t.Errorf("transformed vector norm = %f, want 1", norm)
	}

	// A document sharing no vocabulary yields the zero vector.
	zero := v.Transform("xyzzy plugh")
	if floats.Norm(zero, 2) != 0 {
		t.Errorf("out-of-vocabulary document is not zero: %v", zero)
	}
}

func TestTFIDF_MaxFeaturesDeterministic(t *testing.T) {
	docs := []string{"a b c d e f g", "a b c", "a b", "a"}

	v1 := NewTFIDF(3)
	v1.Fit(docs)
	v2 := NewTFIDF(3)
	v2.Fit(docs)

	if len(v1.Vocab) != 3 {
		t.Fatalf("vocab size = %d, want 3", len(v1.Vocab))
	}
	for term, i := range v1.Vocab {
		if v2.Vocab[term] != i {
			t.Errorf("fit is not deterministic: %q -> %d vs %d", term, i, v2.Vocab[term])
		}
	}
	// The most document-frequent unigram must survive the cap.
	if _, ok := v1.Vocab["a"]; !ok {
		t.Error("most frequent term dropped by feature cap")
	}
}

func TestTFIDF_NGrams(t *testing.T) {
	v := NewTFIDF(0)
	v.Fit([]string{"no estoy seguro"})

	if _, ok := v.Vocab["no estoy"]; !ok {
		t.Error("bigram missing from vocabulary")
	}
	if _, ok := v.Vocab["no estoy seguro"]; !ok {
		t.Error("trigram missing from vocabulary")
	}
}

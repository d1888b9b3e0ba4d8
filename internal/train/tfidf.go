package train

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"gonum.org/v1/gonum/floats"
)

// TFIDF is a word n-gram vectorizer with smoothed inverse document
// frequency and l2-normalized output. All fields are exported so a fitted
// vectorizer round-trips through the model bundle.
type TFIDF struct {
	NGramMin    int            `json:"ngram_min"`
	NGramMax    int            `json:"ngram_max"`
	MaxFeatures int            `json:"max_features"`
	Vocab       map[string]int `json:"vocab"`
	IDF         []float64      `json:"idf"`
}

func NewTFIDF(maxFeatures int) *TFIDF {
	return &TFIDF{NGramMin: 1, NGramMax: 3, MaxFeatures: maxFeatures}
}

// Fit builds the vocabulary from the corpus, keeping the MaxFeatures most
// document-frequent n-grams. Ties break alphabetically so fitting is
// deterministic.
func (v *TFIDF) Fit(docs []string) {
	df := map[string]int{}
	for _, doc := range docs {
		seen := map[string]bool{}
		for _, term := range v.terms(doc) {
			if !seen[term] {
				seen[term] = true
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if df[terms[i]] != df[terms[j]] {
			return df[terms[i]] > df[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}

	n := len(docs)
	v.Vocab = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocab[term] = i
		v.IDF[i] = math.Log(float64(1+n)/float64(1+df[term])) + 1
	}
}

// Transform maps one document to its l2-normalized tf-idf vector.
func (v *TFIDF) Transform(doc string) []float64 {
	out := make([]float64, len(v.IDF))
	for _, term := range v.terms(doc) {
		if i, ok := v.Vocab[term]; ok {
			out[i] += v.IDF[i]
		}
	}
	if norm := floats.Norm(out, 2); norm > 0 {
		floats.Scale(1/norm, out)
	}
	return out
}

func (v *TFIDF) NumFeatures() int { return len(v.IDF) }

// terms tokenizes on non-alphanumeric runes and emits every n-gram in the
// configured range, joined by single spaces.
func (v *TFIDF) terms(doc string) []string {
	tokens := strings.FieldsFunc(strings.ToLower(doc), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var terms []string
	for n := v.NGramMin; n <= v.NGramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}

package train

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"

	"github.com/ngx-platform/foresight/internal/rules"
)

// Sample is one labeled training utterance.
type Sample struct {
	Text  string
	Label string
}

// Generator produces labeled synthetic utterances from the rule keyword
// tables, so every domain has a trainable corpus before any live outcomes
// accumulate.
type Generator struct {
	rules *rules.Set
	rng   *rand.Rand
}

func NewGenerator(r *rules.Set, seed int64) *Generator {
	return &Generator{rules: r, rng: rand.New(rand.NewSource(seed))}
}

var utteranceTemplates = []string{
	"la verdad %s y no sé qué hacer",
	"mira, %s, eso me frena un poco",
	"%s, ¿qué opciones tengo?",
	"lo que pasa es que %s",
	"para ser honesto %s y lo estoy pensando",
	"%s, cuéntame más de eso",
	"sí pero %s",
}

// Objections generates perCategory samples for every fallback objection
// category.
func (g *Generator) Objections(perCategory int) []Sample {
	return g.fromTable(tableKeywords(g.rules.Fallback.Objections), perCategory)
}

// Needs generates perCategory samples for every fallback need category.
func (g *Generator) Needs(perCategory int) []Sample {
	return g.fromTable(tableKeywords(g.rules.Fallback.Needs), perCategory)
}

// Conversions generates perLevel samples for the three conversion levels
// from the fallback interest keyword lists.
func (g *Generator) Conversions(perLevel int) []Sample {
	c := g.rules.Fallback.Conversion
	table := map[string][]string{
		"high":   c.PositiveKeywords,
		"medium": c.MediumKeywords,
		"low":    c.NegativeKeywords,
	}
	return g.fromTable(table, perLevel)
}

func (g *Generator) fromTable(table map[string][]string, perCategory int) []Sample {
	categories := make([]string, 0, len(table))
	for cat := range table {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var samples []Sample
	for _, cat := range categories {
		keywords := table[cat]
		if len(keywords) == 0 {
			continue
		}
		for i := 0; i < perCategory; i++ {
			samples = append(samples, Sample{Text: g.utterance(keywords), Label: cat})
		}
	}
	return samples
}

func (g *Generator) utterance(keywords []string) string {
	n := 1 + g.rng.Intn(2)
	picked := make([]string, 0, n)
	for len(picked) < n {
		picked = append(picked, keywords[g.rng.Intn(len(keywords))])
	}
	template := utteranceTemplates[g.rng.Intn(len(utteranceTemplates))]
	return fmt.Sprintf(template, strings.Join(picked, " y "))
}

func tableKeywords(table map[string]rules.KeywordRule) map[string][]string {
	out := make(map[string][]string, len(table))
	for cat, rule := range table {
		out[cat] = rule.Keywords
	}
	return out
}

package nlp

import (
	"context"
	"fmt"

	"github.com/jdkato/prose/v2"
)

// Entity is a named entity mentioned in a message.
type Entity struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// EntityExtractor pulls named entities out of a single message.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, text string) ([]Entity, error)
}

// ProseExtractor runs prose's NER model locally.
type ProseExtractor struct{}

// NewProseExtractor returns the default entity extractor.
func NewProseExtractor() *ProseExtractor {
	return &ProseExtractor{}
}

// ExtractEntities tags the text and returns every recognized entity. prose's
// built-in chunker only emits PERSON and GPE labels; richer label sets
// (ORG, PRODUCT, MONEY) require an external extractor behind this same
// interface.
func (e *ProseExtractor) ExtractEntities(_ context.Context, text string) ([]Entity, error) {
	doc, err := prose.NewDocument(text, prose.WithExtraction(true), prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("prose document: %w", err)
	}
	ents := doc.Entities()
	out := make([]Entity, 0, len(ents))
	for _, ent := range ents {
		out = append(out, Entity{Type: ent.Label, Text: ent.Text})
	}
	return out, nil
}

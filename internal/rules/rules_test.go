package rules

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_Valid(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("Default() failed validation: %v", err)
	}
}

func TestDefault_Thresholds(t *testing.T) {
	s := Default()

	if s.Objection.ConfidenceThreshold != 0.65 {
		t.Errorf("objection threshold = %f, want 0.65", s.Objection.ConfidenceThreshold)
	}
	if s.Needs.ConfidenceThreshold != 0.6 {
		t.Errorf("needs threshold = %f, want 0.6", s.Needs.ConfidenceThreshold)
	}
	if s.Needs.ContextWindow != 10 {
		t.Errorf("needs context window = %d, want 10", s.Needs.ContextWindow)
	}
	if s.Fallback.ObjectionThreshold != 0.5 {
		t.Errorf("fallback objection threshold = %f, want 0.5", s.Fallback.ObjectionThreshold)
	}
	if s.Fallback.NeedThreshold != 0.4 {
		t.Errorf("fallback need threshold = %f, want 0.4", s.Fallback.NeedThreshold)
	}
	if s.Fallback.Conversion.HighThreshold != 0.7 || s.Fallback.Conversion.MediumThreshold != 0.4 {
		t.Errorf("fallback conversion thresholds = %f/%f, want 0.7/0.4",
			s.Fallback.Conversion.HighThreshold, s.Fallback.Conversion.MediumThreshold)
	}
}

func TestDefault_EverySignalMapsToCategories(t *testing.T) {
	s := Default()
	for signal := range s.Objection.SignalKeywords {
		if _, ok := s.Objection.SignalCategories[signal]; !ok {
			t.Errorf("objection signal %q has keywords but no category mapping", signal)
		}
	}
	for signal := range s.Needs.SignalKeywords {
		if _, ok := s.Needs.SignalCategories[signal]; !ok {
			t.Errorf("needs signal %q has keywords but no category mapping", signal)
		}
	}
}

func TestDefault_EveryObjectionCategoryHasResponse(t *testing.T) {
	s := Default()
	seen := map[string]bool{}
	for _, cats := range s.Objection.SignalCategories {
		for _, c := range cats {
			seen[c] = true
		}
	}
	for c := range seen {
		if len(s.Objection.Responses[c]) == 0 {
			t.Errorf("objection category %q has no suggested responses", c)
		}
	}
}

func TestLoad_EmptyPathReturnsDefaults(t *testing.T) {
	s, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if s.Objection.ConfidenceThreshold != 0.65 {
		t.Errorf("expected defaults, got objection threshold %f", s.Objection.ConfidenceThreshold)
	}
}

func TestLoad_FromYAML(t *testing.T) {
	yaml := `
version: "test"
objection:
  confidence_threshold: 0.7
  context_window: 3
  signal_weights:
    price_mentions: 0.5
  signal_keywords:
    price_mentions: ["caro"]
  signal_categories:
    price_mentions: ["price"]
needs:
  confidence_threshold: 0.5
  context_window: 8
conversion:
  high_threshold: 0.8
  medium_threshold: 0.3
fallback:
  objection_threshold: 0.5
  need_threshold: 0.4
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if s.Version != "test" {
		t.Errorf("version = %q, want %q", s.Version, "test")
	}
	if s.Objection.ConfidenceThreshold != 0.7 {
		t.Errorf("objection threshold = %f, want 0.7", s.Objection.ConfidenceThreshold)
	}
	if s.Objection.ContextWindow != 3 {
		t.Errorf("context window = %d, want 3", s.Objection.ContextWindow)
	}
	if got := s.Objection.SignalKeywords["price_mentions"]; len(got) != 1 || got[0] != "caro" {
		t.Errorf("keywords = %v, want [caro]", got)
	}
}

func TestLoad_InvalidThresholdRejected(t *testing.T) {
	yaml := `
objection:
  confidence_threshold: 1.5
  context_window: 5
needs:
  confidence_threshold: 0.6
  context_window: 10
conversion:
  high_threshold: 0.8
  medium_threshold: 0.3
`
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted out-of-range confidence_threshold, want error")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/rules.yaml"); err == nil {
		t.Error("Load() on missing file returned nil error")
	}
}

func TestDefaultEntityCategories_CoverBuiltinLabels(t *testing.T) {
	// The bundled prose extractor only ever emits these two labels; both
	// must map to a need category or entity mentions can never score.
	needs := Default().Needs
	for _, label := range []string{"PERSON", "GPE"} {
		if len(needs.EntityCategories[label]) == 0 {
			t.Errorf("entity label %s maps to no need category", label)
		}
	}
}

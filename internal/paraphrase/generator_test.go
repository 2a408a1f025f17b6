package paraphrase

import (
	"math/rand"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/agentdesk/backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func newTestGenerator(seed int64) *Generator {
	return NewGenerator(rand.New(rand.NewSource(seed)), DefaultMaxVariants)
}

func TestGenerateRespectsCapAndDeduplicates(t *testing.T) {
	g := newTestGenerator(42)
	source := "How do I reset my password?"

	variants := g.Generate(source, KindQuestion, "")

	if len(variants) == 0 {
		t.Fatal("expected at least one variant")
	}
	if len(variants) > DefaultMaxVariants {
		t.Fatalf("expected at most %d variants, got %d", DefaultMaxVariants, len(variants))
	}

	seen := map[string]bool{}
	for _, v := range variants {
		if v.Text == source {
			t.Errorf("variant equals source text: %q", v.Text)
		}
		if seen[v.Text] {
			t.Errorf("duplicate variant: %q", v.Text)
		}
		seen[v.Text] = true

		if v.Confidence <= 0 || v.Confidence > 1 {
			t.Errorf("confidence out of range for %q: %f", v.Technique, v.Confidence)
		}
		if v.Technique == "" {
			t.Errorf("variant %q has no technique", v.Text)
		}
	}
}

func TestGenerateRewritesQuestionOpener(t *testing.T) {
	g := newTestGenerator(1)

	variants := g.Generate("How do I reset my password?", KindQuestion, "")

	found := false
	for _, v := range variants {
		if v.Technique == "structural_reorder" {
			found = true
			if v.Text != "what is the way to reset my password?" {
				t.Errorf("unexpected opener rewrite: %q", v.Text)
			}
		}
	}
	if !found {
		t.Error("expected a structural_reorder variant for a recognized opener")
	}
}

func TestGenerateEmptySource(t *testing.T) {
	g := newTestGenerator(7)

	if variants := g.Generate("", KindQuestion, ""); variants != nil {
		t.Errorf("expected no variants for empty source, got %d", len(variants))
	}
	if variants := g.Generate("   ", KindAnswer, ""); variants != nil {
		t.Errorf("expected no variants for blank source, got %d", len(variants))
	}
}

func TestGeneratePreservesAnswerHTML(t *testing.T) {
	g := newTestGenerator(3)
	source := "Returns are accepted within 30 days. Refunds take a week."
	html := "<p>" + source + "</p>"

	variants := g.Generate(source, KindAnswer, html)
	if len(variants) == 0 {
		t.Fatal("expected at least one variant")
	}

	for _, v := range variants {
		if v.HTML != "<p>"+v.Text+"</p>" {
			t.Errorf("expected variant text substituted into markup, got %q", v.HTML)
		}
	}
}

func TestGenerateQuestionVariantsCarryNoHTML(t *testing.T) {
	g := newTestGenerator(5)

	variants := g.Generate("Can I change my shipping address?", KindQuestion, "<p>ignored</p>")
	for _, v := range variants {
		if v.HTML != "" {
			t.Errorf("question variant carries HTML: %q", v.HTML)
		}
	}
}

func TestGenerateAnswerHTMLDegradesToPlainText(t *testing.T) {
	// Markup whose text content does not appear verbatim cannot be
	// substituted into, so the HTML variant falls back to plain text.
	g := newTestGenerator(9)
	source := "Returns are accepted within 30 days. Refunds take a week."
	html := "<p>Returns are <b>accepted</b> within 30 days.</p>"

	variants := g.Generate(source, KindAnswer, html)
	if len(variants) == 0 {
		t.Fatal("expected at least one variant")
	}

	for _, v := range variants {
		if v.HTML != v.Text {
			t.Errorf("expected plain-text fallback, got %q", v.HTML)
		}
	}
}

func TestGenerateAnswerSentenceSwap(t *testing.T) {
	g := newTestGenerator(11)

	variants := g.Generate("First fact. Second fact.", KindAnswer, "")

	found := false
	for _, v := range variants {
		if v.Technique == "structural_reorder" {
			found = true
			if v.Text != "Second fact. First fact." {
				t.Errorf("unexpected sentence swap: %q", v.Text)
			}
		}
	}
	if !found {
		t.Error("expected a structural_reorder variant for a two-sentence answer")
	}
}

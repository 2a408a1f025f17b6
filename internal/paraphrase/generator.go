package paraphrase

import (
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agentdesk/backend/pkg/logger"
)

type Kind string

const (
	KindQuestion Kind = "question"
	KindAnswer   Kind = "answer"
)

const DefaultMaxVariants = 12

type Variant struct {
	Text       string
	HTML       string
	Technique  string
	Confidence float64
}

// Generator expands a source text into alternate phrasings by applying a
// fixed catalog of paraphrase rules. Several rules gate on the random
// source, so repeated calls over the same input produce different sets;
// regeneration is intentionally not idempotent.
type Generator struct {
	rng         *rand.Rand
	maxVariants int
}

// NewGenerator builds a generator around the given random source. Pass a
// seeded source in tests to pin the probabilistic rules; nil uses a
// time-seeded source.
func NewGenerator(rng *rand.Rand, maxVariants int) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if maxVariants <= 0 {
		maxVariants = DefaultMaxVariants
	}

	return &Generator{rng: rng, maxVariants: maxVariants}
}

// Generate returns up to maxVariants variants of sourceText, deduplicated
// by text and kept in generation order. Generation is best-effort: a
// panicking rule aborts the run and yields an empty set rather than
// failing the caller.
func (g *Generator) Generate(sourceText string, kind Kind, sourceHTML string) (variants []Variant) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Variant generation aborted", zap.Any("cause", r))
			variants = nil
		}
	}()

	source := strings.TrimSpace(sourceText)
	if source == "" {
		return nil
	}

	seen := map[string]struct{}{source: {}}

	for _, r := range ruleCatalog {
		out := r.apply(g.rng, source, kind)
		variants = g.collect(variants, seen, out, source, sourceHTML, kind, r.name, r.confidence)
		if len(variants) >= g.maxVariants {
			return variants
		}
	}

	// Creative pass: compose two techniques in sequence. When the first
	// technique contributes nothing the second runs on the source alone,
	// and duplicates fall out in dedup.
	for _, pair := range creativePairs {
		first := ruleByName(pair[0])
		second := ruleByName(pair[1])

		intermediate := first.apply(g.rng, source, kind)
		if intermediate == "" {
			intermediate = source
		}

		out := second.apply(g.rng, intermediate, kind)
		if out == "" {
			out = intermediate
		}

		technique := pair[0] + "+" + pair[1]
		confidence := first.confidence * second.confidence
		variants = g.collect(variants, seen, out, source, sourceHTML, kind, technique, confidence)
		if len(variants) >= g.maxVariants {
			return variants
		}
	}

	return variants
}

func (g *Generator) collect(variants []Variant, seen map[string]struct{}, out, source, sourceHTML string, kind Kind, technique string, confidence float64) []Variant {
	out = strings.TrimSpace(out)
	if out == "" || out == source {
		return variants
	}
	if _, dup := seen[out]; dup {
		return variants
	}
	seen[out] = struct{}{}

	return append(variants, Variant{
		Text:       out,
		HTML:       preserveHTML(source, out, sourceHTML, kind),
		Technique:  technique,
		Confidence: confidence,
	})
}

// preserveHTML substitutes the variant text for the source plain text
// inside the original markup. When the plain text no longer appears
// verbatim (e.g. after chained transforms) the HTML variant degrades to
// the plain-text variant; that silent fallback is deliberate.
func preserveHTML(sourceText, variantText, sourceHTML string, kind Kind) string {
	if kind != KindAnswer || sourceHTML == "" {
		return ""
	}

	if strings.Contains(sourceHTML, sourceText) {
		return strings.Replace(sourceHTML, sourceText, variantText, 1)
	}

	return variantText
}

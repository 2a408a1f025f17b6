package paraphrase

import (
	"math/rand"
	"sort"
	"strings"
	"unicode"
)

// Each rule is a pure function of its inputs and the supplied random
// source. A rule signals "no variant" by returning the empty string or
// its input unchanged.
type ruleFunc func(rng *rand.Rand, text string, kind Kind) string

type rule struct {
	name       string
	confidence float64
	apply      ruleFunc
}

var ruleCatalog = []rule{
	{"synonym_swap", 0.85, synonymSwap},
	{"register_shift", 0.80, registerShift},
	{"structural_reorder", 0.90, structuralReorder},
	{"contraction_shift", 0.95, contractionShift},
	{"emphasis", 0.75, emphasisInjection},
	{"perspective_shift", 0.70, perspectiveShift},
	{"contextual_framing", 0.65, contextualFraming},
	{"word_order", 0.70, wordOrderPerturbation},
}

// Fixed technique pairs composed in sequence for the creative pass.
var creativePairs = [][2]string{
	{"synonym_swap", "emphasis"},
	{"register_shift", "contraction_shift"},
	{"structural_reorder", "synonym_swap"},
	{"perspective_shift", "contextual_framing"},
}

func ruleByName(name string) rule {
	for _, r := range ruleCatalog {
		if r.name == name {
			return r
		}
	}
	return rule{}
}

// synonymSwap replaces table words with a synonym, each with independent
// probability 0.3 so repeated calls produce varied output.
func synonymSwap(rng *rand.Rand, text string, kind Kind) string {
	out := text
	for _, word := range sortedKeys(synonymTable) {
		if rng.Float64() >= 0.3 {
			continue
		}
		alternatives := synonymTable[word]
		replacement := alternatives[rng.Intn(len(alternatives))]
		out = wordPattern(word).ReplaceAllString(out, replacement)
	}
	return out
}

func registerShift(rng *rand.Rand, text string, kind Kind) string {
	toInformal := rng.Intn(2) == 0
	out := text
	for _, formal := range sortedKeys(registerTable) {
		informal := registerTable[formal]
		if toInformal {
			out = wordPattern(formal).ReplaceAllString(out, informal)
		} else {
			out = wordPattern(informal).ReplaceAllString(out, formal)
		}
	}
	return out
}

// structuralReorder rewrites a recognized question opener, or for answers
// swaps the first two sentences when there are at least two.
func structuralReorder(rng *rand.Rand, text string, kind Kind) string {
	if kind == KindAnswer {
		sentences := splitSentences(text)
		if len(sentences) < 2 {
			return ""
		}
		sentences[0], sentences[1] = sentences[1], sentences[0]
		return strings.Join(sentences, " ")
	}

	lower := strings.ToLower(text)
	for _, r := range openerRewrites {
		if strings.HasPrefix(lower, r.Prefix) {
			return r.Replacement + text[len(r.Prefix):]
		}
	}
	return ""
}

func contractionShift(rng *rand.Rand, text string, kind Kind) string {
	contract := rng.Intn(2) == 0
	out := text
	for _, expanded := range sortedKeys(contractionTable) {
		contracted := contractionTable[expanded]
		if contract {
			out = wordPattern(expanded).ReplaceAllString(out, contracted)
		} else {
			out = wordPattern(contracted).ReplaceAllString(out, expanded)
		}
	}
	return out
}

func emphasisInjection(rng *rand.Rand, text string, kind Kind) string {
	if kind != KindQuestion {
		return ""
	}

	fields := strings.Fields(text)
	if len(fields) < 2 || !interrogatives[strings.ToLower(fields[0])] {
		return ""
	}

	adverb := intensifiers[rng.Intn(len(intensifiers))]
	out := make([]string, 0, len(fields)+1)
	out = append(out, fields[0], adverb)
	out = append(out, fields[1:]...)
	return strings.Join(out, " ")
}

func perspectiveShift(rng *rand.Rand, text string, kind Kind) string {
	out := text
	for _, from := range sortedKeys(pronounShiftTable) {
		out = wordPattern(from).ReplaceAllString(out, pronounShiftTable[from])
	}
	return out
}

func contextualFraming(rng *rand.Rand, text string, kind Kind) string {
	if kind != KindQuestion {
		return ""
	}
	if rng.Float64() >= 0.6 {
		return ""
	}

	phrase := framingPhrases[rng.Intn(len(framingPhrases))]
	return phrase + " " + lowerFirst(text)
}

// wordOrderPerturbation turns "what is X?" style questions into
// "X, what is it?".
func wordOrderPerturbation(rng *rand.Rand, text string, kind Kind) string {
	if kind != KindQuestion {
		return ""
	}

	trimmed := strings.TrimSuffix(strings.TrimSpace(text), "?")
	fields := strings.Fields(trimmed)
	if len(fields) < 4 || !interrogatives[strings.ToLower(fields[0])] {
		return ""
	}

	rest := strings.Join(fields[2:], " ")
	return rest + ", " + strings.ToLower(fields[0]) + " " + fields[1] + " it?"
}

func splitSentences(text string) []string {
	parts := strings.Split(strings.TrimSpace(text), ". ")
	for i := 0; i < len(parts)-1; i++ {
		parts[i] += "."
	}
	return parts
}

func lowerFirst(s string) string {
	runes := []rune(s)
	if len(runes) == 0 {
		return s
	}
	runes[0] = unicode.ToLower(runes[0])
	return string(runes)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

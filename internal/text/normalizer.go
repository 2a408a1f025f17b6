package text

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jdkato/prose/v2"
)

const minTokenLength = 3

var whitespacePattern = regexp.MustCompile(`\s+`)

// StripTags removes angle-bracket markup and collapses whitespace. Plain
// text passes through unchanged apart from whitespace normalization.
func StripTags(raw string) string {
	if !strings.ContainsRune(raw, '<') {
		return collapseWhitespace(raw)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return collapseWhitespace(raw)
	}

	return collapseWhitespace(doc.Text())
}

// Normalize strips markup, lower-cases and tokenizes the input, dropping
// tokens shorter than three characters. Articles, prepositions and stray
// punctuation mostly fall below that cutoff, which keeps the similarity
// signal on content words. Empty input yields an empty slice.
func Normalize(raw string) []string {
	plain := strings.ToLower(StripTags(raw))
	if plain == "" {
		return nil
	}

	tokens := tokenize(plain)
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if len([]rune(tok)) < minTokenLength {
			continue
		}
		out = append(out, tok)
	}

	return out
}

// TokenSet returns the unique normalized tokens of the input.
func TokenSet(raw string) map[string]struct{} {
	tokens := Normalize(raw)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}

func tokenize(s string) []string {
	doc, err := prose.NewDocument(s,
		prose.WithSegmentation(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return strings.Fields(s)
	}

	tokens := doc.Tokens()
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		out = append(out, tok.Text)
	}

	return out
}

func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

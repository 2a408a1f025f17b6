package text

import (
	"strings"
	"testing"
)

func TestNormalizeDropsShortTokens(t *testing.T) {
	tokens := Normalize("How do I reset my password?")

	want := []string{"how", "reset", "password"}
	if len(tokens) != len(want) {
		t.Fatalf("expected %v, got %v", want, tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Errorf("token %d: expected %q, got %q", i, want[i], tokens[i])
		}
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	if tokens := Normalize(""); len(tokens) != 0 {
		t.Errorf("expected no tokens for empty input, got %v", tokens)
	}
	if tokens := Normalize("   \n\t  "); len(tokens) != 0 {
		t.Errorf("expected no tokens for whitespace input, got %v", tokens)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	first := Normalize("What IS your Return Policy?")
	second := Normalize(strings.Join(first, " "))

	if len(first) != len(second) {
		t.Fatalf("expected stable token count, got %v then %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("token %d changed: %q -> %q", i, first[i], second[i])
		}
	}
}

func TestStripTags(t *testing.T) {
	got := StripTags("<p>Returns are accepted <b>within 30 days</b>.</p>")
	if got != "Returns are accepted within 30 days." {
		t.Errorf("unexpected stripped text: %q", got)
	}
}

func TestStripTagsPlainTextPassthrough(t *testing.T) {
	got := StripTags("no   markup \n here")
	if got != "no markup here" {
		t.Errorf("expected collapsed whitespace, got %q", got)
	}
}

func TestTokenSetDeduplicates(t *testing.T) {
	set := TokenSet("policy policy POLICY")
	if len(set) != 1 {
		t.Fatalf("expected 1 unique token, got %d", len(set))
	}
	if _, ok := set["policy"]; !ok {
		t.Errorf("expected token %q in set", "policy")
	}
}

func TestNormalizeStripsMarkupBeforeTokenizing(t *testing.T) {
	tokens := Normalize("<div>Shipping <em>information</em></div>")
	for _, tok := range tokens {
		if strings.ContainsAny(tok, "<>") {
			t.Errorf("markup leaked into token %q", tok)
		}
	}
}

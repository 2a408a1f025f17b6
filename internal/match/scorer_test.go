package match

import "testing"

func TestScoreIdenticalText(t *testing.T) {
	score := Score("What is your return policy?", "What is your return policy?")
	if score != 1.0 {
		t.Errorf("expected 1.0 for identical text, got %f", score)
	}
}

func TestScoreRephrasedUtterance(t *testing.T) {
	score := Score("What's your return policy?", "What is your return policy?")
	if score <= DefaultThreshold {
		t.Errorf("expected rephrased utterance to clear the threshold, got %f", score)
	}
}

func TestScoreDisjointText(t *testing.T) {
	score := Score("banana smoothie recipe", "refund processing window")
	if score != 0 {
		t.Errorf("expected 0 for disjoint text, got %f", score)
	}
}

func TestScoreEmptyInput(t *testing.T) {
	if score := Score("", "What is your return policy?"); score != 0 {
		t.Errorf("expected 0 for empty utterance, got %f", score)
	}
	if score := Score("What is your return policy?", ""); score != 0 {
		t.Errorf("expected 0 for empty candidate, got %f", score)
	}
	if score := Score("a an", "of to"); score != 0 {
		t.Errorf("expected 0 when all tokens fall below the length cutoff, got %f", score)
	}
}

func TestScoreContainmentMatchesInflections(t *testing.T) {
	score := Score("returns", "return")
	if score != 1.0 {
		t.Errorf("expected containment to match plural form, got %f", score)
	}
}

func TestScoreBounded(t *testing.T) {
	cases := [][2]string{
		{"how do I reset my password", "password reset instructions"},
		{"shipping cost", "what does shipping cost to europe"},
		{"one two three four five six seven", "seven"},
	}

	for _, c := range cases {
		score := Score(c[0], c[1])
		if score < 0 || score > 1 {
			t.Errorf("Score(%q, %q) = %f out of [0,1]", c[0], c[1], score)
		}
	}
}

func TestScoreNormalizesByLargerSet(t *testing.T) {
	// A one-word utterance against a long candidate must not score as a
	// full match just because its single token is covered.
	score := Score("shipping", "international shipping rates depend on destination country weight")
	if score >= 0.5 {
		t.Errorf("expected low score for sparse overlap, got %f", score)
	}
}

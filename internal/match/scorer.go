package match

import (
	"strings"

	"github.com/agentdesk/backend/internal/text"
)

// Score computes a bounded word-overlap score between a user utterance
// and a candidate text. Tokens match on asymmetric containment (either
// token a substring of the other), which catches plurals and simple stems
// without real stemming. The result is matched utterance tokens divided
// by the larger of the two token set sizes, always in [0,1].
//
// This is a heuristic ranking signal, not a metric: the containment test
// plus max-normalization make it asymmetric in general.
func Score(utterance, candidate string) float64 {
	utteranceSet := text.TokenSet(utterance)
	candidateSet := text.TokenSet(candidate)

	if len(utteranceSet) == 0 || len(candidateSet) == 0 {
		return 0
	}

	matched := 0
	for u := range utteranceSet {
		for c := range candidateSet {
			if strings.Contains(u, c) || strings.Contains(c, u) {
				matched++
				break
			}
		}
	}

	larger := len(utteranceSet)
	if len(candidateSet) > larger {
		larger = len(candidateSet)
	}

	return float64(matched) / float64(larger)
}

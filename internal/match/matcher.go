package match

import (
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/pkg/logger"
)

const (
	// DefaultThreshold is the minimum score a candidate must exceed for
	// its answer to be returned instead of the no-match fallback.
	DefaultThreshold = 0.3

	FallbackNoMatch = "I don't have information about that. Could you try rephrasing your question?"
	FallbackError   = "I'm having technical difficulties right now. Please try again in a moment."
)

// CandidateSource loads the matchable pool for one agent: final questions
// with final answers, approved variants only.
type CandidateSource interface {
	ListMatchCandidates(agentID string) ([]models.Question, error)
}

type Result struct {
	QuestionID string
	AnswerID   string
	Text       string
	HTML       string
	Score      float64
	Fallback   bool
}

// Matcher selects the best-scoring stored question (original or variant)
// for a free-text utterance and resolves it to an answer payload. It
// never returns an error: storage failures and panics both degrade to a
// fixed fallback result.
type Matcher struct {
	source    CandidateSource
	threshold float64
	rng       *rand.Rand
}

func NewMatcher(source CandidateSource, threshold float64, rng *rand.Rand) *Matcher {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Matcher{source: source, threshold: threshold, rng: rng}
}

type candidate struct {
	question    *models.Question
	score       float64
	fromVariant bool
}

func (m *Matcher) Match(agentID, utterance string) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Matcher panicked", zap.Any("cause", r), zap.String("agent_id", agentID))
			result = Result{Text: FallbackError, Fallback: true}
		}
	}()

	questions, err := m.source.ListMatchCandidates(agentID)
	if err != nil {
		logger.Warn("Failed to load match candidates", zap.Error(err), zap.String("agent_id", agentID))
		return Result{Text: FallbackError, Fallback: true}
	}

	var best candidate
	for i := range questions {
		q := &questions[i]

		// Later candidates replace the leader only on a strictly greater
		// score, so the first seen wins ties.
		if s := Score(utterance, q.Text); s > best.score {
			best = candidate{question: q, score: s}
		}

		for _, v := range q.Variants {
			if s := Score(utterance, v.VariantText); s > best.score {
				best = candidate{question: q, score: s, fromVariant: true}
			}
		}
	}

	if best.question == nil || best.score <= m.threshold {
		logger.Debug("No candidate cleared threshold",
			zap.String("agent_id", agentID),
			zap.Float64("best_score", best.score),
		)
		return Result{Text: FallbackNoMatch, Fallback: true}
	}

	answer := best.question.Answer
	result = Result{
		QuestionID: best.question.ID,
		AnswerID:   answer.ID,
		Text:       answer.Text,
		HTML:       answer.HTML,
		Score:      best.score,
	}

	// A variant-level win may answer with any approved answer variant,
	// chosen uniformly at random.
	if best.fromVariant && len(answer.Variants) > 0 {
		picked := answer.Variants[m.rng.Intn(len(answer.Variants))]
		result.Text = picked.VariantText
		result.HTML = picked.VariantHTML
	}

	return result
}

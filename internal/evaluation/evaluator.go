package evaluation

import (
	"encoding/json"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/match"
	"github.com/agentdesk/backend/pkg/logger"
)

// Evaluator replays a labelled utterance dataset through the matcher and
// reports how often the expected question wins. It reads the same
// candidate pool the chat engine serves from, so draft content is
// invisible here too.
type Evaluator struct {
	matcher *match.Matcher
}

type EvaluationDataset struct {
	Items []DatasetItem `json:"items"`
}

type DatasetItem struct {
	AgentID            string `json:"agent_id"`
	Utterance          string `json:"utterance"`
	ExpectedQuestionID string `json:"expected_question_id"`
}

type EvaluationReport struct {
	TotalItems    int
	CorrectCount  int
	WrongCount    int
	FallbackCount int
	AvgScore      float64
	Accuracy      float64
}

func NewEvaluator(source match.CandidateSource, threshold float64, rng *rand.Rand) *Evaluator {
	return &Evaluator{
		matcher: match.NewMatcher(source, threshold, rng),
	}
}

func (e *Evaluator) RunDatasetEvaluation(dataset *EvaluationDataset) (*EvaluationReport, error) {
	logger.Info("Running dataset evaluation", zap.Int("items", len(dataset.Items)))

	report := &EvaluationReport{
		TotalItems: len(dataset.Items),
	}

	var totalScore float64
	scored := 0

	for i, item := range dataset.Items {
		result := e.matcher.Match(item.AgentID, item.Utterance)

		switch {
		case result.Fallback:
			report.FallbackCount++
			if item.ExpectedQuestionID != "" {
				report.WrongCount++
			} else {
				report.CorrectCount++
			}
		case result.QuestionID == item.ExpectedQuestionID:
			report.CorrectCount++
		default:
			report.WrongCount++
		}

		if !result.Fallback {
			totalScore += result.Score
			scored++
		}

		logger.Debug("Evaluated item",
			zap.Int("index", i+1),
			zap.String("agent_id", item.AgentID),
			zap.String("matched", result.QuestionID),
			zap.String("expected", item.ExpectedQuestionID),
			zap.Float64("score", result.Score),
		)
	}

	if scored > 0 {
		report.AvgScore = totalScore / float64(scored)
	}
	if report.TotalItems > 0 {
		report.Accuracy = float64(report.CorrectCount) / float64(report.TotalItems) * 100
	}

	logger.Info("Dataset evaluation completed",
		zap.Int("total", report.TotalItems),
		zap.Int("correct", report.CorrectCount),
		zap.Int("fallbacks", report.FallbackCount),
		zap.Float64("accuracy", report.Accuracy),
	)

	return report, nil
}

func (e *Evaluator) LoadDatasetFromJSON(jsonData []byte) (*EvaluationDataset, error) {
	var dataset EvaluationDataset
	err := json.Unmarshal(jsonData, &dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset: %w", err)
	}

	return &dataset, nil
}

func (e *Evaluator) GenerateReport(report *EvaluationReport) string {
	return fmt.Sprintf(`
Matcher Evaluation Report
=========================

Total Utterances: %d

Outcomes:
- Correct: %d
- Wrong: %d
- Fallbacks: %d

Accuracy: %.1f%%
Average Match Score: %.3f
`,
		report.TotalItems,
		report.CorrectCount,
		report.WrongCount,
		report.FallbackCount,
		report.Accuracy,
		report.AvgScore,
	)
}

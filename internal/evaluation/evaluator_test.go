package evaluation

import (
	"math/rand"
	"os"
	"testing"

	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/match"
	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

type staticSource struct {
	questions []models.Question
}

func (s *staticSource) ListMatchCandidates(agentID string) ([]models.Question, error) {
	return s.questions, nil
}

func testSource() *staticSource {
	return &staticSource{questions: []models.Question{
		{
			ID:     "q1",
			Text:   "What is your return policy?",
			Status: models.StatusFinal,
			Answer: &models.Answer{ID: "a1", QuestionID: "q1", Text: "Returns are accepted within 30 days.", Status: models.StatusFinal},
		},
		{
			ID:     "q2",
			Text:   "How do I reset my password?",
			Status: models.StatusFinal,
			Answer: &models.Answer{ID: "a2", QuestionID: "q2", Text: "Use the forgot password link.", Status: models.StatusFinal},
		},
	}}
}

func TestRunDatasetEvaluation(t *testing.T) {
	e := NewEvaluator(testSource(), match.DefaultThreshold, rand.New(rand.NewSource(1)))

	dataset := &EvaluationDataset{Items: []DatasetItem{
		{AgentID: "agent-1", Utterance: "what's your return policy", ExpectedQuestionID: "q1"},
		{AgentID: "agent-1", Utterance: "how do I reset my password", ExpectedQuestionID: "q2"},
		{AgentID: "agent-1", Utterance: "do you sell concert tickets", ExpectedQuestionID: ""},
	}}

	report, err := e.RunDatasetEvaluation(dataset)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	if report.TotalItems != 3 {
		t.Errorf("expected 3 items, got %d", report.TotalItems)
	}
	if report.CorrectCount != 3 {
		t.Errorf("expected all items correct, got %d", report.CorrectCount)
	}
	if report.FallbackCount != 1 {
		t.Errorf("expected 1 fallback, got %d", report.FallbackCount)
	}
	if report.Accuracy != 100 {
		t.Errorf("expected 100%% accuracy, got %f", report.Accuracy)
	}
	if report.AvgScore <= match.DefaultThreshold {
		t.Errorf("expected average score above the threshold, got %f", report.AvgScore)
	}
}

func TestRunDatasetEvaluationCountsMisses(t *testing.T) {
	e := NewEvaluator(testSource(), match.DefaultThreshold, rand.New(rand.NewSource(1)))

	dataset := &EvaluationDataset{Items: []DatasetItem{
		// The matcher will resolve this to q1, not the labelled q2.
		{AgentID: "agent-1", Utterance: "what is your return policy", ExpectedQuestionID: "q2"},
	}}

	report, err := e.RunDatasetEvaluation(dataset)
	if err != nil {
		t.Fatalf("evaluation failed: %v", err)
	}

	if report.WrongCount != 1 {
		t.Errorf("expected 1 wrong item, got %d", report.WrongCount)
	}
	if report.Accuracy != 0 {
		t.Errorf("expected 0%% accuracy, got %f", report.Accuracy)
	}
}

func TestLoadDatasetFromJSON(t *testing.T) {
	e := NewEvaluator(testSource(), match.DefaultThreshold, nil)

	dataset, err := e.LoadDatasetFromJSON([]byte(`{"items":[{"agent_id":"agent-1","utterance":"hi","expected_question_id":"q1"}]}`))
	if err != nil {
		t.Fatalf("failed to load dataset: %v", err)
	}
	if len(dataset.Items) != 1 || dataset.Items[0].ExpectedQuestionID != "q1" {
		t.Errorf("unexpected dataset: %+v", dataset)
	}

	if _, err := e.LoadDatasetFromJSON([]byte(`not json`)); err == nil {
		t.Error("expected error for malformed dataset")
	}
}

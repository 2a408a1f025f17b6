package sqlite

import (
	"fmt"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

// Named in-memory databases with shared cache, so every pool connection
// sees the same schema while tests stay isolated from each other.
func newTestClient(t *testing.T) *Client {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	client, err := NewClient(dsn)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	return client
}

func seedAgent(t *testing.T, c *Client, agentStatus string) *models.Agent {
	t.Helper()

	now := time.Now()
	domain := &models.Domain{ID: "dom-1", Name: "Support", CreatedAt: now}
	if err := c.CreateDomain(domain); err != nil {
		t.Fatalf("failed to create domain: %v", err)
	}

	agent := &models.Agent{
		ID:        "agent-1",
		DomainID:  domain.ID,
		Name:      "Returns Bot",
		Version:   1,
		Status:    agentStatus,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.CreateAgent(agent); err != nil {
		t.Fatalf("failed to create agent: %v", err)
	}

	return agent
}

func seedQuestion(t *testing.T, c *Client, agentID, questionID, status string) {
	t.Helper()

	now := time.Now()
	q := &models.Question{
		ID:        questionID,
		AgentID:   agentID,
		Text:      "What is your return policy?",
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a := &models.Answer{
		ID:         "ans-" + questionID,
		QuestionID: questionID,
		Text:       "Returns are accepted within 30 days.",
		HTML:       "<p>Returns are accepted within 30 days.</p>",
		Status:     status,
	}
	qVariants := []models.QuestionVariant{
		{ID: "qv-" + questionID, QuestionID: questionID, VariantText: "Could you describe your return policy?", Technique: "structural_reorder", Confidence: 0.9, IsApproved: true},
	}
	aVariants := []models.AnswerVariant{
		{ID: "av-" + questionID, AnswerID: a.ID, VariantText: "We accept returns for 30 days.", Technique: "synonym_swap", Confidence: 0.85, IsApproved: true},
	}

	if err := c.CreateQuestion(q, a, qVariants, aVariants); err != nil {
		t.Fatalf("failed to create question: %v", err)
	}
}

func TestCreateAndGetQuestion(t *testing.T) {
	c := newTestClient(t)
	agent := seedAgent(t, c, models.StatusDraft)
	seedQuestion(t, c, agent.ID, "q1", models.StatusDraft)

	got, err := c.GetQuestion("q1")
	if err != nil {
		t.Fatalf("failed to get question: %v", err)
	}

	if got.Text != "What is your return policy?" {
		t.Errorf("unexpected question text: %q", got.Text)
	}
	if got.Status != models.StatusDraft {
		t.Errorf("new question should be draft, got %s", got.Status)
	}
	if got.Answer == nil {
		t.Fatal("expected answer to be loaded")
	}
	if got.Answer.Text != "Returns are accepted within 30 days." {
		t.Errorf("unexpected answer text: %q", got.Answer.Text)
	}
	if len(got.Variants) != 1 || len(got.Answer.Variants) != 1 {
		t.Errorf("expected 1 variant on each side, got %d/%d", len(got.Variants), len(got.Answer.Variants))
	}
}

func TestUpdateQuestionReplacesVariants(t *testing.T) {
	c := newTestClient(t)
	agent := seedAgent(t, c, models.StatusDraft)
	seedQuestion(t, c, agent.ID, "q1", models.StatusDraft)

	newQVariants := []models.QuestionVariant{
		{ID: "qv-new-1", QuestionID: "q1", VariantText: "How can I send items back?", Technique: "synonym_swap", Confidence: 0.85, IsApproved: true},
		{ID: "qv-new-2", QuestionID: "q1", VariantText: "Is it possible to return items?", Technique: "structural_reorder", Confidence: 0.9, IsApproved: true},
	}
	newAVariants := []models.AnswerVariant{
		{ID: "av-new-1", AnswerID: "ans-q1", VariantText: "Send items back within 30 days.", Technique: "synonym_swap", Confidence: 0.85, IsApproved: true},
	}

	err := c.UpdateQuestion("q1", "How do returns work?", "Send it back within 30 days.", "", newQVariants, newAVariants)
	if err != nil {
		t.Fatalf("failed to update question: %v", err)
	}

	got, err := c.GetQuestion("q1")
	if err != nil {
		t.Fatalf("failed to get question: %v", err)
	}

	if got.Text != "How do returns work?" {
		t.Errorf("question text not updated: %q", got.Text)
	}
	if len(got.Variants) != 2 {
		t.Fatalf("expected old variants replaced, got %d", len(got.Variants))
	}
	for _, v := range got.Variants {
		if v.ID == "qv-q1" {
			t.Error("stale question variant survived the update")
		}
	}
	if len(got.Answer.Variants) != 1 || got.Answer.Variants[0].ID != "av-new-1" {
		t.Errorf("expected answer variants replaced, got %+v", got.Answer.Variants)
	}
}

func TestSetQuestionStatusTogglesAnswer(t *testing.T) {
	c := newTestClient(t)
	agent := seedAgent(t, c, models.StatusDraft)
	seedQuestion(t, c, agent.ID, "q1", models.StatusDraft)

	if err := c.SetQuestionStatus("q1", models.StatusFinal); err != nil {
		t.Fatalf("failed to set status: %v", err)
	}

	got, err := c.GetQuestion("q1")
	if err != nil {
		t.Fatalf("failed to get question: %v", err)
	}

	if got.Status != models.StatusFinal {
		t.Errorf("question status: expected final, got %s", got.Status)
	}
	if got.Answer.Status != models.StatusFinal {
		t.Errorf("answer status must move with the question, got %s", got.Answer.Status)
	}
}

func TestListMatchCandidatesFiltersDrafts(t *testing.T) {
	c := newTestClient(t)
	agent := seedAgent(t, c, models.StatusFinal)
	seedQuestion(t, c, agent.ID, "q-final", models.StatusFinal)
	seedQuestion(t, c, agent.ID, "q-draft", models.StatusDraft)

	candidates, err := c.ListMatchCandidates(agent.ID)
	if err != nil {
		t.Fatalf("failed to list candidates: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected only the final question, got %d candidates", len(candidates))
	}
	if candidates[0].ID != "q-final" {
		t.Errorf("unexpected candidate: %s", candidates[0].ID)
	}
}

func TestListMatchCandidatesRequiresFinalAgent(t *testing.T) {
	c := newTestClient(t)
	agent := seedAgent(t, c, models.StatusDraft)
	seedQuestion(t, c, agent.ID, "q1", models.StatusFinal)

	candidates, err := c.ListMatchCandidates(agent.ID)
	if err != nil {
		t.Fatalf("failed to list candidates: %v", err)
	}

	if len(candidates) != 0 {
		t.Errorf("draft agent must expose no candidates, got %d", len(candidates))
	}
}

func TestListMatchCandidatesExcludesUnapprovedVariants(t *testing.T) {
	c := newTestClient(t)
	agent := seedAgent(t, c, models.StatusFinal)
	seedQuestion(t, c, agent.ID, "q1", models.StatusFinal)

	if err := c.SetQuestionVariantApproval("qv-q1", false); err != nil {
		t.Fatalf("failed to revoke approval: %v", err)
	}
	if err := c.SetAnswerVariantApproval("av-q1", false); err != nil {
		t.Fatalf("failed to revoke approval: %v", err)
	}

	candidates, err := c.ListMatchCandidates(agent.ID)
	if err != nil {
		t.Fatalf("failed to list candidates: %v", err)
	}

	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if len(candidates[0].Variants) != 0 {
		t.Errorf("unapproved question variants leaked: %+v", candidates[0].Variants)
	}
	if len(candidates[0].Answer.Variants) != 0 {
		t.Errorf("unapproved answer variants leaked: %+v", candidates[0].Answer.Variants)
	}
}

func TestUpdateAgentStatusBumpsVersion(t *testing.T) {
	c := newTestClient(t)
	agent := seedAgent(t, c, models.StatusDraft)

	if err := c.UpdateAgentStatus(agent.ID, models.StatusFinal); err != nil {
		t.Fatalf("failed to update status: %v", err)
	}

	got, err := c.GetAgent(agent.ID)
	if err != nil {
		t.Fatalf("failed to get agent: %v", err)
	}

	if got.Status != models.StatusFinal {
		t.Errorf("expected final status, got %s", got.Status)
	}
	if got.Version != 2 {
		t.Errorf("expected version bump to 2, got %d", got.Version)
	}
}

func TestChatSessionLifecycle(t *testing.T) {
	c := newTestClient(t)
	agent := seedAgent(t, c, models.StatusFinal)

	now := time.Now()
	session := &models.ChatSession{
		ID:           "sess-1",
		AgentID:      agent.ID,
		VisitorID:    "visitor-1",
		CreatedAt:    now,
		LastActiveAt: now,
	}
	if err := c.CreateChatSession(session); err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	userMsg := &models.ChatMessage{
		ID:        "msg-1",
		SessionID: session.ID,
		Sender:    models.SenderUser,
		Text:      "what is your return policy",
		CreatedAt: now,
	}
	agentMsg := &models.ChatMessage{
		ID:         "msg-2",
		SessionID:  session.ID,
		Sender:     models.SenderAgent,
		Text:       "Returns are accepted within 30 days.",
		QuestionID: "q1",
		AnswerID:   "ans-q1",
		Score:      0.8,
		CreatedAt:  now.Add(time.Second),
	}
	if err := c.InsertChatMessage(userMsg); err != nil {
		t.Fatalf("failed to insert user message: %v", err)
	}
	if err := c.InsertChatMessage(agentMsg); err != nil {
		t.Fatalf("failed to insert agent message: %v", err)
	}
	if err := c.TouchChatSession(session.ID, 2); err != nil {
		t.Fatalf("failed to touch session: %v", err)
	}

	got, err := c.GetChatSession(session.ID)
	if err != nil {
		t.Fatalf("failed to get session: %v", err)
	}
	if got.MessageCount != 2 {
		t.Errorf("expected message count 2, got %d", got.MessageCount)
	}

	messages, err := c.ListSessionMessages(session.ID, 10)
	if err != nil {
		t.Fatalf("failed to list messages: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].Sender != models.SenderUser || messages[1].Sender != models.SenderAgent {
		t.Errorf("messages out of order: %s then %s", messages[0].Sender, messages[1].Sender)
	}
}

func TestInsertAuditEntry(t *testing.T) {
	c := newTestClient(t)

	entry := &models.AuditEntry{
		Actor:      "admin",
		Action:     "create",
		EntityType: "question",
		EntityID:   "q1",
		Detail:     "What is your return policy?",
		CreatedAt:  time.Now(),
	}
	if err := c.InsertAuditEntry(entry); err != nil {
		t.Fatalf("failed to insert audit entry: %v", err)
	}
}

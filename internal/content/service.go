package content

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/audit"
	cache "github.com/agentdesk/backend/internal/cache/redis"
	"github.com/agentdesk/backend/internal/metrics"
	"github.com/agentdesk/backend/internal/paraphrase"
	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/internal/storage/sqlite"
	"github.com/agentdesk/backend/pkg/logger"
)

// Service orchestrates admin curation: domains, agents and question /
// answer content with automatic variant generation. Every mutation
// invalidates the candidate cache and leaves an audit trail.
type Service struct {
	db        *sqlite.Client
	generator *paraphrase.Generator
	cache     *cache.Client
	audit     *audit.Recorder
}

func NewService(db *sqlite.Client, generator *paraphrase.Generator, cacheClient *cache.Client, auditRecorder *audit.Recorder) *Service {
	return &Service{
		db:        db,
		generator: generator,
		cache:     cacheClient,
		audit:     auditRecorder,
	}
}

func (s *Service) CreateDomain(name, description, actor string) (*models.Domain, error) {
	domain := &models.Domain{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	}

	if err := s.db.CreateDomain(domain); err != nil {
		return nil, err
	}

	s.audit.Record(actor, "create", "domain", domain.ID, name)
	return domain, nil
}

func (s *Service) ListDomains() ([]models.Domain, error) {
	return s.db.ListDomains()
}

func (s *Service) CreateAgent(domainID, name, description, actor string) (*models.Agent, error) {
	now := time.Now()
	agent := &models.Agent{
		ID:          uuid.New().String(),
		DomainID:    domainID,
		Name:        name,
		Description: description,
		Version:     1,
		Status:      models.StatusDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.db.CreateAgent(agent); err != nil {
		return nil, err
	}

	s.audit.Record(actor, "create", "agent", agent.ID, name)
	return agent, nil
}

func (s *Service) GetAgent(id string) (*models.Agent, error) {
	return s.db.GetAgent(id)
}

func (s *Service) ListAgents(domainID string) ([]models.Agent, error) {
	return s.db.ListAgents(domainID)
}

func (s *Service) SetAgentStatus(ctx context.Context, id, status, actor string) error {
	if err := validateStatus(status); err != nil {
		return err
	}

	if err := s.db.UpdateAgentStatus(id, status); err != nil {
		return err
	}

	s.invalidateCandidates(ctx)
	s.audit.Record(actor, "status_update", "agent", id, status)
	return nil
}

// CreateQuestion stores a question with its answer and generates both
// variant sets in the same transaction. New questions start as drafts and
// stay invisible to the matcher until finalized.
func (s *Service) CreateQuestion(ctx context.Context, agentID, questionText, answerText, answerHTML, actor string) (*models.Question, error) {
	if _, err := s.db.GetAgent(agentID); err != nil {
		return nil, fmt.Errorf("agent lookup failed: %w", err)
	}

	now := time.Now()
	question := &models.Question{
		ID:        uuid.New().String(),
		AgentID:   agentID,
		Text:      questionText,
		Status:    models.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	answer := &models.Answer{
		ID:         uuid.New().String(),
		QuestionID: question.ID,
		Text:       answerText,
		HTML:       answerHTML,
		Status:     models.StatusDraft,
	}

	qVariants, aVariants := s.generateVariants(question.ID, answer.ID, questionText, answerText, answerHTML)

	if err := s.db.CreateQuestion(question, answer, qVariants, aVariants); err != nil {
		return nil, err
	}

	metrics.QuestionsCreated.Inc()
	s.invalidateCandidates(ctx)
	s.audit.Record(actor, "create", "question", question.ID, questionText)

	logger.Info("Question created",
		zap.String("question_id", question.ID),
		zap.String("agent_id", agentID),
		zap.Int("question_variants", len(qVariants)),
		zap.Int("answer_variants", len(aVariants)),
	)

	return s.db.GetQuestion(question.ID)
}

// UpdateQuestion rewrites the source texts and regenerates both variant
// sets from scratch. Prior variants are discarded wholesale; there is no
// incremental diffing.
func (s *Service) UpdateQuestion(ctx context.Context, questionID, questionText, answerText, answerHTML, actor string) (*models.Question, error) {
	existing, err := s.db.GetQuestion(questionID)
	if err != nil {
		return nil, err
	}

	qVariants, aVariants := s.generateVariants(questionID, existing.Answer.ID, questionText, answerText, answerHTML)

	if err := s.db.UpdateQuestion(questionID, questionText, answerText, answerHTML, qVariants, aVariants); err != nil {
		return nil, err
	}

	metrics.QuestionsUpdated.Inc()
	s.invalidateCandidates(ctx)
	s.audit.Record(actor, "update", "question", questionID, questionText)

	return s.db.GetQuestion(questionID)
}

// SetQuestionStatus toggles the question and its answer together in one
// transaction; the pair never diverges.
func (s *Service) SetQuestionStatus(ctx context.Context, questionID, status, actor string) error {
	if err := validateStatus(status); err != nil {
		return err
	}

	if err := s.db.SetQuestionStatus(questionID, status); err != nil {
		return err
	}

	s.invalidateCandidates(ctx)
	s.audit.Record(actor, "status_update", "question", questionID, status)
	return nil
}

func (s *Service) GetQuestion(id string) (*models.Question, error) {
	return s.db.GetQuestion(id)
}

func (s *Service) SetQuestionVariantApproval(ctx context.Context, variantID string, approved bool, actor string) error {
	if err := s.db.SetQuestionVariantApproval(variantID, approved); err != nil {
		return err
	}

	s.invalidateCandidates(ctx)
	s.audit.Record(actor, "approval_update", "question_variant", variantID, fmt.Sprintf("approved=%t", approved))
	return nil
}

func (s *Service) SetAnswerVariantApproval(ctx context.Context, variantID string, approved bool, actor string) error {
	if err := s.db.SetAnswerVariantApproval(variantID, approved); err != nil {
		return err
	}

	s.invalidateCandidates(ctx)
	s.audit.Record(actor, "approval_update", "answer_variant", variantID, fmt.Sprintf("approved=%t", approved))
	return nil
}

// generateVariants expands both source texts. Generation is best-effort;
// an empty set never blocks the write.
func (s *Service) generateVariants(questionID, answerID, questionText, answerText, answerHTML string) ([]models.QuestionVariant, []models.AnswerVariant) {
	generated := s.generator.Generate(questionText, paraphrase.KindQuestion, "")
	metrics.VariantsGenerated.WithLabelValues(string(paraphrase.KindQuestion)).Observe(float64(len(generated)))

	qVariants := make([]models.QuestionVariant, 0, len(generated))
	for _, v := range generated {
		qVariants = append(qVariants, models.QuestionVariant{
			ID:          uuid.New().String(),
			QuestionID:  questionID,
			VariantText: v.Text,
			Technique:   v.Technique,
			Confidence:  v.Confidence,
			IsApproved:  true,
		})
	}

	generated = s.generator.Generate(answerText, paraphrase.KindAnswer, answerHTML)
	metrics.VariantsGenerated.WithLabelValues(string(paraphrase.KindAnswer)).Observe(float64(len(generated)))

	aVariants := make([]models.AnswerVariant, 0, len(generated))
	for _, v := range generated {
		aVariants = append(aVariants, models.AnswerVariant{
			ID:          uuid.New().String(),
			AnswerID:    answerID,
			VariantText: v.Text,
			VariantHTML: v.HTML,
			Technique:   v.Technique,
			Confidence:  v.Confidence,
			IsApproved:  true,
		})
	}

	return qVariants, aVariants
}

func (s *Service) invalidateCandidates(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCandidates(ctx); err != nil {
		logger.Warn("Failed to invalidate candidate cache", zap.Error(err))
	}
}

func validateStatus(status string) error {
	if status != models.StatusDraft && status != models.StatusFinal {
		return fmt.Errorf("invalid status: %s", status)
	}
	return nil
}

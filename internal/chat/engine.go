package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	cache "github.com/agentdesk/backend/internal/cache/redis"
	"github.com/agentdesk/backend/internal/match"
	"github.com/agentdesk/backend/internal/metrics"
	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/internal/storage/sqlite"
	"github.com/agentdesk/backend/pkg/logger"
)

const candidateCacheTTL = 5 * time.Minute

// Engine drives the demo chat flow: it resolves a session, runs the
// matcher over the agent's candidate pool and persists both sides of the
// exchange. It is also the matcher's candidate source, layering the
// redis cache over storage.
type Engine struct {
	db      *sqlite.Client
	cache   *cache.Client
	matcher *match.Matcher
}

type Reply struct {
	MessageID  string
	SessionID  string
	Text       string
	HTML       string
	QuestionID string
	AnswerID   string
	Score      float64
	Fallback   bool
	LatencyMS  int
}

func NewEngine(db *sqlite.Client, cacheClient *cache.Client, threshold float64) *Engine {
	e := &Engine{db: db, cache: cacheClient}
	e.matcher = match.NewMatcher(e, threshold, nil)
	return e
}

func (e *Engine) StartSession(agentID, visitorID string) (*models.ChatSession, error) {
	if _, err := e.db.GetAgent(agentID); err != nil {
		return nil, err
	}

	now := time.Now()
	session := &models.ChatSession{
		ID:           uuid.New().String(),
		AgentID:      agentID,
		VisitorID:    visitorID,
		CreatedAt:    now,
		LastActiveAt: now,
	}

	if err := e.db.CreateChatSession(session); err != nil {
		return nil, err
	}

	metrics.SessionsStarted.Inc()
	logger.Info("Chat session started",
		zap.String("session_id", session.ID),
		zap.String("agent_id", agentID),
	)

	return session, nil
}

// ProcessMessage matches one inbound utterance and logs both the user
// message and the agent reply. Matching itself never errors; only
// session resolution and message persistence can fail here.
func (e *Engine) ProcessMessage(ctx context.Context, sessionID, utterance string) (*Reply, error) {
	startTime := time.Now()

	session, err := e.db.GetChatSession(sessionID)
	if err != nil {
		return nil, err
	}

	userMsg := &models.ChatMessage{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Sender:    models.SenderUser,
		Text:      utterance,
		CreatedAt: time.Now(),
	}
	if err := e.db.InsertChatMessage(userMsg); err != nil {
		return nil, err
	}

	result := e.matcher.Match(session.AgentID, utterance)
	metrics.MatchDuration.Observe(time.Since(startTime).Seconds())

	outcome := "matched"
	if result.Fallback {
		outcome = "fallback"
		reason := "no_match"
		if result.QuestionID == "" && result.Text == match.FallbackError {
			reason = "error"
		}
		metrics.FallbacksTotal.WithLabelValues(reason).Inc()
	} else {
		metrics.MatchScore.Observe(result.Score)
	}
	metrics.ChatMessagesTotal.WithLabelValues(outcome).Inc()

	agentMsg := &models.ChatMessage{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Sender:     models.SenderAgent,
		Text:       result.Text,
		HTML:       result.HTML,
		QuestionID: result.QuestionID,
		AnswerID:   result.AnswerID,
		Score:      result.Score,
		CreatedAt:  time.Now(),
	}
	if err := e.db.InsertChatMessage(agentMsg); err != nil {
		return nil, err
	}

	if err := e.db.TouchChatSession(sessionID, 2); err != nil {
		logger.Warn("Failed to update session counters", zap.Error(err), zap.String("session_id", sessionID))
	}

	latency := int(time.Since(startTime).Milliseconds())
	logger.Info("Chat message processed",
		zap.String("session_id", sessionID),
		zap.String("question_id", result.QuestionID),
		zap.Float64("score", result.Score),
		zap.Bool("fallback", result.Fallback),
		zap.Int("latency_ms", latency),
	)

	return &Reply{
		MessageID:  agentMsg.ID,
		SessionID:  sessionID,
		Text:       result.Text,
		HTML:       result.HTML,
		QuestionID: result.QuestionID,
		AnswerID:   result.AnswerID,
		Score:      result.Score,
		Fallback:   result.Fallback,
		LatencyMS:  latency,
	}, nil
}

func (e *Engine) GetSession(sessionID string) (*models.ChatSession, error) {
	return e.db.GetChatSession(sessionID)
}

func (e *Engine) History(sessionID string, limit int) ([]models.ChatMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	return e.db.ListSessionMessages(sessionID, limit)
}

// ListMatchCandidates implements match.CandidateSource with the redis
// cache in front of storage.
func (e *Engine) ListMatchCandidates(agentID string) ([]models.Question, error) {
	ctx := context.Background()

	if e.cache != nil {
		questions, hit, err := e.cache.GetCandidates(ctx, agentID)
		if err != nil {
			logger.Warn("Candidate cache read failed", zap.Error(err))
		} else if hit {
			metrics.CacheHits.WithLabelValues("candidates").Inc()
			return questions, nil
		}
		metrics.CacheMisses.WithLabelValues("candidates").Inc()
	}

	questions, err := e.db.ListMatchCandidates(agentID)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.cache.SetCandidates(ctx, agentID, questions, candidateCacheTTL); err != nil {
			logger.Warn("Candidate cache write failed", zap.Error(err))
		}
	}

	return questions, nil
}

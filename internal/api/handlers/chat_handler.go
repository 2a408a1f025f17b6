package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/chat"
	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/pkg/logger"
)

type ChatHandler struct {
	engine *chat.Engine
}

func NewChatHandler(engine *chat.Engine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

func (h *ChatHandler) StartSession(c *fiber.Ctx) error {
	var req struct {
		AgentID   string `json:"agent_id"`
		VisitorID string `json:"visitor_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.AgentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "agent_id is required",
		})
	}

	session, err := h.engine.StartSession(req.AgentID, req.VisitorID)
	if err != nil {
		logger.Error("Failed to start chat session", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to start session",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":         session.ID,
		"agent_id":   session.AgentID,
		"visitor_id": session.VisitorID,
		"created_at": session.CreatedAt.Unix(),
	})
}

func (h *ChatHandler) PostMessage(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message text is required",
		})
	}

	reply, err := h.engine.ProcessMessage(c.Context(), c.Params("sessionId"), req.Text)
	if err != nil {
		logger.Error("Failed to process chat message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process message",
		})
	}

	return c.JSON(replyJSON(reply))
}

func (h *ChatHandler) GetHistory(c *fiber.Ctx) error {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	sessionID := c.Params("sessionId")
	if _, err := h.engine.GetSession(sessionID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Session not found",
		})
	}

	messages, err := h.engine.History(sessionID, limit)
	if err != nil {
		logger.Error("Failed to load chat history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load history",
		})
	}

	out := make([]fiber.Map, 0, len(messages))
	for i := range messages {
		out = append(out, messageJSON(&messages[i]))
	}

	return c.JSON(fiber.Map{
		"session_id": sessionID,
		"messages":   out,
	})
}

func replyJSON(r *chat.Reply) fiber.Map {
	return fiber.Map{
		"message_id":  r.MessageID,
		"session_id":  r.SessionID,
		"text":        r.Text,
		"html":        r.HTML,
		"question_id": r.QuestionID,
		"answer_id":   r.AnswerID,
		"score":       r.Score,
		"fallback":    r.Fallback,
		"latency_ms":  r.LatencyMS,
	}
}

func messageJSON(m *models.ChatMessage) fiber.Map {
	return fiber.Map{
		"id":          m.ID,
		"session_id":  m.SessionID,
		"sender":      m.Sender,
		"text":        m.Text,
		"question_id": m.QuestionID,
		"answer_id":   m.AnswerID,
		"score":       m.Score,
		"created_at":  m.CreatedAt.Unix(),
	}
}

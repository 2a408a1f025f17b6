package handlers

import (
	"context"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/chat"
	"github.com/agentdesk/backend/pkg/logger"
)

type WebSocketHandler struct {
	engine *chat.Engine
}

func NewWebSocketHandler(engine *chat.Engine) *WebSocketHandler {
	return &WebSocketHandler{engine: engine}
}

// HandleConnection runs the message loop for one demo chat session. The
// session id comes from the upgrade route; every "message" frame gets
// exactly one "reply" frame back.
func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	sessionID := c.Params("sessionId")

	if _, err := h.engine.GetSession(sessionID); err != nil {
		h.sendError(c, "Session not found")
		c.Close()
		return
	}

	logger.Info("WebSocket connection established", zap.String("session_id", sessionID))

	defer func() {
		c.Close()
		logger.Info("WebSocket connection closed", zap.String("session_id", sessionID))
	}()

	for {
		var msg struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}

		err := c.ReadJSON(&msg)
		if err != nil {
			logger.Debug("Failed to read WebSocket message", zap.Error(err))
			break
		}

		if msg.Type != "message" || msg.Text == "" {
			continue
		}

		reply, err := h.engine.ProcessMessage(context.Background(), sessionID, msg.Text)
		if err != nil {
			logger.Error("Failed to process WebSocket message", zap.Error(err))
			h.sendError(c, "Failed to process message")
			continue
		}

		err = c.WriteJSON(map[string]interface{}{
			"type":        "reply",
			"message_id":  reply.MessageID,
			"text":        reply.Text,
			"html":        reply.HTML,
			"question_id": reply.QuestionID,
			"score":       reply.Score,
			"fallback":    reply.Fallback,
			"latency_ms":  reply.LatencyMS,
		})
		if err != nil {
			logger.Error("Failed to write WebSocket reply", zap.Error(err))
			break
		}
	}
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}

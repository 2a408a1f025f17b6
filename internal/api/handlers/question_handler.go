package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/auth"
	"github.com/agentdesk/backend/internal/content"
	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/pkg/logger"
)

type QuestionHandler struct {
	svc *content.Service
}

func NewQuestionHandler(svc *content.Service) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

func (h *QuestionHandler) CreateQuestion(c *fiber.Ctx) error {
	var req struct {
		QuestionText string `json:"question_text"`
		AnswerText   string `json:"answer_text"`
		AnswerHTML   string `json:"answer_html"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.QuestionText == "" || req.AnswerText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "question_text and answer_text are required",
		})
	}

	question, err := h.svc.CreateQuestion(c.Context(), c.Params("id"), req.QuestionText, req.AnswerText, req.AnswerHTML, auth.Actor(c))
	if err != nil {
		logger.Error("Failed to create question", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create question",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(questionJSON(question))
}

func (h *QuestionHandler) UpdateQuestion(c *fiber.Ctx) error {
	var req struct {
		QuestionText string `json:"question_text"`
		AnswerText   string `json:"answer_text"`
		AnswerHTML   string `json:"answer_html"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.QuestionText == "" || req.AnswerText == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "question_text and answer_text are required",
		})
	}

	question, err := h.svc.UpdateQuestion(c.Context(), c.Params("id"), req.QuestionText, req.AnswerText, req.AnswerHTML, auth.Actor(c))
	if err != nil {
		logger.Error("Failed to update question", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update question",
		})
	}

	return c.JSON(questionJSON(question))
}

func (h *QuestionHandler) GetQuestion(c *fiber.Ctx) error {
	question, err := h.svc.GetQuestion(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Question not found",
		})
	}

	return c.JSON(questionJSON(question))
}

func (h *QuestionHandler) UpdateQuestionStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	err := h.svc.SetQuestionStatus(c.Context(), c.Params("id"), req.Status, auth.Actor(c))
	if err != nil {
		logger.Error("Failed to update question status", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": req.Status})
}

func (h *QuestionHandler) UpdateQuestionVariantApproval(c *fiber.Ctx) error {
	return h.updateApproval(c, h.svc.SetQuestionVariantApproval)
}

func (h *QuestionHandler) UpdateAnswerVariantApproval(c *fiber.Ctx) error {
	return h.updateApproval(c, h.svc.SetAnswerVariantApproval)
}

func (h *QuestionHandler) updateApproval(c *fiber.Ctx, update func(ctx context.Context, variantID string, approved bool, actor string) error) error {
	var req struct {
		IsApproved *bool `json:"is_approved"`
	}

	if err := c.BodyParser(&req); err != nil || req.IsApproved == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "is_approved is required",
		})
	}

	if err := update(c.Context(), c.Params("id"), *req.IsApproved, auth.Actor(c)); err != nil {
		logger.Error("Failed to update variant approval", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"is_approved": *req.IsApproved})
}

func questionJSON(q *models.Question) fiber.Map {
	qVariants := make([]fiber.Map, 0, len(q.Variants))
	for _, v := range q.Variants {
		qVariants = append(qVariants, fiber.Map{
			"id":           v.ID,
			"variant_text": v.VariantText,
			"technique":    v.Technique,
			"confidence":   v.Confidence,
			"is_approved":  v.IsApproved,
		})
	}

	out := fiber.Map{
		"id":         q.ID,
		"agent_id":   q.AgentID,
		"text":       q.Text,
		"status":     q.Status,
		"created_at": q.CreatedAt.Unix(),
		"updated_at": q.UpdatedAt.Unix(),
		"variants":   qVariants,
	}

	if q.Answer != nil {
		aVariants := make([]fiber.Map, 0, len(q.Answer.Variants))
		for _, v := range q.Answer.Variants {
			aVariants = append(aVariants, fiber.Map{
				"id":           v.ID,
				"variant_text": v.VariantText,
				"variant_html": v.VariantHTML,
				"technique":    v.Technique,
				"confidence":   v.Confidence,
				"is_approved":  v.IsApproved,
			})
		}

		out["answer"] = fiber.Map{
			"id":       q.Answer.ID,
			"text":     q.Answer.Text,
			"html":     q.Answer.HTML,
			"status":   q.Answer.Status,
			"variants": aVariants,
		}
	}

	return out
}

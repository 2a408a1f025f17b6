package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/evaluation"
	"github.com/agentdesk/backend/pkg/logger"
)

type EvaluationHandler struct {
	evaluator *evaluation.Evaluator
}

func NewEvaluationHandler(evaluator *evaluation.Evaluator) *EvaluationHandler {
	return &EvaluationHandler{evaluator: evaluator}
}

// RunEvaluation accepts a labelled dataset in the request body and runs it
// through the live matcher synchronously. Intended for admin use on small
// datasets; large runs belong offline.
func (h *EvaluationHandler) RunEvaluation(c *fiber.Ctx) error {
	dataset, err := h.evaluator.LoadDatasetFromJSON(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid dataset format",
		})
	}

	if len(dataset.Items) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Dataset is empty",
		})
	}

	report, err := h.evaluator.RunDatasetEvaluation(dataset)
	if err != nil {
		logger.Error("Failed to run evaluation", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to run evaluation",
		})
	}

	return c.JSON(fiber.Map{
		"total":     report.TotalItems,
		"correct":   report.CorrectCount,
		"wrong":     report.WrongCount,
		"fallbacks": report.FallbackCount,
		"accuracy":  report.Accuracy,
		"avg_score": report.AvgScore,
		"report":    h.evaluator.GenerateReport(report),
	})
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agentdesk/backend/internal/auth"
	"github.com/agentdesk/backend/internal/content"
	"github.com/agentdesk/backend/internal/storage/models"
	"github.com/agentdesk/backend/pkg/logger"
)

type AgentHandler struct {
	svc *content.Service
}

func NewAgentHandler(svc *content.Service) *AgentHandler {
	return &AgentHandler{svc: svc}
}

func (h *AgentHandler) CreateDomain(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	domain, err := h.svc.CreateDomain(req.Name, req.Description, auth.Actor(c))
	if err != nil {
		logger.Error("Failed to create domain", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create domain",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(domainJSON(domain))
}

func (h *AgentHandler) ListDomains(c *fiber.Ctx) error {
	domains, err := h.svc.ListDomains()
	if err != nil {
		logger.Error("Failed to list domains", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list domains",
		})
	}

	out := make([]fiber.Map, 0, len(domains))
	for i := range domains {
		out = append(out, domainJSON(&domains[i]))
	}

	return c.JSON(fiber.Map{"domains": out})
}

func (h *AgentHandler) CreateAgent(c *fiber.Ctx) error {
	var req struct {
		DomainID    string `json:"domain_id"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.DomainID == "" || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "domain_id and name are required",
		})
	}

	agent, err := h.svc.CreateAgent(req.DomainID, req.Name, req.Description, auth.Actor(c))
	if err != nil {
		logger.Error("Failed to create agent", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create agent",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(agentJSON(agent))
}

func (h *AgentHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.svc.ListAgents(c.Query("domain_id"))
	if err != nil {
		logger.Error("Failed to list agents", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list agents",
		})
	}

	out := make([]fiber.Map, 0, len(agents))
	for i := range agents {
		out = append(out, agentJSON(&agents[i]))
	}

	return c.JSON(fiber.Map{"agents": out})
}

func (h *AgentHandler) GetAgent(c *fiber.Ctx) error {
	agent, err := h.svc.GetAgent(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Agent not found",
		})
	}

	return c.JSON(agentJSON(agent))
}

func (h *AgentHandler) UpdateAgentStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}

	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	err := h.svc.SetAgentStatus(c.Context(), c.Params("id"), req.Status, auth.Actor(c))
	if err != nil {
		logger.Error("Failed to update agent status", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{"status": req.Status})
}

func domainJSON(d *models.Domain) fiber.Map {
	return fiber.Map{
		"id":          d.ID,
		"name":        d.Name,
		"description": d.Description,
		"created_at":  d.CreatedAt.Unix(),
	}
}

func agentJSON(a *models.Agent) fiber.Map {
	return fiber.Map{
		"id":          a.ID,
		"domain_id":   a.DomainID,
		"name":        a.Name,
		"description": a.Description,
		"version":     a.Version,
		"status":      a.Status,
		"created_at":  a.CreatedAt.Unix(),
		"updated_at":  a.UpdatedAt.Unix(),
	}
}

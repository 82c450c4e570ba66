// Package web provides HTTP handlers and REST API endpoints for scenario management.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/registry"
	"github.com/dukex/scenarios/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	scenarioService   *services.Scenario
	graphService      *services.Graph
	connectionService *services.Connection
	catalogService    *services.Catalog
	validator         *validator.Validate
	registry          *registry.Registry
}

func NewAPIHandlers(
	scenarioService *services.Scenario,
	graphService *services.Graph,
	connectionService *services.Connection,
	catalogService *services.Catalog,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		scenarioService:   scenarioService,
		graphService:      graphService,
		connectionService: connectionService,
		catalogService:    catalogService,
		validator:         validator,
		registry:          registry,
	}
}

// Routes mounts every endpoint on the router.
func (h *APIHandlers) Routes(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	s := router.Group("/scenarios")
	s.Get("/", h.GetScenarios)
	s.Post("/", h.CreateScenario)
	s.Get("/:id", h.GetScenario)
	s.Patch("/:id", h.UpdateScenario)
	s.Delete("/:id", h.DeleteScenario)
	s.Post("/:id/validate", h.ValidateScenario)
	s.Post("/:id/runs", h.RunScenario)

	s.Get("/:id/nodes", h.GetScenarioNodes)
	s.Post("/:id/nodes", h.CreateScenarioNode)
	s.Get("/:id/nodes/:nodeId", h.GetScenarioNode)
	s.Patch("/:id/nodes/:nodeId", h.UpdateScenarioNode)
	s.Delete("/:id/nodes/:nodeId", h.DeleteScenarioNode)

	s.Get("/:id/edges", h.GetScenarioEdges)
	s.Post("/:id/edges", h.CreateScenarioEdge)
	s.Delete("/:id/edges/:edgeId", h.DeleteScenarioEdge)

	r := router.Group("/runs")
	r.Get("/:runId", h.GetRunStatus)
	r.Post("/:runId/cancel", h.CancelRun)

	router.Get("/logs", h.GetLogs)

	router.Post("/webhooks/:id", h.ReceiveWebhook)

	conn := router.Group("/connections")
	conn.Get("/", h.GetConnections)
	conn.Post("/", h.CreateConnection)
	conn.Get("/:id", h.GetConnection)
	conn.Post("/:id/rotate", h.RotateConnection)
	conn.Patch("/:id/status", h.SetConnectionStatus)
	conn.Delete("/:id", h.DeleteConnection)

	cat := router.Group("/catalog")
	cat.Get("/nodes", h.GetNodeTypes)
	cat.Get("/nodes/:identifier", h.GetNodeType)
	cat.Post("/nodes/:identifier/validate", h.ValidateNodeConfig)
	cat.Get("/transformations", h.GetTransformations)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.scenarioService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Scenario API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Scenario API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetScenarios(c fiber.Ctx) error {
	scenarios, err := h.scenarioService.List(c.Context(), c.Query("owner_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"scenarios": scenarios})
}

func (h *APIHandlers) GetScenario(c fiber.Ctx) error {
	scenario, err := h.scenarioService.FetchByID(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(scenario)
}

func (h *APIHandlers) CreateScenario(c fiber.Ctx) error {
	var req CreateScenarioRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.scenarioService.Create(c.Context(), &models.Scenario{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     req.OwnerID,
		Status:      models.ScenarioStatus(req.Status),
		Schedule:    req.Schedule,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateScenario(c fiber.Ctx) error {
	id := c.Params("id")

	var req UpdateScenarioRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	existing, err := h.scenarioService.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	if req.Name != nil {
		existing.Name = *req.Name
	}

	if req.Description != nil {
		existing.Description = *req.Description
	}

	if req.Status != nil {
		existing.Status = models.ScenarioStatus(*req.Status)
	}

	if req.Schedule != nil {
		existing.Schedule = *req.Schedule
	}

	updated, err := h.scenarioService.Update(c.Context(), id, existing)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteScenario(c fiber.Ctx) error {
	err := h.scenarioService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ValidateScenario(c fiber.Ctx) error {
	result, err := h.scenarioService.ValidateScenario(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(result)
}

func (h *APIHandlers) RunScenario(c fiber.Ctx) error {
	var req RunScenarioRequest

	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	runReq := services.RunRequest{
		TriggerPayload: req.TriggerPayload,
		UserID:         req.UserID,
	}

	if c.Query("wait") == "true" {
		return h.runScenarioAndWait(c, runReq)
	}

	runID, err := h.scenarioService.RunScenario(c.Context(), c.Params("id"), runReq)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(RunScenarioResponse{RunID: runID})
}

// runScenarioAndWait answers with the final run status instead of the run id.
func (h *APIHandlers) runScenarioAndWait(c fiber.Ctx, req services.RunRequest) error {
	result, err := h.scenarioService.RunScenarioSync(c.Context(), c.Params("id"), req)
	if err != nil {
		return handleServiceError(c, err)
	}

	status, err := h.scenarioService.GetRunStatus(c.Context(), result.RunID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(status)
}

func (h *APIHandlers) GetRunStatus(c fiber.Ctx) error {
	status, err := h.scenarioService.GetRunStatus(c.Context(), c.Params("runId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(status)
}

func (h *APIHandlers) CancelRun(c fiber.Ctx) error {
	err := h.scenarioService.CancelRun(c.Context(), c.Params("runId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *APIHandlers) GetLogs(c fiber.Ctx) error {
	filter, err := parseLogFilter(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	entries, err := h.scenarioService.ListLogs(c.Context(), *filter)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"entries": entries})
}

// parseLogFilter reads the log query parameters; times are RFC 3339.
func parseLogFilter(c fiber.Ctx) (*models.LogFilter, error) {
	filter := &models.LogFilter{
		ScenarioID: c.Query("scenario_id"),
		RunID:      c.Query("run_id"),
		NodeID:     c.Query("node_id"),
		Status:     models.LogStatus(c.Query("status")),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		filter.Limit = limit
	}

	for name, target := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		value := c.Query(name)
		if value == "" {
			continue
		}

		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return nil, err
		}

		*target = &parsed
	}

	return filter, nil
}

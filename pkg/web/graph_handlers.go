package web

import (
	"github.com/dukex/scenarios/pkg/services"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetScenarioNodes(c fiber.Ctx) error {
	nodes, err := h.graphService.ListNodes(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"nodes": nodes})
}

func (h *APIHandlers) GetScenarioNode(c fiber.Ctx) error {
	node, err := h.graphService.GetNode(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) CreateScenarioNode(c fiber.Ctx) error {
	var req CreateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.graphService.CreateNode(c.Context(), c.Params("id"), &services.CreateNodeRequest{
		IntegrationNodeID: req.IntegrationNodeID,
		Label:             req.Label,
		ConnectionID:      req.ConnectionID,
		Config:            req.Config,
		InputMapping:      req.InputMapping,
		IsSystem:          req.IsSystem,
		LockedProperties:  req.LockedProperties,
		Order:             req.Order,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(node)
}

func (h *APIHandlers) UpdateScenarioNode(c fiber.Ctx) error {
	var req UpdateNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	node, err := h.graphService.UpdateNode(c.Context(), c.Params("id"), c.Params("nodeId"), &services.UpdateNodeRequest{
		Label:        req.Label,
		ConnectionID: req.ConnectionID,
		Config:       req.Config,
		InputMapping: req.InputMapping,
		Order:        req.Order,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(node)
}

func (h *APIHandlers) DeleteScenarioNode(c fiber.Ctx) error {
	err := h.graphService.DeleteNode(c.Context(), c.Params("id"), c.Params("nodeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetScenarioEdges(c fiber.Ctx) error {
	edges, err := h.graphService.ListEdges(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"edges": edges})
}

func (h *APIHandlers) CreateScenarioEdge(c fiber.Ctx) error {
	var req CreateEdgeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	edge, validation, err := h.graphService.CreateEdge(c.Context(), c.Params("id"), &services.CreateEdgeRequest{
		SourceNodeID: req.SourceNodeID,
		TargetNodeID: req.TargetNodeID,
		Mapping:      req.Mapping,
		Label:        req.Label,
		Branch:       req.Branch,
		Order:        req.Order,
		Validate:     req.Validate,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(EdgeResponse{Edge: edge, Validation: validation})
}

func (h *APIHandlers) DeleteScenarioEdge(c fiber.Ctx) error {
	err := h.graphService.DeleteEdge(c.Context(), c.Params("id"), c.Params("edgeId"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

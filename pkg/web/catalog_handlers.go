package web

import (
	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/services"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetNodeTypes(c fiber.Ctx) error {
	definitions := h.catalogService.ListNodeTypes(services.NodeTypeFilter{
		Category:        models.CategoryType(c.Query("category")),
		IntegrationType: c.Query("integration_type"),
	})

	return c.JSON(fiber.Map{"node_types": definitions})
}

func (h *APIHandlers) GetNodeType(c fiber.Ctx) error {
	definition, err := h.catalogService.GetNodeType(c.Params("identifier"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(definition)
}

func (h *APIHandlers) ValidateNodeConfig(c fiber.Ctx) error {
	var req ValidateConfigRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	violations, err := h.catalogService.ValidateNodeConfig(c.Params("identifier"), req.Config)
	if err != nil {
		return handleServiceError(c, err)
	}

	if violations == nil {
		violations = []string{}
	}

	return c.JSON(ValidateConfigResponse{Valid: len(violations) == 0, Violations: violations})
}

func (h *APIHandlers) GetTransformations(c fiber.Ctx) error {
	return c.JSON(fiber.Map{"transformations": h.catalogService.Transformations()})
}

package web

import (
	"github.com/dukex/scenarios/pkg/models"
	"github.com/dukex/scenarios/pkg/services"
	"github.com/gofiber/fiber/v3"
)

func (h *APIHandlers) GetConnections(c fiber.Ctx) error {
	connections, err := h.connectionService.List(c.Context(), c.Query("owner_id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"connections": connections})
}

func (h *APIHandlers) GetConnection(c fiber.Ctx) error {
	connection, err := h.connectionService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(connection)
}

func (h *APIHandlers) CreateConnection(c fiber.Ctx) error {
	var req CreateConnectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	connection, err := h.connectionService.Create(c.Context(), &services.CreateConnectionRequest{
		AppID:       req.AppID,
		Name:        req.Name,
		OwnerID:     req.OwnerID,
		Credentials: req.Credentials,
		ExpiresAt:   req.ExpiresAt,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(connection)
}

func (h *APIHandlers) RotateConnection(c fiber.Ctx) error {
	var req RotateConnectionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	connection, err := h.connectionService.Rotate(c.Context(), c.Params("id"), req.Credentials, req.ExpiresAt)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(connection)
}

func (h *APIHandlers) SetConnectionStatus(c fiber.Ctx) error {
	var req SetConnectionStatusRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	connection, err := h.connectionService.SetStatus(c.Context(), c.Params("id"), models.ConnectionStatus(req.Status))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(connection)
}

func (h *APIHandlers) DeleteConnection(c fiber.Ctx) error {
	err := h.connectionService.Delete(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

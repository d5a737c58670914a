// Package handler provides HTTP handlers for the API.
package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"chat-coordination-service/internal/app/service"
	"chat-coordination-service/internal/transport/httpserver/dto"
	"chat-coordination-service/internal/validator"
)

// PresenceHandler handles presence-related HTTP requests.
type PresenceHandler struct {
	presence  *service.PresenceService
	validator *validator.Validator
	logger    *zap.Logger
}

// NewPresenceHandler creates a new PresenceHandler.
func NewPresenceHandler(svc *service.PresenceService, v *validator.Validator, logger *zap.Logger) *PresenceHandler {
	return &PresenceHandler{
		presence:  svc,
		validator: v,
		logger:    logger,
	}
}

// ListSessions handles GET /api/v1/presence/sessions
func (h *PresenceHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.presence.Sessions(c.Context())
	if err != nil {
		h.logger.Error("list sessions failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to list sessions",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromDomainSessions(sessions))
}

// RegisterSession handles POST /api/v1/presence/sessions
func (h *PresenceHandler) RegisterSession(c *fiber.Ctx) error {
	var req dto.RegisterSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	if err := h.presence.Register(c.Context(), req.ToSession()); err != nil {
		h.logger.Error("register session failed",
			zap.String("session_id", req.SessionID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to register session",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.SendStatus(fiber.StatusCreated)
}

// UnregisterSession handles DELETE /api/v1/presence/sessions/:id
func (h *PresenceHandler) UnregisterSession(c *fiber.Ctx) error {
	id := c.Params("id")

	err := h.presence.Unregister(c.Context(), id)
	if errors.Is(err, service.ErrSessionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: "session not found",
			Code:  "NOT_FOUND",
		})
	}
	if err != nil {
		h.logger.Error("unregister session failed",
			zap.String("session_id", id),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to unregister session",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ListUsers handles GET /api/v1/presence/users
func (h *PresenceHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.presence.ActiveUsers(c.Context())
	if err != nil {
		h.logger.Error("list users failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to list users",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.ActiveUsersResponse{
		Users: users,
		Count: len(users),
	})
}

// GetUserSessions handles GET /api/v1/presence/users/:id/sessions
func (h *PresenceHandler) GetUserSessions(c *fiber.Ctx) error {
	id := c.Params("id")

	ids, err := h.presence.UserSessions(c.Context(), id)
	if err != nil {
		h.logger.Error("get user sessions failed",
			zap.String("user_id", id),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to get user sessions",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.UserSessionsResponse{
		UserID:     id,
		SessionIDs: ids,
	})
}

// ListModels handles GET /api/v1/presence/models
func (h *PresenceHandler) ListModels(c *fiber.Ctx) error {
	models, err := h.presence.ActiveModels(c.Context())
	if err != nil {
		h.logger.Error("list models failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to list model usage",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.JSON(dto.FromDomainUsage(models))
}

// RecordUsage handles POST /api/v1/presence/models/:id/usage
func (h *PresenceHandler) RecordUsage(c *fiber.Ctx) error {
	modelID := c.Params("id")

	var req dto.RecordUsageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "invalid request body",
			Code:  "INVALID_BODY",
		})
	}

	if err := h.validator.Validate(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error:   "validation failed",
			Code:    "VALIDATION_ERROR",
			Details: err,
		})
	}

	if err := h.presence.RecordUsage(c.Context(), modelID, req.SessionID); err != nil {
		h.logger.Error("record usage failed",
			zap.String("model_id", modelID),
			zap.Error(err),
		)

		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: "failed to record usage",
			Code:  "INTERNAL_ERROR",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

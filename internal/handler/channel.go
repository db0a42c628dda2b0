package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
	"github.com/Hippensteel/youtube-tv-guide/internal/middleware"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

// ChannelManager is the channel use-case surface the handler needs.
type ChannelManager interface {
	List(ctx context.Context, ids []string) ([]model.Channel, error)
	Add(ctx context.Context, req model.AddChannelRequest) (*model.AddChannelResponse, error)
	Deactivate(ctx context.Context, channelID string) error
	Search(ctx context.Context, query string) (*model.ChannelSearchResponse, error)
}

type ChannelHandler struct {
	svc ChannelManager
}

func NewChannelHandler(svc ChannelManager) *ChannelHandler {
	return &ChannelHandler{svc: svc}
}

// List handles GET /api/channels?ids=a,b
func (h *ChannelHandler) List(c fiber.Ctx) error {
	ids, errMsg := middleware.ParseChannelIDList(fiber.Query[string](c, "ids"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}

	channels, err := h.svc.List(c.Context(), ids)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list channels")
	}
	return c.JSON(fiber.Map{"channels": channels})
}

// Add handles POST /api/channels
func (h *ChannelHandler) Add(c fiber.Ctx) error {
	var req model.AddChannelRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Request body must be valid JSON")
	}
	if req.ChannelID != "" {
		id, errMsg := middleware.ValidateChannelID(req.ChannelID)
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
		}
		req.ChannelID = id
	}

	resp, err := h.svc.Add(c.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, errs.ErrInvalidQuery):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "MISSING_FIELD", "channelId or channelUrl required")
		case errors.Is(err, errs.ErrChannelUnresolvable):
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "UNRESOLVABLE", "Could not resolve channel from URL")
		case errors.Is(err, errs.ErrChannelNotFound):
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found on YouTube")
		case errors.Is(err, errs.ErrQuotaExhausted):
			return middleware.ErrorResponse(c, fiber.StatusServiceUnavailable, "QUOTA_EXHAUSTED", "YouTube API quota exhausted, try again after the daily reset")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add channel")
	}

	status := fiber.StatusOK
	if resp.Created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(resp)
}

// Remove handles DELETE /api/channels/:channelId
func (h *ChannelHandler) Remove(c fiber.Ctx) error {
	channelID, errMsg := middleware.ValidateChannelID(c.Params("channelId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	if err := h.svc.Deactivate(c.Context(), channelID); err != nil {
		if errors.Is(err, errs.ErrChannelNotFound) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Channel not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove channel")
	}
	return c.JSON(fiber.Map{"success": true})
}

// Search handles GET /api/channels/search?q=
func (h *ChannelHandler) Search(c fiber.Ctx) error {
	q := fiber.Query[string](c, "q")
	if len(q) > middleware.MaxSearchLen {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", "Query is too long")
	}

	resp, err := h.svc.Search(c.Context(), q)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidQuery) {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", "Query must be at least 2 characters")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to search channels")
	}
	return c.JSON(resp)
}

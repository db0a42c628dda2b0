package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
	"github.com/Hippensteel/youtube-tv-guide/internal/middleware"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
	"github.com/Hippensteel/youtube-tv-guide/internal/service"
)

type Refresher interface {
	RefreshAndCleanup(ctx context.Context, opts service.RefreshOptions) (*model.RefreshResult, error)
}

type RefreshHandler struct {
	svc Refresher
}

func NewRefreshHandler(svc Refresher) *RefreshHandler {
	return &RefreshHandler{svc: svc}
}

type refreshResponse struct {
	Success bool `json:"success"`
	*model.RefreshResult
}

// Cron handles POST|GET /api/cron/refresh
func (h *RefreshHandler) Cron(c fiber.Ctx) error {
	return h.run(c, service.RefreshOptions{})
}

// SyncNow handles POST /api/sync: a refresh that ignores channel staleness.
func (h *RefreshHandler) SyncNow(c fiber.Ctx) error {
	return h.run(c, service.RefreshOptions{Force: true})
}

func (h *RefreshHandler) run(c fiber.Ctx, opts service.RefreshOptions) error {
	result, err := h.svc.RefreshAndCleanup(c.Context(), opts)
	switch {
	case err == nil:
		return c.JSON(refreshResponse{Success: true, RefreshResult: result})
	case errors.Is(err, errs.ErrInsufficientQuota):
		return c.Status(fiber.StatusTooManyRequests).JSON(refreshResponse{Success: false, RefreshResult: result})
	case errors.Is(err, errs.ErrRefreshInProgress):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "REFRESH_IN_PROGRESS", "A refresh is already running")
	default:
		middleware.Logger.Error().Err(err).Msg("refresh failed")
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "REFRESH_FAILED", "Refresh failed")
	}
}

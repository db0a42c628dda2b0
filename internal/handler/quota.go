package handler

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/Hippensteel/youtube-tv-guide/internal/middleware"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

type QuotaReporter interface {
	Status(ctx context.Context) (*model.QuotaReport, error)
}

type QuotaHandler struct {
	svc QuotaReporter
}

func NewQuotaHandler(svc QuotaReporter) *QuotaHandler {
	return &QuotaHandler{svc: svc}
}

// Status handles GET /api/quota
func (h *QuotaHandler) Status(c fiber.Ctx) error {
	report, err := h.svc.Status(c.Context())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch quota status")
	}
	return c.JSON(report)
}

package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/Hippensteel/youtube-tv-guide/internal/errs"
	"github.com/Hippensteel/youtube-tv-guide/internal/middleware"
	"github.com/Hippensteel/youtube-tv-guide/internal/model"
)

type EventLister interface {
	List(ctx context.Context, q model.EventQuery) ([]model.EventWithChannel, error)
}

type EventHandler struct {
	svc EventLister
}

func NewEventHandler(svc EventLister) *EventHandler {
	return &EventHandler{svc: svc}
}

// List handles GET /api/events?channels=&start=&end=&status=
func (h *EventHandler) List(c fiber.Ctx) error {
	var (
		q      model.EventQuery
		errMsg string
	)
	if q.ChannelIDs, errMsg = middleware.ParseChannelIDList(fiber.Query[string](c, "channels")); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}
	if q.Start, errMsg = middleware.ParseTimeParam("start", fiber.Query[string](c, "start")); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}
	if q.End, errMsg = middleware.ParseTimeParam("end", fiber.Query[string](c, "end")); errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", errMsg)
	}
	for _, s := range middleware.SplitList(fiber.Query[string](c, "status")) {
		q.Statuses = append(q.Statuses, model.EventStatus(s))
	}

	events, err := h.svc.List(c.Context(), q)
	if err != nil {
		if errors.Is(err, errs.ErrInvalidQuery) {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_PARAM", err.Error())
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch events")
	}
	return c.JSON(model.EventsResponse{Events: events})
}

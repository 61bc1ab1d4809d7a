package controller

import (
	coreController "calchat/core/controller"
	coreEntity "calchat/core/entity"
	"calchat/core/errors"
	"calchat/core/middleware"
	"calchat/core/params"
	"calchat/modules/event/dto"
	"calchat/modules/event/repository"

	"github.com/labstack/echo/v4"
)

type EventController struct {
	coreController.BaseController
	repo repository.EventRepository
}

func NewEventController(repo repository.EventRepository) *EventController {
	return &EventController{
		BaseController: coreController.NewBaseController(),
		repo:           repo,
	}
}

// List returns a page of the user's cached events, earliest start first.
// GET /api/v1/private/events
func (c *EventController) List(ctx echo.Context) error {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	qp := params.FromContext(ctx)
	offset := (qp.PageNumber - 1) * qp.PageSize

	events, total, err := c.repo.ListByUserID(ctx.Request().Context(), userID, qp.PageSize, offset)
	if err != nil {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrInternalServer, "failed to list cached events", err))
	}

	items := make([]dto.CachedEventResponse, 0, len(events))
	for _, event := range events {
		items = append(items, dto.CachedEventResponse{
			ID:            event.ID.String(),
			GoogleEventID: event.GoogleEventID,
			Title:         event.Title,
			Description:   event.Description,
			StartDateTime: event.StartDateTime,
			EndDateTime:   event.EndDateTime,
			CalendarID:    event.CalendarID,
		})
	}

	return c.SuccessResponse(ctx, coreEntity.Pagination[dto.CachedEventResponse]{
		Items:      items,
		TotalItems: total,
		PageNumber: qp.PageNumber,
		PageSize:   qp.PageSize,
	}, "")
}

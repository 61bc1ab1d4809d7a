package controller

import (
	"net/http"
	"time"

	coreController "calchat/core/controller"
	"calchat/core/errors"
	"calchat/core/middleware"
	"calchat/modules/google/dto"
	"calchat/modules/google/service"

	"github.com/labstack/echo/v4"
	"google.golang.org/api/calendar/v3"
)

type GoogleController struct {
	coreController.BaseController
	oauthService service.OAuthServiceInterface
	tokenService service.TokenServiceInterface
}

func NewGoogleController(oauthService service.OAuthServiceInterface, tokenService service.TokenServiceInterface) *GoogleController {
	return &GoogleController{
		BaseController: coreController.NewBaseController(),
		oauthService:   oauthService,
		tokenService:   tokenService,
	}
}

// AuthURL returns the Google consent URL for the calendar scopes.
// GET /api/v1/google/auth-url
func (c *GoogleController) AuthURL(ctx echo.Context) error {
	url, state, appErr := c.oauthService.GenerateAuthURL(ctx.Request().Context())
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.AuthURLResponse{URL: url, State: state}, "")
}

// Callback completes the consent flow. Google redirects here with the
// authorization code; no bearer token is present, so the account email
// identifies the user.
// GET /api/v1/google/callback
func (c *GoogleController) Callback(ctx echo.Context) error {
	var req dto.CallbackRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid callback parameters")
	}
	if req.Code == "" || req.State == "" {
		return c.BadRequest(errors.ErrInvalidRequestData, "missing code or state")
	}

	token, appErr := c.oauthService.HandleCallback(ctx.Request().Context(), req.State, req.Code, nil)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, map[string]any{
		"user_id": token.UserID.String(),
		"email":   token.Email,
	}, "Google Calendar connected")
}

// CheckConnection reports whether the user has a stored Google credential.
// GET /api/v1/private/google/check-connection
func (c *GoogleController) CheckConnection(ctx echo.Context) error {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	connected, appErr := c.tokenService.CheckConnection(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, dto.ConnectionStatusResponse{Connected: connected}, "")
}

// ListEvents returns upcoming events from the assistant calendar. Defaults to
// the next 30 days when no window is given.
// GET /api/v1/private/google/events
func (c *GoogleController) ListEvents(ctx echo.Context) error {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	var req dto.ListEventsRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid query parameters")
	}
	if req.TimeMin == "" {
		req.TimeMin = time.Now().UTC().Format(time.RFC3339)
	}
	if req.TimeMax == "" {
		req.TimeMax = time.Now().UTC().Add(30 * 24 * time.Hour).Format(time.RFC3339)
	}

	client, appErr := c.tokenService.GetAuthenticatedClient(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	events, err := client.ListEvents(ctx.Request().Context(), req.TimeMin, req.TimeMax)
	if err != nil {
		return c.ErrorResponse(ctx, errors.NewAppError(errors.ErrUpstream, "failed to list calendar events", err))
	}

	resp := make([]dto.EventResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, toEventResponse(event))
	}
	return ctx.JSON(http.StatusOK, map[string]any{"events": resp})
}

func toEventResponse(event *calendar.Event) dto.EventResponse {
	resp := dto.EventResponse{
		ID:          event.Id,
		Title:       event.Summary,
		Description: event.Description,
		Status:      event.Status,
	}
	if event.Start != nil {
		resp.Start = event.Start.DateTime
		if resp.Start == "" {
			resp.Start = event.Start.Date
		}
	}
	if event.End != nil {
		resp.End = event.End.DateTime
		if resp.End == "" {
			resp.End = event.End.Date
		}
	}
	return resp
}

package controller

import (
	"net/http"

	coreController "calchat/core/controller"
	"calchat/core/errors"
	"calchat/core/middleware"
	"calchat/modules/chat/dto"
	"calchat/modules/chat/service"

	"github.com/labstack/echo/v4"
)

type ChatController struct {
	coreController.BaseController
	service service.ChatServiceInterface
}

func NewChatController(service service.ChatServiceInterface) *ChatController {
	return &ChatController{
		BaseController: coreController.NewBaseController(),
		service:        service,
	}
}

// Chat handles one conversational turn for the authenticated user.
// POST /api/v1/private/chat
func (c *ChatController) Chat(ctx echo.Context) error {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	var req dto.ChatRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.HandleTurn(ctx.Request().Context(), userID, req.Prompt)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusOK, result)
}

// ChatByPhone handles a turn for a user identified only by phone number.
// Serves channels that carry no bearer token.
// POST /api/v1/chat/by-phone
func (c *ChatController) ChatByPhone(ctx echo.Context) error {
	var req dto.ChatByPhoneRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.HandleTurnByPhone(ctx.Request().Context(), req.Phone, req.Prompt)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusOK, result)
}

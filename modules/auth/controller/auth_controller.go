package controller

import (
	"net/http"
	"strings"

	coreController "calchat/core/controller"
	"calchat/core/errors"
	"calchat/core/middleware"
	"calchat/modules/auth/dto"
	"calchat/modules/auth/service"

	"github.com/labstack/echo/v4"
)

type AuthController struct {
	coreController.BaseController
	service service.AuthServiceInterface
}

func NewAuthController(service service.AuthServiceInterface) *AuthController {
	return &AuthController{
		BaseController: coreController.NewBaseController(),
		service:        service,
	}
}

// Signup registers a new user by phone number.
// POST /api/v1/auth/signup
func (c *AuthController) Signup(ctx echo.Context) error {
	var req dto.SignupRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.Signup(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return ctx.JSON(http.StatusCreated, result)
}

// Login authenticates a user by phone and password.
// POST /api/v1/auth/login
func (c *AuthController) Login(ctx echo.Context) error {
	var req dto.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	result, appErr := c.service.Login(ctx.Request().Context(), &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, result, "login successful")
}

// Logout blacklists the presented bearer token.
// POST /api/v1/private/auth/logout
func (c *AuthController) Logout(ctx echo.Context) error {
	header := ctx.Request().Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return c.Unauthorized(errors.ErrMissingAuthorizationHeader, "missing bearer token")
	}

	if appErr := c.service.Logout(ctx.Request().Context(), token); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "logged out")
}

// Me returns the authenticated user's profile.
// GET /api/v1/private/auth/me
func (c *AuthController) Me(ctx echo.Context) error {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	user, appErr := c.service.GetUserByID(ctx.Request().Context(), userID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, dto.UserResponse{
		ID:             user.ID.String(),
		Phone:          user.Phone,
		Email:          user.Email,
		TimezoneOffset: user.TimezoneOffset,
	}, "")
}

// UpdateTimezone stores the user's UTC-offset string.
// PUT /api/v1/private/auth/timezone
func (c *AuthController) UpdateTimezone(ctx echo.Context) error {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return c.Unauthorized(errors.ErrUnauthorized, "invalid user")
	}

	var req dto.UpdateTimezoneRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, "invalid request body")
	}

	if appErr := c.service.UpdateTimezoneOffset(ctx.Request().Context(), userID, req.TimezoneOffset); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}
	return c.SuccessResponse(ctx, nil, "timezone updated")
}

package router

import (
	"calchat/core/middleware"
	"calchat/modules/auth/controller"

	"github.com/labstack/echo/v4"
)

type AuthRouter struct {
	controller *controller.AuthController
}

func NewAuthRouter(controller *controller.AuthController) *AuthRouter {
	return &AuthRouter{controller: controller}
}

func (r *AuthRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	authRoutes.POST("/signup", r.controller.Signup)
	authRoutes.POST("/login", r.controller.Login)

	privateRoutes := v1.Group("/private/auth")
	privateRoutes.Use(mw.AuthMiddleware())
	privateRoutes.POST("/logout", r.controller.Logout)
	privateRoutes.GET("/me", r.controller.Me)
	privateRoutes.PUT("/timezone", r.controller.UpdateTimezone)
}

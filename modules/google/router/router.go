package router

import (
	"calchat/core/middleware"
	"calchat/modules/google/controller"

	"github.com/labstack/echo/v4"
)

type GoogleRouter struct {
	controller *controller.GoogleController
}

func NewGoogleRouter(controller *controller.GoogleController) *GoogleRouter {
	return &GoogleRouter{controller: controller}
}

func (r *GoogleRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	googleRoutes := v1.Group("/google")
	googleRoutes.GET("/auth-url", r.controller.AuthURL)
	googleRoutes.GET("/callback", r.controller.Callback)

	privateRoutes := v1.Group("/private/google")
	privateRoutes.Use(mw.AuthMiddleware())
	privateRoutes.GET("/check-connection", r.controller.CheckConnection)
	privateRoutes.GET("/events", r.controller.ListEvents)
}

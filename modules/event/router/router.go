package router

import (
	"calchat/core/middleware"
	"calchat/modules/event/controller"

	"github.com/labstack/echo/v4"
)

type EventRouter struct {
	controller *controller.EventController
}

func NewEventRouter(controller *controller.EventController) *EventRouter {
	return &EventRouter{controller: controller}
}

func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	privateRoutes := v1.Group("/private/events")
	privateRoutes.Use(mw.AuthMiddleware())
	privateRoutes.GET("", r.controller.List)
}

package router

import (
	"calchat/core/middleware"
	"calchat/modules/chat/controller"

	"github.com/labstack/echo/v4"
)

type ChatRouter struct {
	controller *controller.ChatController
}

func NewChatRouter(controller *controller.ChatController) *ChatRouter {
	return &ChatRouter{controller: controller}
}

func (r *ChatRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")

	chatRoutes := v1.Group("/chat")
	chatRoutes.POST("/by-phone", r.controller.ChatByPhone)

	privateRoutes := v1.Group("/private")
	privateRoutes.Use(mw.AuthMiddleware())
	privateRoutes.POST("/chat", r.controller.Chat)
}

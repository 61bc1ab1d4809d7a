package chat

import (
	"calchat/core/database"
	"calchat/core/middleware"
	aiService "calchat/modules/ai/service"
	authRepository "calchat/modules/auth/repository"
	"calchat/modules/chat/controller"
	"calchat/modules/chat/repository"
	"calchat/modules/chat/router"
	"calchat/modules/chat/service"
	eventRepository "calchat/modules/event/repository"
	googleService "calchat/modules/google/service"
	notificationService "calchat/modules/notification/service"

	"github.com/labstack/echo/v4"
)

func Init(
	e *echo.Echo,
	db database.IDatabase,
	mw *middleware.Middleware,
	classifier aiService.AIServiceInterface,
	tokens googleService.TokenServiceInterface,
	notifier notificationService.NotifierInterface,
) *service.ChatService {
	messageRepo := repository.NewMessageRepository(db)
	eventRepo := eventRepository.NewEventRepository(db)
	userRepo := authRepository.NewUserRepository(db)

	svc := service.NewChatService(messageRepo, eventRepo, userRepo, classifier, tokens, notifier)
	ctrl := controller.NewChatController(svc)

	router.NewChatRouter(ctrl).Setup(e, mw)

	return svc
}

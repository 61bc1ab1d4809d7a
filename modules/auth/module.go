package auth

import (
	"calchat/core/cache"
	"calchat/core/database"
	"calchat/core/middleware"
	"calchat/modules/auth/controller"
	"calchat/modules/auth/repository"
	"calchat/modules/auth/router"
	"calchat/modules/auth/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.IDatabase, cache cache.Cache, mw *middleware.Middleware) *service.AuthService {
	repo := repository.NewUserRepository(db)
	svc := service.NewAuthService(repo, cache)
	ctrl := controller.NewAuthController(svc)

	router.NewAuthRouter(ctrl).Setup(e, mw)

	return svc
}

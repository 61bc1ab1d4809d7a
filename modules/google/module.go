package google

import (
	"calchat/core/cache"
	"calchat/core/database"
	"calchat/core/middleware"
	authRepository "calchat/modules/auth/repository"
	"calchat/modules/google/controller"
	"calchat/modules/google/repository"
	"calchat/modules/google/router"
	"calchat/modules/google/service"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.IDatabase, cache cache.Cache, mw *middleware.Middleware) *service.TokenService {
	tokenRepo := repository.NewTokenRepository(db)
	userRepo := authRepository.NewUserRepository(db)

	tokenSvc := service.NewTokenService(tokenRepo)
	oauthSvc := service.NewOAuthService(tokenRepo, userRepo, cache)

	ctrl := controller.NewGoogleController(oauthSvc, tokenSvc)
	router.NewGoogleRouter(ctrl).Setup(e, mw)

	return tokenSvc
}

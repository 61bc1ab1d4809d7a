package event

import (
	"calchat/core/database"
	"calchat/core/middleware"
	"calchat/modules/event/controller"
	"calchat/modules/event/repository"
	"calchat/modules/event/router"

	"github.com/labstack/echo/v4"
)

func Init(e *echo.Echo, db database.IDatabase, mw *middleware.Middleware) repository.EventRepository {
	repo := repository.NewEventRepository(db)
	ctrl := controller.NewEventController(repo)

	router.NewEventRouter(ctrl).Setup(e, mw)

	return repo
}

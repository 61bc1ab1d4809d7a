package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"calchat/core/cache"
	"calchat/core/errors"
	"calchat/core/utils"
)

const userIDContextKey = "user_id"

type Middleware struct {
	cache cache.Cache
}

func NewMiddleware(cache cache.Cache) *Middleware {
	return &Middleware{cache: cache}
}

// AuthMiddleware validates the bearer token and stores the user id on the
// request context.
func (m *Middleware) AuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, string(errors.ErrMissingAuthorizationHeader))
			}

			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, string(errors.ErrInvalidTokenFormat))
			}
			token := parts[1]

			if m.cache != nil {
				blacklisted, err := m.cache.IsTokenBlacklisted(c.Request().Context(), token)
				if err == nil && blacklisted {
					return echo.NewHTTPError(http.StatusUnauthorized, string(errors.ErrTokenExpired))
				}
			}

			claims, err := utils.ValidateAndParseToken(token)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, string(errors.ErrUnauthorized))
			}

			c.Set(userIDContextKey, claims.UserID)
			return next(c)
		}
	}
}

// GetUserID reads the authenticated user id set by AuthMiddleware.
func GetUserID(c echo.Context) (uuid.UUID, bool) {
	id, ok := c.Get(userIDContextKey).(uuid.UUID)
	return id, ok
}

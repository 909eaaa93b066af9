package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/service"
)

// TokenGateMiddleware reads the access token from X-AUTH-TOKEN and, when it
// validates, publishes the resolved identity into the request context. It
// never rejects a request: a missing or bad token just leaves the request
// anonymous, and the route's own authorization decides what that means.
// It must run before any RequireRole check.
func TokenGateMiddleware(auth *service.AuthService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := c.Request().Header.Get(models.AuthTokenHeader)
			if token == "" {
				return next(c)
			}

			identity, err := auth.Authenticate(c.Request().Context(), token)
			if err != nil {
				return next(c)
			}

			c.Set(models.IdentityContextKey, identity)
			return next(c)
		}
	}
}

// IdentityFrom returns the identity the token gate attached, if any.
func IdentityFrom(c echo.Context) (*models.Identity, bool) {
	identity, ok := c.Get(models.IdentityContextKey).(*models.Identity)
	return identity, ok
}

// RequireRole rejects anonymous requests with 401 and authenticated
// requests lacking the role with 403.
func RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, ok := IdentityFrom(c)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
			}
			if !identity.HasRole(role) {
				return echo.NewHTTPError(http.StatusForbidden, "access denied")
			}
			return next(c)
		}
	}
}

func GetLoggerMiddlewareConfig(a *API) echomiddleware.RequestLoggerConfig {
	return echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogError:     true,
		LogRequestID: true,

		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := []interface{}{
				"method", c.Request().Method,
				"uri", v.URI,
				"status", v.Status,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, zap.Error(v.Error))
				a.log.Errorw("Request", fields...)
			} else {
				a.log.Infow("Request", fields...)
			}
			return nil
		},
	}
}

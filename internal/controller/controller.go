package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/service"
)

type Controller struct {
	log         *zap.SugaredLogger
	authService *service.AuthService
	userService *service.UserService
	postService *service.PostService
}

func NewController(log *zap.SugaredLogger, authService *service.AuthService, userService *service.UserService, postService *service.PostService) *Controller {
	return &Controller{
		log:         log,
		authService: authService,
		userService: userService,
		postService: postService,
	}
}

// (GET /api/ping).
func (c *Controller) CheckServer(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, "ok")
}

// identity returns the gate-resolved identity. Routes behind RequireRole
// always have one; the nil check guards misregistered routes.
func identity(ctx echo.Context) (*models.Identity, error) {
	id, ok := ctx.Get(models.IdentityContextKey).(*models.Identity)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/util"
)

// (POST /api/signup).
func (c *Controller) Signup(ctx echo.Context) error {
	var req models.SignupRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid signup request: %v", err)
	}

	user, err := c.authService.Signup(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusCreated, user)
}

// (POST /api/login).
func (c *Controller) Login(ctx echo.Context) error {
	var req models.LoginRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid login request: %v", err)
	}

	pair, err := c.authService.Login(ctx.Request().Context(), req, ctx.RealIP())
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, pair)
}

// (POST /api/reissue).
func (c *Controller) Reissue(ctx echo.Context) error {
	var req models.SessionReissueRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid reissue request: %v", err)
	}

	pair, err := c.authService.Reissue(ctx.Request().Context(), req)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, pair)
}

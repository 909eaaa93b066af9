package controller

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/util"
)

// (GET /api/user/:id).
func (c *Controller) GetUser(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	user, err := c.userService.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, user)
}

// (GET /api/user?email=).
func (c *Controller) GetUserByEmail(ctx echo.Context) error {
	email := ctx.QueryParam("email")
	if email == "" {
		return util.NewResponseError(http.StatusBadRequest, "email query parameter is required")
	}

	user, err := c.userService.GetByEmail(ctx.Request().Context(), email)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, user)
}

// (GET /api/users).
func (c *Controller) ListUsers(ctx echo.Context) error {
	users, err := c.userService.List(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, users)
}

// (PUT /api/user/:id).
func (c *Controller) UpdateUser(ctx echo.Context) error {
	id, err := pathID(ctx)
	if err != nil {
		return err
	}

	var req models.UserUpdateRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid user update request: %v", err)
	}

	if err := c.userService.UpdateNickname(ctx.Request().Context(), id, req.Nickname); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, map[string]int64{"id": id})
}

func pathID(ctx echo.Context) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return 0, util.NewResponseError(http.StatusBadRequest, "invalid id: %s", ctx.Param("id"))
	}
	return id, nil
}

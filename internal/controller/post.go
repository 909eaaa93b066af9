package controller

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/util"
)

const (
	defaultPageSize     = 10
	defaultRadiusMeters = 3000
)

// (POST /api/post).
func (c *Controller) CreatePost(ctx echo.Context) error {
	id, err := identity(ctx)
	if err != nil {
		return err
	}

	var req models.PostCreateRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid post request: %v", err)
	}

	post, err := c.postService.CreatePost(ctx.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, post)
}

// (PUT /api/post).
func (c *Controller) UpdatePost(ctx echo.Context) error {
	id, err := identity(ctx)
	if err != nil {
		return err
	}

	var req models.PostUpdateRequest
	if err := ctx.Bind(&req); err != nil {
		return util.NewResponseError(http.StatusBadRequest, "invalid post update request: %v", err)
	}

	post, err := c.postService.UpdatePost(ctx.Request().Context(), id, req)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, post)
}

// (DELETE /api/post/:id).
func (c *Controller) DeletePost(ctx echo.Context) error {
	id, err := identity(ctx)
	if err != nil {
		return err
	}

	postID, err := pathID(ctx)
	if err != nil {
		return err
	}

	if err := c.postService.DeletePost(ctx.Request().Context(), id, postID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// (GET /api/post/:id).
func (c *Controller) GetPost(ctx echo.Context) error {
	postID, err := pathID(ctx)
	if err != nil {
		return err
	}

	post, err := c.postService.GetPost(ctx.Request().Context(), postID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, post)
}

// (GET /api/posts?page=&size=).
func (c *Controller) ListPosts(ctx echo.Context) error {
	page, size := pagination(ctx)

	posts, err := c.postService.ListPosts(ctx.Request().Context(), page, size)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, posts)
}

// (GET /api/posts/search?keyword=&page=&size=).
func (c *Controller) SearchPosts(ctx echo.Context) error {
	keyword := ctx.QueryParam("keyword")
	if keyword == "" {
		return util.NewResponseError(http.StatusBadRequest, "keyword query parameter is required")
	}
	page, size := pagination(ctx)

	posts, err := c.postService.SearchPosts(ctx.Request().Context(), keyword, page, size)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, posts)
}

// (GET /api/posts/near?lat=&lng=&radius=).
func (c *Controller) ListPostsNear(ctx echo.Context) error {
	lat, err := queryFloat(ctx, "lat")
	if err != nil {
		return err
	}
	lng, err := queryFloat(ctx, "lng")
	if err != nil {
		return err
	}

	radius := float64(defaultRadiusMeters)
	if v := ctx.QueryParam("radius"); v != "" {
		if radius, err = strconv.ParseFloat(v, 64); err != nil {
			return util.NewResponseError(http.StatusBadRequest, "invalid radius: %s", v)
		}
	}

	posts, err := c.postService.ListPostsNear(ctx.Request().Context(), lat, lng, radius)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, posts)
}

func pagination(ctx echo.Context) (page, size int) {
	size = defaultPageSize
	if v := ctx.QueryParam("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p >= 0 {
			page = p
		}
	}
	if v := ctx.QueryParam("size"); v != "" {
		if s, err := strconv.Atoi(v); err == nil && s > 0 {
			size = s
		}
	}
	return page, size
}

func queryFloat(ctx echo.Context, name string) (float64, error) {
	v := ctx.QueryParam(name)
	if v == "" {
		return 0, util.NewResponseError(http.StatusBadRequest, "%s query parameter is required", name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, util.NewResponseError(http.StatusBadRequest, "invalid %s: %s", name, v)
	}
	return f, nil
}

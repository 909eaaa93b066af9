package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/junekoh/mealmeet/internal/service"
	"github.com/junekoh/mealmeet/internal/storage"
	"github.com/junekoh/mealmeet/internal/util"
)

type errorResponse struct {
	Reason string `json:"reason"`
}

// ErrorHandler maps service and storage sentinels onto HTTP statuses.
// Anything unrecognized becomes a generic 500: logged in full, never
// detailed to the caller.
func ErrorHandler(log *zap.SugaredLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		if status, ok := statusFor(err); ok {
			writeJSON(log, c, status, err.Error())
			return
		}

		var respErr util.ResponseError
		if errors.As(err, &respErr) {
			writeJSON(log, c, respErr.Status, respErr.Msg)
			return
		}

		var he *echo.HTTPError
		if errors.As(err, &he) {
			if he.Code == http.StatusInternalServerError {
				log.Errorw("HTTP error", "error", err, "uri", c.Request().RequestURI)
			}
			msg, ok := he.Message.(string)
			if !ok {
				msg = http.StatusText(he.Code)
			}
			writeJSON(log, c, he.Code, msg)
			return
		}

		log.Errorw("unhandled error", "error", err, "uri", c.Request().RequestURI)
		writeJSON(log, c, http.StatusInternalServerError, "internal server error")
	}
}

func statusFor(err error) (int, bool) {
	switch {
	case isUnauthorizedTokenError(err):
		return http.StatusUnauthorized, true
	case errors.Is(err, service.ErrLoginFailed):
		return http.StatusConflict, true
	case errors.Is(err, service.ErrPostEditNotAllowed):
		return http.StatusForbidden, true
	case errors.Is(err, storage.ErrRateLimited):
		return http.StatusTooManyRequests, true
	case errors.Is(err, storage.ErrUserNotFound),
		errors.Is(err, storage.ErrEmailAlreadyExists),
		errors.Is(err, storage.ErrPostNotFound),
		errors.Is(err, storage.ErrLocationNotFound):
		return http.StatusBadRequest, true
	}
	return 0, false
}

func isUnauthorizedTokenError(err error) bool {
	return errors.Is(err, service.ErrTokenExpired) ||
		errors.Is(err, service.ErrTokenInvalid) ||
		errors.Is(err, service.ErrTokenMalformed) ||
		errors.Is(err, service.ErrInvalidSubject) ||
		errors.Is(err, service.ErrMissingRolesClaim) ||
		errors.Is(err, service.ErrRefreshExpiredOrForged) ||
		errors.Is(err, service.ErrRefreshMismatch)
}

func writeJSON(log *zap.SugaredLogger, c echo.Context, status int, reason string) {
	if err := c.JSON(status, errorResponse{Reason: reason}); err != nil {
		log.Errorw("failed to write json response", "error", err)
	}
}

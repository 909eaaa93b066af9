package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/service"
	"github.com/junekoh/mealmeet/internal/storage"
	"github.com/junekoh/mealmeet/internal/storage/memory"
	"github.com/junekoh/mealmeet/internal/util"
)

type gateAuthStorage struct {
	*memory.UserStore
	*memory.RefreshTokenStore
}

type gateFixture struct {
	e    *echo.Echo
	auth *service.AuthService
	user *models.User
}

// newGateFixture wires the token gate and a couple of guarded routes onto a
// bare echo instance backed by in-memory stores.
func newGateFixture(t *testing.T) *gateFixture {
	t.Helper()

	tokens := service.NewTokenService(&util.TokenConfig{
		JwtSecretKey: []byte("test-signing-key"),
		AccessTTL:    time.Hour,
		RefreshTTL:   14 * 24 * time.Hour,
	})
	users := memory.NewUserStore()
	auth := service.NewAuthService(tokens, gateAuthStorage{
		UserStore:         users,
		RefreshTokenStore: memory.NewRefreshTokenStore(),
	}, nil, zap.NewNop().Sugar())

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter22"), bcrypt.MinCost)
	require.NoError(t, err)
	user, err := users.CreateUser(context.Background(), models.User{
		Email:        "june@example.com",
		PasswordHash: string(hash),
		Name:         "June",
		Nickname:     "june",
		Roles:        []string{models.RoleUser},
	})
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(zap.NewNop().Sugar())
	e.Use(TokenGateMiddleware(auth))

	whoami := func(c echo.Context) error {
		identity, ok := IdentityFrom(c)
		if !ok {
			return c.String(http.StatusOK, "anonymous")
		}
		return c.String(http.StatusOK, fmt.Sprintf("user %d", identity.UserID))
	}
	e.GET("/open", whoami)
	e.GET("/member", whoami, RequireRole(models.RoleUser))
	e.GET("/admin", whoami, RequireRole("ADMIN"))

	return &gateFixture{e: e, auth: auth, user: user}
}

func (f *gateFixture) request(t *testing.T, path, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set(models.AuthTokenHeader, token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func (f *gateFixture) accessToken(t *testing.T) string {
	t.Helper()

	pair, err := f.auth.CreateSession(context.Background(), f.user)
	require.NoError(t, err)
	return pair.AccessToken
}

func TestGatePassesAnonymousThrough(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)

	rec := f.request(t, "/open", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestGateAttachesIdentity(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)

	rec := f.request(t, "/open", f.accessToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fmt.Sprintf("user %d", f.user.ID), rec.Body.String())
}

// A garbage token is indistinguishable from no token at the gate; the route
// guard is what turns anonymity into a rejection.
func TestGateTreatsBadTokenAsAnonymous(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)

	rec := f.request(t, "/open", "not.a.token")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = f.request(t, "/member", "not.a.token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAnonymous(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)

	rec := f.request(t, "/member", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"reason":"authentication required"}`, rec.Body.String())
}

func TestRequireRoleWrongRole(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)

	rec := f.request(t, "/admin", f.accessToken(t))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"reason":"access denied"}`, rec.Body.String())
}

func TestRequireRoleAuthorized(t *testing.T) {
	t.Parallel()
	f := newGateFixture(t)

	rec := f.request(t, "/member", f.accessToken(t))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, fmt.Sprintf("user %d", f.user.ID), rec.Body.String())
}

func TestErrorHandlerStatusMapping(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		err    error
		status int
		reason string
	}{
		{"expired token", service.ErrTokenExpired, http.StatusUnauthorized, service.ErrTokenExpired.Error()},
		{"refresh mismatch", service.ErrRefreshMismatch, http.StatusUnauthorized, service.ErrRefreshMismatch.Error()},
		{"login failed", service.ErrLoginFailed, http.StatusConflict, service.ErrLoginFailed.Error()},
		{"not the creator", service.ErrPostEditNotAllowed, http.StatusForbidden, service.ErrPostEditNotAllowed.Error()},
		{"rate limited", storage.ErrRateLimited, http.StatusTooManyRequests, storage.ErrRateLimited.Error()},
		{"duplicate email", storage.ErrEmailAlreadyExists, http.StatusBadRequest, storage.ErrEmailAlreadyExists.Error()},
		{"post not found", storage.ErrPostNotFound, http.StatusBadRequest, storage.ErrPostNotFound.Error()},
		{"bind failure", util.NewResponseError(http.StatusBadRequest, "invalid request body"), http.StatusBadRequest, "invalid request body"},
		{"unknown error", errors.New("pq: connection refused"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			e := echo.New()
			e.HTTPErrorHandler = ErrorHandler(zap.NewNop().Sugar())
			e.GET("/boom", func(c echo.Context) error { return tc.err })

			req := httptest.NewRequest(http.MethodGet, "/boom", nil)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"reason":%q}`, tc.reason), rec.Body.String())
		})
	}
}

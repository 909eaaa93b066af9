package api

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/junekoh/mealmeet/internal/controller"
	"github.com/junekoh/mealmeet/internal/models"
	"github.com/junekoh/mealmeet/internal/service"
	"github.com/junekoh/mealmeet/internal/util"
)

const shutdownTimeout = 5 * time.Second

type API struct {
	server          *echo.Echo
	controller      *controller.Controller
	authService     *service.AuthService
	log             *zap.SugaredLogger
	gracefulTimeout time.Duration
	cleanupFuncs    []func()
}

func NewAPI(c *controller.Controller, authService *service.AuthService, sc *util.ServerConfig, l *zap.SugaredLogger, cleanupFuncs []func()) *API {
	e := echo.New()

	e.Server.Addr = sc.ServerAddr
	e.Server.WriteTimeout = sc.WriteTimeout
	e.Server.ReadTimeout = sc.ReadTimeout
	e.Server.IdleTimeout = sc.IdleTimeout
	e.HTTPErrorHandler = ErrorHandler(l)

	return &API{
		server:          e,
		controller:      c,
		authService:     authService,
		log:             l,
		gracefulTimeout: sc.GracefulTimeout,
		cleanupFuncs:    cleanupFuncs,
	}
}

func (a *API) Run(ctxBackground context.Context) {
	ctx, stop := signal.NotifyContext(ctxBackground, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.server.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	a.server.Use(echomiddleware.RequestLoggerWithConfig(GetLoggerMiddlewareConfig(a)))
	// The token gate runs on every route, before any authorization check.
	a.server.Use(TokenGateMiddleware(a.authService))

	a.registerRoutes()

	a.ListenGracefulShutdown(ctx)
}

func (a *API) registerRoutes() {
	g := a.server.Group("/api")

	g.GET("/ping", a.controller.CheckServer)
	g.POST("/signup", a.controller.Signup)
	g.POST("/login", a.controller.Login)
	g.POST("/reissue", a.controller.Reissue)

	// Everything else requires an authenticated USER.
	protected := g.Group("", RequireRole(models.RoleUser))
	protected.GET("/users", a.controller.ListUsers)
	protected.GET("/user", a.controller.GetUserByEmail)
	protected.GET("/user/:id", a.controller.GetUser)
	protected.PUT("/user/:id", a.controller.UpdateUser)

	protected.POST("/post", a.controller.CreatePost)
	protected.PUT("/post", a.controller.UpdatePost)
	protected.DELETE("/post/:id", a.controller.DeletePost)
	protected.GET("/post/:id", a.controller.GetPost)
	protected.GET("/posts", a.controller.ListPosts)
	protected.GET("/posts/search", a.controller.SearchPosts)
	protected.GET("/posts/near", a.controller.ListPostsNear)
}

func (a *API) ListenGracefulShutdown(ctx context.Context) {
	go func() {
		err := a.server.Start(a.server.Server.Addr)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()
	a.log.Infof("Listening on: %s", a.server.Server.Addr)

	<-ctx.Done()
	a.log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := a.server.Shutdown(shutdownCtx)
	if err != nil {
		a.log.Errorf("shutdown: %v", err)
	}

	longShutdown := make(chan struct{}, 1)

	go func() {
		time.Sleep(a.gracefulTimeout)
		longShutdown <- struct{}{}
	}()

	select {
	case <-shutdownCtx.Done():
		if errors.Is(ctx.Err(), context.Canceled) {
			a.log.Info("server shutdown completed")
		} else {
			a.log.Errorf("server shutdown: %v", ctx.Err())
		}
	case <-longShutdown:
		a.log.Infof("finished")
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}
}

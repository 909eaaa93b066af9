package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/junekoh/mealmeet/internal/api"
	"github.com/junekoh/mealmeet/internal/controller"
	"github.com/junekoh/mealmeet/internal/migrations"
	"github.com/junekoh/mealmeet/internal/service"
	"github.com/junekoh/mealmeet/internal/storage/postgres"
	redisstorage "github.com/junekoh/mealmeet/internal/storage/redis"
	"github.com/junekoh/mealmeet/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()

	db, dbCleanup, err := util.NewDBConnection(logger)
	if err != nil {
		logger.Fatal(zap.Error(err))
	}
	if err := migrations.RunMigrations(db, logger, "./internal/migrations"); err != nil {
		logger.Fatal(zap.Error(err))
	}

	redisClient, redisCleanup, err := util.NewRedisClient(logger, util.NewRedisConfig())
	if err != nil {
		logger.Fatal(zap.Error(err))
	}

	store := postgres.NewStorage(db)
	cleanupFuncs := []func(){dbCleanup, redisCleanup}

	loginLimiter := redisstorage.NewLoginAttemptLimiter(redisClient, util.NewLoginLimiterConfig())
	tokenService := service.NewTokenService(util.NewTokenConfig())
	authService := service.NewAuthService(tokenService, store, loginLimiter, logger)
	userService := service.NewUserService(store, logger)
	postService := service.NewPostService(store, logger)

	ctrl := controller.NewController(logger, authService, userService, postService)

	apiServer := api.NewAPI(ctrl, authService, util.NewServerConfig(), logger, cleanupFuncs)
	apiServer.Run(ctx)
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/trove-market/trove/internal/app"
	"github.com/trove-market/trove/internal/auth"
	"github.com/trove-market/trove/internal/historic"
	"github.com/trove-market/trove/internal/items"
	"github.com/trove-market/trove/internal/observability"
	"github.com/trove-market/trove/internal/platform/cache"
	"github.com/trove-market/trove/internal/platform/db"
	"github.com/trove-market/trove/internal/tags"
	"github.com/trove-market/trove/internal/uploads"
	"github.com/trove-market/trove/internal/users"
	"github.com/trove-market/trove/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		// keep serving without the tag cache; listings fall through to postgres
		logger.Warn("redis ping", slog.Any("error", err))
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := asynqClient.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.PassTokenTTL)
	if err != nil {
		logger.Error("init token manager", slog.Any("error", err))
		os.Exit(1)
	}

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)
	usersHandler := users.NewHandler(logger, usersService)

	authService := auth.NewService(usersRepo, tokens)
	authHandler := auth.NewHandler(logger, authService)
	authMiddleware := auth.Middleware{Tokens: tokens, Users: usersRepo, Logger: logger}

	tagsRepo := tags.NewRepository(pool)
	tagsCache := tags.NewCache(redisClient, 10*time.Minute)
	tagsService := tags.NewService(tagsRepo, tagsCache)
	tagsHandler := tags.NewHandler(logger, tagsService)

	ledgerRepo := historic.NewRepository(pool)
	ledgerService := historic.NewService(logger, ledgerRepo)

	imageStore := uploads.NewClient(cfg.ImageStoreURL, cfg.ImageStoreAPIKey, cfg.ImageStoreTimeout)
	cleanup := jobs.NewEnqueuer(asynqClient)

	itemsRepo := items.NewRepository(pool, ledgerRepo)
	itemsService := items.NewService(logger, itemsRepo, tagsService, imageStore, cleanup, cfg.ItemDefaultImage)
	itemsHandler := items.NewHandler(logger, itemsService, ledgerService)

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:       logger,
		Config:       cfg,
		Auth:         authMiddleware,
		AuthHandler:  authHandler,
		ItemsHandler: itemsHandler,
		TagsHandler:  tagsHandler,
		UsersHandler: usersHandler,
		Metrics:      metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exit", slog.Any("error", err))
		os.Exit(1)
	}
}

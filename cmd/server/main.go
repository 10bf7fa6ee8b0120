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

	"github.com/SAP-F-2025/quizhub-practice/internal/cache"
	"github.com/SAP-F-2025/quizhub-practice/internal/config"
	"github.com/SAP-F-2025/quizhub-practice/internal/events"
	"github.com/SAP-F-2025/quizhub-practice/internal/handlers"
	"github.com/SAP-F-2025/quizhub-practice/internal/quizapi"
	"github.com/SAP-F-2025/quizhub-practice/internal/repositories"
	"github.com/SAP-F-2025/quizhub-practice/internal/repositories/postgres"
	"github.com/SAP-F-2025/quizhub-practice/internal/services"
	"github.com/SAP-F-2025/quizhub-practice/internal/utils"
	"github.com/SAP-F-2025/quizhub-practice/pkg"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logger := utils.NewDevelopmentLogger()
	if cfg.IsProduction() {
		logger = utils.NewDefaultLogger()
		gin.SetMode(gin.ReleaseMode)
	}
	slogger := utils.ToSlogLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.Error("Failed to create event publisher, falling back to mock", "error", err)
		publisher = events.NewMockEventPublisher(slogger)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Failed to close event publisher", "error", err)
		}
	}()

	client := quizapi.New(quizapi.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  slogger,
		OnUnauthenticated: func(ctx context.Context, principal, method, path string, statusCode int) {
			if err := publisher.PublishEvent(ctx, events.NewUnauthenticatedEvent(principal, method, path, statusCode)); err != nil {
				logger.Warn("Failed to publish unauthenticated event", "error", err)
			}
		},
	})

	var store services.SessionStore
	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Warn("Redis unavailable, sessions will not survive a restart", "error", err)
	} else {
		defer redisClient.Close()
		store = services.NewCacheSessionStore(cache.NewRedisCache(redisClient, slogger), cfg.Session.SnapshotTTL)
	}

	var archive repositories.AttemptArchiveRepository
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Warn("Database unavailable, attempt archive disabled", "error", err)
	} else {
		archive = postgres.NewAttemptArchivePostgreSQL(db)
	}

	attempts := services.NewAttemptService(archive, services.NewExportService(slogger), slogger)
	serviceManager := services.NewDefaultServiceManager(store, attempts, services.SessionDeps{
		Publisher: publisher,
		Logger:    slogger,
	}, cfg.Session.IdleTimeout, slogger)
	sessions := serviceManager.Sessions()

	if channel, ok := publisher.(*events.ChannelEventPublisher); ok {
		if err := startConsumer(ctx, channel, sessions, slogger); err != nil {
			logger.Error("Failed to subscribe to events", "error", err)
		}
	}

	scheduler, err := startScheduler(ctx, cfg, serviceManager, logger)
	if err != nil {
		logger.Error("Failed to schedule background jobs", "error", err)
		os.Exit(1)
	}

	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(logger))

	api := func(token, principal string) services.RemoteAPI {
		return client.WithToken(token, principal)
	}
	verifier := handlers.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.JWTAlgorithm)
	handlers.NewHandlerManager(serviceManager, api, verifier, logger).SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server is starting", "addr", server.Addr, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ListenAndServe error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	<-scheduler.Stop().Done()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown", "error", err)
	}
	sessions.Shutdown(shutdownCtx)
	logger.Info("HTTP server exited properly")
}

// startConsumer reacts to in-process events. A rejected token drops the
// learner's cached bookmarks so they are reloaded after signing in again.
func startConsumer(ctx context.Context, channel *events.ChannelEventPublisher, sessions *services.SessionManager, logger *slog.Logger) error {
	messages, err := channel.Subscribe(ctx)
	if err != nil {
		return err
	}

	consumer := events.NewConsumer(logger)
	consumer.Handle(events.EventUnauthenticated, func(ctx context.Context, event *events.Event) error {
		var data events.UnauthenticatedEvent
		if err := events.DecodeData(event, &data); err != nil {
			return err
		}
		if data.Principal != "" {
			sessions.ForgetBookmarks(data.Principal)
		}
		return nil
	})
	go consumer.Run(ctx, messages)
	return nil
}

func startScheduler(ctx context.Context, cfg *config.Config, serviceManager services.ServiceManager, logger utils.Logger) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(time.UTC))

	if _, err := c.AddFunc(cfg.Session.EvictionSchedule, func() {
		serviceManager.Sessions().EvictIdle(ctx)
	}); err != nil {
		return nil, err
	}

	if cfg.Archive.Retention > 0 {
		if _, err := c.AddFunc(cfg.Archive.PruneSchedule, func() {
			if _, err := serviceManager.Attempts().PruneArchive(ctx, cfg.Archive.Retention); err != nil {
				logger.Error("Failed to prune attempt archive", "error", err)
			}
		}); err != nil {
			return nil, err
		}
	}

	c.Start()
	logger.Info("Background jobs scheduled",
		"eviction_schedule", cfg.Session.EvictionSchedule,
		"archive_retention", cfg.Archive.Retention.String())
	return c, nil
}

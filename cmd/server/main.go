package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"garage-backend/internal/api/middleware"
	"garage-backend/internal/api/routes"
	"garage-backend/internal/config"
	"garage-backend/internal/metrics"
	"garage-backend/internal/models"
	"garage-backend/internal/notify"
	"garage-backend/internal/repository"
	"garage-backend/internal/services"
	"garage-backend/internal/websocket"
	"garage-backend/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatal("Failed to create logger: ", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := models.SetLocale(cfg.Locale); err != nil {
		logger.Warn("unsupported locale, keeping pt-BR", zap.String("locale", cfg.Locale), zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closer, err := repository.NewStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open storage", zap.String("driver", cfg.Storage.Driver), zap.Error(err))
	}
	defer func() { _ = closer.Close() }()

	// Notifications go to the log and the feed; the feed pushes to websocket clients.
	hub := websocket.NewHub(logger, cfg.AllowedOrigins)
	hub.Start()
	defer hub.Stop()

	feed := notify.NewFeed(cfg.NotificationBuffer)
	feed.Subscribe(hub.Publish)
	notifier := notify.Fanout{notify.NewLogNotifier(logger), feed}

	var m *metrics.Metrics
	garageOpts := []services.Option{services.WithLogger(logger)}
	if cfg.MetricsEnabled {
		m = metrics.New()
		notifier = append(notifier, m)
		garageOpts = append(garageOpts, services.WithSaveObserver(m))
	}
	garageOpts = append(garageOpts, services.WithNotifier(notifier))

	garage := services.NewGarage(store, garageOpts...)
	if _, err := garage.Load(ctx); err != nil {
		logger.Error("failed to load garage, starting empty", zap.Error(err))
	}

	reminders := services.NewReminderScheduler(garage, notifier, cfg.Reminder, services.WithReminderLogger(logger))
	if err := reminders.Start(); err != nil {
		logger.Fatal("failed to start reminder scheduler", zap.Error(err))
	}
	defer reminders.Stop()

	limit := ratelimit.Limit{RequestsPerSecond: cfg.RateLimitRPS, Burst: cfg.RateLimitBurst}
	var limiter ratelimit.Limiter
	if rs, ok := store.(*repository.RedisStore); ok {
		limiter = ratelimit.NewRedisLimiter(rs.Client().GetClient(), limit, cfg.Redis.KeyPrefix)
	} else {
		memory := ratelimit.NewMemoryLimiter(limit)
		go memory.Run(ctx, 5*time.Minute)
		limiter = memory
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	if m != nil {
		router.Use(m.Middleware())
	}

	// CORS middleware
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol"},
		ExposeHeaders: []string{"Content-Length", "Retry-After"},
	}

	// Handle wildcard origin for development
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}

	router.Use(cors.New(corsConfig))
	router.Use(middleware.RateLimitMiddleware(limiter, logger))

	routes.SetupRoutes(router, routes.Dependencies{
		Garage:  garage,
		Store:   store,
		Driver:  cfg.Storage.Driver,
		Feed:    feed,
		Hub:     hub,
		Actions: cfg.Actions,
		Metrics: m,
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

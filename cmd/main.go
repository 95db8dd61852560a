package main

import (
	"context"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/duynhne/callerid-service/config"
	database "github.com/duynhne/callerid-service/internal/core"
	"github.com/duynhne/callerid-service/internal/core/domain"
	"github.com/duynhne/callerid-service/internal/core/events"
	logicv1 "github.com/duynhne/callerid-service/internal/logic/v1"
	v1 "github.com/duynhne/callerid-service/internal/web/v1"
	"github.com/duynhne/callerid-service/middleware"
)

func main() {
	// Load configuration from environment variables (with .env file support for local dev)
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		panic("Configuration validation failed: " + err.Error())
	}

	logger, err := middleware.NewLogger(cfg.Logging)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	logger.Info("Service starting",
		zap.String("service", cfg.Service.Name),
		zap.String("version", cfg.Service.Version),
		zap.String("env", cfg.Service.Env),
		zap.String("port", cfg.Service.Port),
	)

	var tp interface{ Shutdown(context.Context) error }
	if cfg.Tracing.Enabled {
		provider, err := middleware.InitTracing(cfg)
		if err != nil {
			logger.Warn("Failed to initialize tracing", zap.Error(err))
		} else {
			tp = provider
			logger.Info("Tracing initialized",
				zap.String("endpoint", cfg.Tracing.Endpoint),
				zap.Float64("sample_rate", cfg.Tracing.SampleRate),
			)
		}
	} else {
		logger.Info("Tracing disabled (TRACING_ENABLED=false)")
	}

	if cfg.Profiling.Enabled {
		if err := middleware.InitProfiling(cfg.Profiling); err != nil {
			logger.Warn("Failed to initialize profiling", zap.Error(err))
		} else {
			logger.Info("Profiling initialized", zap.String("endpoint", cfg.Profiling.Endpoint))
			defer middleware.StopProfiling()
		}
	} else {
		logger.Info("Profiling disabled (PROFILING_ENABLED=false)")
	}

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := database.Open(startupCtx, cfg, logger)
	cancelStartup()
	if err != nil {
		logger.Fatal("Failed to open directory store", zap.Error(err))
	}
	defer store.Close()

	var publisher domain.ReportPublisher
	var producer *events.Producer
	if cfg.Kafka.Enabled() {
		producer = events.NewProducer(cfg.Kafka)
		publisher = producer
		logger.Info("Spam report events enabled",
			zap.String("broker", cfg.Kafka.Broker),
			zap.String("topic", cfg.Kafka.Topic),
		)
	}

	tokens := middleware.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	handlers := v1.Handlers{
		Auth:     v1.NewAuthHandler(logicv1.NewAuthService(store.Accounts, tokens)),
		Search:   v1.NewSearchHandler(logicv1.NewSearchService(store.Directory, store.Reports, store.Accounts)),
		Spam:     v1.NewSpamReportHandler(logicv1.NewSpamService(store.Reports, publisher, logger)),
		Contacts: v1.NewContactHandler(logicv1.NewContactService(store.Contacts, store.Reports)),
	}

	var limits v1.Limiters
	if cfg.RateLimit.Enabled {
		limits = v1.Limiters{
			Anonymous:     middleware.NewRateLimiter("anonymous", cfg.RateLimit.AnonPerMinute, time.Minute),
			Authenticated: middleware.NewRateLimiter("authenticated", cfg.RateLimit.UserPerMinute, time.Minute),
			Login:         middleware.NewSlidingWindowLimiter("login", cfg.RateLimit.LoginPerHour, time.Hour),
		}
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	var isShuttingDown atomic.Bool

	// Tracing middleware (must be first for context propagation)
	r.Use(middleware.TracingMiddleware())

	// Logging middleware (must be before Prometheus middleware)
	r.Use(middleware.LoggingMiddleware(logger))

	if cfg.Metrics.Enabled {
		r.Use(middleware.PrometheusMiddleware())
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Returns 503 once shutdown has started, to drain traffic before HTTP shutdown.
	r.GET("/ready", func(c *gin.Context) {
		if isShuttingDown.Load() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "shutting_down"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database_unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "store": store.Backend()})
	})

	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	v1.RegisterRoutes(r.Group("/api/v1"), handlers, middleware.AuthMiddleware(tokens, logger), limits)

	srv := &http.Server{
		Addr:              ":" + cfg.Service.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting callerid service", zap.String("port", cfg.Service.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	// Fail readiness first and wait for propagation.
	isShuttingDown.Store(true)
	drainDelay := cfg.ReadinessDrainDelay
	if drainDelay > 0 {
		logger.Info("Readiness drain delay started", zap.Duration("delay", drainDelay))
		time.Sleep(drainDelay)
	}

	shutdownTimeout := cfg.ShutdownTimeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	logger.Info("Shutting down server...", zap.Duration("timeout", shutdownTimeout))

	// Order: HTTP server, event producer, store, tracer
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		logger.Info("HTTP server shutdown complete")
	}

	if err := producer.Close(); err != nil {
		logger.Error("Event producer close error", zap.Error(err))
	}

	store.Close()
	logger.Info("Directory store closed", zap.String("backend", store.Backend()))

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("Tracer shutdown error", zap.Error(err))
		} else {
			logger.Info("Tracer shutdown complete")
		}
	}

	logger.Info("Graceful shutdown complete")
}

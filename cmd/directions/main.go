package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/richxcame/map-directions/internal/directions"
	"github.com/richxcame/map-directions/internal/mapview"
	"github.com/richxcame/map-directions/internal/routes"
	"github.com/richxcame/map-directions/internal/session"
	"github.com/richxcame/map-directions/pkg/cache"
	"github.com/richxcame/map-directions/pkg/common"
	"github.com/richxcame/map-directions/pkg/config"
	"github.com/richxcame/map-directions/pkg/errors"
	"github.com/richxcame/map-directions/pkg/eventbus"
	"github.com/richxcame/map-directions/pkg/health"
	"github.com/richxcame/map-directions/pkg/logger"
	"github.com/richxcame/map-directions/pkg/middleware"
	"github.com/richxcame/map-directions/pkg/polyline"
	redisclient "github.com/richxcame/map-directions/pkg/redis"
	"github.com/richxcame/map-directions/pkg/tracing"
	ws "github.com/richxcame/map-directions/pkg/websocket"
	"go.uber.org/zap"
)

const (
	serviceName = "directions-service"
	version     = "1.0.0"

	computeRoutesPath = "/api/v1/directions/routes"
	wsPath            = "/api/v1/directions/ws"
)

var probePaths = []string{"/healthz", "/health/live", "/health/ready", "/metrics"}

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if err := logger.Init(cfg.Server.Environment, cfg.Server.LogLevel); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("Starting directions service",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	// Initialize Sentry for error tracking
	if err := errors.InitSentry(cfg); err != nil {
		logger.Warn("Failed to initialize Sentry, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
		logger.Info("Sentry error tracking initialized successfully")
	}

	// Initialize OpenTelemetry tracer
	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ConfigFrom(cfg), logger.Get())
		if err != nil {
			logger.Warn("Failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Failed to shutdown tracer", zap.Error(err))
				}
			}()
			logger.Info("OpenTelemetry tracing initialized successfully")
		}
	}

	decoder, err := polyline.NewDecoder(cfg.Directions.PolylinePrecision)
	if err != nil {
		logger.Fatal("Invalid polyline precision", zap.Error(err))
	}

	client := routes.NewClientFromConfig(cfg)
	if err := client.Configured(); err != nil {
		logger.Warn("Routing service is not configured, route requests will be skipped", zap.Error(err))
	}
	if breaker := client.Breaker(); breaker != nil {
		settings := cfg.Resilience.CircuitBreaker.SettingsFor(breaker.Name())
		logger.Info("Circuit breaker configured for routing service",
			zap.Int("failure_threshold", settings.FailureThreshold),
			zap.Int("success_threshold", settings.SuccessThreshold),
			zap.Int("timeout_seconds", settings.TimeoutSeconds),
			zap.Int("interval_seconds", settings.IntervalSeconds),
		)
	}

	var (
		fetcher     routes.Fetcher = client
		redisClient *redisclient.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = redisclient.NewRedisClient(&cfg.Redis, cfg.Timeout)
		if err != nil {
			logger.Warn("Failed to connect to redis, route caching disabled", zap.Error(err))
		} else {
			defer func() {
				if err := redisClient.Close(); err != nil {
					logger.Warn("Failed to close redis client", zap.Error(err))
				}
			}()
			ttl := time.Duration(cfg.Directions.CacheTTLSeconds) * time.Second
			fetcher = routes.NewCachedFetcher(client, cache.NewManager(redisClient, "directions"), ttl, cfg.Directions.FieldMask)
			logger.Info("Route caching enabled", zap.String("redis", cfg.Redis.RedisAddr()))
		}
	}

	var (
		publisher eventbus.Publisher = eventbus.NopPublisher{}
		bus       *eventbus.Bus
	)
	if cfg.Events.Enabled {
		bus, err = eventbus.New(eventbus.ConfigFrom(cfg.Events, serviceName))
		if err != nil {
			logger.Warn("Failed to connect to NATS, continuing without events", zap.Error(err))
			bus = nil
		} else {
			defer bus.Close()
			publisher = bus
		}
	}

	viewOpts := append(mapview.ConfigOptions(cfg.View), mapview.WithDecoder(decoder))

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hub := ws.NewHub(ws.WithIdleTimeout(cfg.Timeout.WebSocketConnectionTimeoutDuration()))
	go hub.Run(hubCtx)

	sessionService := session.NewService(hub, fetcher, publisher, ws.NewUpgrader(cfg.Server.AllowedOrigins()), viewOpts...)
	directionsHandler := directions.NewHandler(directions.NewService(fetcher, viewOpts...))

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.SentryMiddleware())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(serviceName, probePaths...))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins()))
	router.Use(middleware.Metrics(serviceName))

	if cfg.Tracing.Enabled {
		router.Use(middleware.TracingMiddleware(serviceName, append(probePaths, wsPath)...))
	}

	// Add Sentry error handler (should be near the end of middleware chain)
	router.Use(middleware.ErrorHandler())

	// Health check endpoints
	router.GET("/healthz", common.HealthCheck(serviceName, version))
	router.GET("/health/live", common.LivenessProbe(serviceName, version))

	// Readiness probe with dependency checks
	healthChecks := map[string]func() error{
		"routes_api": func() error { return client.Configured() },
	}
	deepChecker := health.NewDeepChecker(health.DeepCheckerConfig{
		Version:  version,
		Timeout:  cfg.Timeout.RedisOperationTimeoutDuration(),
		CacheTTL: 10 * time.Second,
	})
	deepChecker.AddDependency("routes_api", client.Configured, true)
	if breaker := client.Breaker(); breaker != nil {
		healthChecks["routes_breaker"] = health.BreakerChecker(breaker)
		deepChecker.AddCircuitBreaker(breaker.Name(), breaker)
	}
	if redisClient != nil {
		healthChecks["redis"] = health.RedisChecker(redisClient.Client)
		deepChecker.SetRedis(redisClient.Client)
	}
	if bus != nil {
		healthChecks["nats"] = health.PingChecker(bus)
		deepChecker.AddDependency("nats", health.PingChecker(bus), false)
	}

	router.GET("/health/ready", common.ReadinessProbe(serviceName, version, healthChecks))
	router.GET("/health/deep", deepChecker.GinHandler())

	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": serviceName,
			"version": version,
		})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	directionsHandler.RegisterRoutes(api, middleware.RequestTimeout(http.MethodPost, computeRoutesPath, cfg.Timeout))
	api.GET("/directions/ws", sessionService.HandleWebSocket)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	open := sessionService.ActiveSessions()
	stopHub()
	sessionService.Shutdown()
	logger.Info("Server stopped", zap.Int("closed_sessions", open))
}

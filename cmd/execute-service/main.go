package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codetrainer/internal/common/cache"
	commonmw "codetrainer/internal/common/http/middleware"
	"codetrainer/internal/common/ratelimit"
	"codetrainer/internal/execute/controller"
	"codetrainer/internal/execute/sandbox"
	"codetrainer/internal/execute/sandbox/engine"
	"codetrainer/internal/execute/sandbox/observer"
	"codetrainer/internal/execute/sandbox/profile"
	"codetrainer/internal/execute/sandbox/workspace"
	"codetrainer/internal/execute/service"
	"codetrainer/pkg/utils/logger"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	defaultConfigPath = "configs/execute_service.yaml"
	sweepInterval     = time.Minute
)

func main() {
	configPath := flag.String("config", defaultConfigPath, "Path to config file")
	flag.Parse()

	appCfg, err := loadAppConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load app config failed: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(appCfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observer.NewPrometheusRecorder(registry)
	if err != nil {
		logger.Error(context.Background(), "init metrics failed", zap.Error(err))
		return
	}

	workspaces, err := workspace.NewManager(appCfg.Sandbox.WorkRoot)
	if err != nil {
		logger.Error(context.Background(), "init workspace root failed", zap.Error(err))
		return
	}
	eng := engine.NewEngine(appCfg.Sandbox.toEngineConfig())
	languages := profile.Merge(profile.DefaultLanguages(), appCfg.Languages)
	dispatcher, err := sandbox.NewDispatcherFromSpecs(languages, eng, workspaces, metrics)
	if err != nil {
		logger.Error(context.Background(), "init dispatcher failed", zap.Error(err))
		return
	}

	executeSvc, err := service.NewService(service.Config{
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		MaxConcurrent:  appCfg.Execution.MaxConcurrent,
		AcquireTimeout: appCfg.Execution.AcquireTimeout,
	})
	if err != nil {
		logger.Error(context.Background(), "init execute service failed", zap.Error(err))
		return
	}

	limiter, closeLimiter, err := buildLimiter(shutdownCtx, appCfg)
	if err != nil {
		logger.Error(context.Background(), "init rate limiter failed", zap.Error(err))
		return
	}
	defer closeLimiter()

	httpServer := buildHTTPServer(appCfg, executeSvc, limiter, registry)
	listener, err := net.Listen("tcp", appCfg.Server.Addr)
	if err != nil {
		logger.Error(context.Background(), "init http listener failed", zap.Error(err))
		return
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info(context.Background(), "execute http server started",
			zap.String("addr", appCfg.Server.Addr),
			zap.Int("languages", len(languages)),
			zap.String("rate_limit", appCfg.RateLimit.Backend),
		)
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(context.Background(), "http server stopped", zap.Error(err))
		}
	case <-shutdownCtx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error(context.Background(), "http server shutdown failed", zap.Error(err))
	}
}

func buildLimiter(ctx context.Context, cfg *AppConfig) (ratelimit.Limiter, func(), error) {
	rl := cfg.RateLimit
	switch rl.Backend {
	case rateLimitMemory:
		local := ratelimit.NewLocalLimiter(rl.RPS, rl.Burst, rl.IdleTTL)
		go local.RunSweeper(ctx, sweepInterval)
		return local, func() {}, nil
	case rateLimitRedis:
		redisCache, err := cache.NewRedisCacheWithConfig(&cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			_ = redisCache.Close()
		}
		return ratelimit.NewRedisLimiter(redisCache, rl.Prefix, rl.Max, rl.Window, rl.RedisTimeout), closeFn, nil
	default:
		return ratelimit.Noop{}, func() {}, nil
	}
}

func buildHTTPServer(cfg *AppConfig, executeSvc *service.Service, limiter ratelimit.Limiter, registry *prometheus.Registry) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(commonmw.TraceContextMiddleware())
	router.Use(requestLogger())

	executeController := controller.NewExecuteController(executeSvc, cfg.Execution.MaxBodyBytes)
	router.POST("/execute", commonmw.RateLimitMiddleware(limiter, "execute"), executeController.Execute)

	api := router.Group("/api/v1")
	api.POST("/execute", commonmw.RateLimitMiddleware(limiter, "execute"), executeController.Execute)
	api.GET("/languages", executeController.Languages)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		logger.Info(
			c.Request.Context(),
			"request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

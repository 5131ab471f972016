package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/BaSui01/apiboot/api"
	"github.com/BaSui01/apiboot/api/handlers"
	"github.com/BaSui01/apiboot/config"
	"github.com/BaSui01/apiboot/internal/cache"
	"github.com/BaSui01/apiboot/internal/database"
	"github.com/BaSui01/apiboot/internal/health"
	"github.com/BaSui01/apiboot/internal/metrics"
	"github.com/BaSui01/apiboot/internal/server"
	"github.com/BaSui01/apiboot/internal/telemetry"
)

// readinessTimeout /readyz 整轮检查的上限
const readinessTimeout = 5 * time.Second

// redisWatchInterval Redis 后台巡检间隔
const redisWatchInterval = 30 * time.Second

// =============================================================================
// 🖥️ Server 结构
// =============================================================================

// Server 是 apiboot 的主服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	// 服务器管理器
	httpManager    *server.Manager
	metricsManager *server.Manager

	// 依赖
	pool      *database.PoolManager
	redis     *cache.Manager
	collector *metrics.Collector
	telemetry *telemetry.Providers

	// Handlers
	healthHandler *handlers.HealthHandler

	// 后台 goroutine（限流清理、Redis 巡检）的生命周期
	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer 创建新的服务器实例
func NewServer(cfg *config.Config, logger *zap.Logger, collector *metrics.Collector, providers *telemetry.Providers) *Server {
	bgCtx, bgCancel := context.WithCancel(context.Background())
	return &Server{
		cfg:       cfg,
		logger:    logger,
		collector: collector,
		telemetry: providers,
		bgCtx:     bgCtx,
		bgCancel:  bgCancel,
	}
}

// =============================================================================
// 🔧 初始化
// =============================================================================

// init 构建依赖与 handlers，不建立任何数据库连接
func (s *Server) init() error {
	s.pool = database.NewPoolManager(s.cfg.Database, s.logger, database.WithRecorder(s.collector))

	readiness := health.NewReadiness(readinessTimeout, s.collector, s.logger)
	readiness.Register(health.NewCheck("database", s.pool.Ping))

	if s.cfg.Redis.Enabled {
		rm, err := cache.NewManager(s.cfg.Redis, s.logger)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		s.redis = rm
		readiness.Register(health.NewCheck("redis", rm.Ping))

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			rm.Watch(s.bgCtx, redisWatchInterval)
		}()
	}

	aggregator := health.NewAggregator(s.cfg.App.Name, s.cfg.App.Version, s.pool, s.logger,
		health.WithRecorder(s.collector))
	detailed := health.NewService(s.pool, s.logger, health.WithRecorder(s.collector))

	s.healthHandler = handlers.NewHealthHandler(aggregator, s.logger,
		handlers.WithDetailedCheck(detailed, s.pool),
		handlers.WithReadiness(readiness),
		handlers.WithVersionInfo(api.VersionInfo{
			Service:   s.cfg.App.Name,
			Version:   s.cfg.App.Version,
			BuildTime: BuildTime,
			GitCommit: GitCommit,
		}),
	)

	driver, err := database.ResolveDriver(s.cfg.Database)
	if err != nil {
		driver = database.StatusUnconfigured
	}
	s.logger.Info("handlers initialized",
		zap.String("database_driver", driver),
		zap.Bool("redis_enabled", s.cfg.Redis.Enabled),
	)
	return nil
}

// =============================================================================
// 🌐 路由
// =============================================================================

// routes 注册路由并包装中间件链
func (s *Server) routes() http.Handler {
	prefix := s.cfg.App.APIPrefix
	mux := http.NewServeMux()

	// 业务路由
	mux.HandleFunc("GET "+prefix+"/health/{$}", s.healthHandler.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health/detailed", s.healthHandler.HandleDetailed)
	mux.HandleFunc("GET "+prefix+"/example/hello-world", handlers.HandleHelloWorld)

	// 运维路由
	mux.HandleFunc("GET /healthz", s.healthHandler.HandleHealthz)
	mux.HandleFunc("GET /readyz", s.healthHandler.HandleReady)
	mux.HandleFunc("GET /version", s.healthHandler.HandleVersion)

	return Chain(mux,
		Recovery(s.logger),
		RequestID(),
		OTelTracing(),
		SecurityHeaders(),
		RequestLogger(s.logger),
		MetricsMiddleware(s.collector),
		CORS(s.cfg.Server.CORSAllowedOrigins),
		RateLimiter(s.bgCtx, float64(s.cfg.Server.RateLimitRPS), s.cfg.Server.RateLimitBurst, s.logger),
	)
}

// =============================================================================
// 🚀 启动与等待
// =============================================================================

// Start 初始化并启动 HTTP 与 Metrics 服务器（非阻塞）
func (s *Server) Start() error {
	if err := s.init(); err != nil {
		return fmt.Errorf("failed to init server: %w", err)
	}

	s.httpManager = server.NewManager("http", s.routes(),
		server.FromServerConfig(s.cfg.Server, s.cfg.Server.HTTPPort), s.logger)
	if err := s.httpManager.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	s.metricsManager = server.NewManager("metrics", metricsMux,
		server.FromServerConfig(s.cfg.Server, s.cfg.Server.MetricsPort), s.logger)
	if err := s.metricsManager.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	s.logger.Info("all servers started",
		zap.String("http_addr", s.httpManager.Addr()),
		zap.String("metrics_addr", s.metricsManager.Addr()),
		zap.String("api_prefix", s.cfg.App.APIPrefix),
	)
	return nil
}

// Wait 阻塞到 ctx 取消或任一服务器异常退出
func (s *Server) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		s.logger.Info("received shutdown signal")
		return nil
	case err := <-s.httpManager.Errors():
		return fmt.Errorf("http server exited: %w", err)
	case err := <-s.metricsManager.Errors():
		return fmt.Errorf("metrics server exited: %w", err)
	}
}

// =============================================================================
// 🛑 关闭流程
// =============================================================================

// Shutdown 按顺序关闭：HTTP → Metrics → 数据库连接池 → Redis → 遥测
func (s *Server) Shutdown(ctx context.Context) {
	s.logger.Info("starting graceful shutdown")

	// 0. 停止后台 goroutine
	s.bgCancel()

	// 1. 关闭 HTTP 服务器
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			s.logger.Error("HTTP server shutdown error", zap.Error(err))
		}
	}

	// 2. 关闭 Metrics 服务器
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			s.logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}

	// 3. 释放数据库连接池
	if s.pool != nil {
		if err := s.pool.Close(); err != nil {
			s.logger.Error("database pool close error", zap.Error(err))
		}
	}

	// 4. 关闭 Redis
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("redis close error", zap.Error(err))
		}
	}

	s.wg.Wait()

	// 5. 刷新遥测数据
	if err := s.telemetry.Shutdown(ctx); err != nil {
		s.logger.Error("telemetry shutdown error", zap.Error(err))
	}

	s.logger.Info("graceful shutdown completed")
}

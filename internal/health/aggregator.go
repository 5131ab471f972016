package health

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/apiboot/internal/database"
)

// =============================================================================
// 🏥 健康聚合器
// =============================================================================

// Prober 数据库连通性探测接口，由 database.PoolManager 实现
type Prober interface {
	ConnectionInfo(ctx context.Context) database.ConnectionInfo
}

// Recorder 健康结论指标接口，由 metrics.Collector 实现
type Recorder interface {
	RecordHealthCheck(check string, healthy bool)
}

// Option 聚合器选项
type Option func(*Aggregator)

// WithClock 替换时钟
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithRecorder 挂载指标记录器
func WithRecorder(r Recorder) Option {
	return func(a *Aggregator) {
		a.recorder = r
	}
}

// Aggregator 组合服务状态与数据库状态
type Aggregator struct {
	service  string
	version  string
	prober   Prober
	recorder Recorder
	now      func() time.Time
	logger   *zap.Logger
}

// NewAggregator 创建健康聚合器
func NewAggregator(service, version string, prober Prober, logger *zap.Logger, opts ...Option) *Aggregator {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Aggregator{
		service: service,
		version: version,
		prober:  prober,
		now:     time.Now,
		logger:  logger.With(zap.String("component", "health")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// ServiceStatus 返回当前服务状态
func (a *Aggregator) ServiceStatus() ServiceStatus {
	return NewServiceStatus(a.service, a.version, a.now())
}

// DatabaseStatus 探测数据库，未挂载探测器时视为未配置
func (a *Aggregator) DatabaseStatus(ctx context.Context) DatabaseStatus {
	if a.prober == nil {
		return DatabaseStatus{
			Status:         database.StatusUnconfigured,
			PoolConfigured: "no",
			ConnectionTest: database.TestFailed,
		}
	}
	return a.prober.ConnectionInfo(ctx)
}

// CheckHealth 计算本次请求的健康状态，从不返回错误
func (a *Aggregator) CheckHealth(ctx context.Context) HealthStatus {
	a.logger.Info("health check requested")

	hs := Evaluate(a.ServiceStatus(), a.DatabaseStatus(ctx))

	if hs.Database.Status != database.StatusConnected {
		a.logger.Warn("database health check indicates issues",
			zap.String("database_status", hs.Database.Status),
			zap.String("pool_configured", hs.Database.PoolConfigured),
			zap.String("connection_test", hs.Database.ConnectionTest),
		)
	}

	if hs.Healthy() {
		a.logger.Info("health check successful")
	} else {
		a.logger.Warn("overall health check indicates issues",
			zap.Any("service_status", hs.Service),
			zap.Any("database_status", hs.Database),
		)
	}

	if a.recorder != nil {
		a.recorder.RecordHealthCheck("health", hs.Healthy())
	}
	return hs
}

package database

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// =============================================================================
// 🩺 连接探测
// =============================================================================

// 数据库状态
const (
	StatusConnected    = "connected"
	StatusFailed       = "failed"
	StatusUnconfigured = "unconfigured"
	StatusError        = "error"
)

// 连接测试结果
const (
	TestPassed = "passed"
	TestFailed = "failed"
)

// probeQuery 探测语句
const probeQuery = "SELECT 1"

// ConnectionInfo 数据库连通性快照
type ConnectionInfo struct {
	Status         string `json:"status"`
	PoolConfigured string `json:"pool_configured"`
	ConnectionTest string `json:"connection_test"`
}

// Connected 探测是否成功
func (ci ConnectionInfo) Connected() bool {
	return ci.Status == StatusConnected
}

const instrumentationName = "github.com/BaSui01/apiboot/internal/database"

// ConnectionInfo 借出一个连接执行 SELECT 1 并返回连通性快照。
// 不会返回错误也不会 panic，所有失败都体现在返回值中。
func (pm *PoolManager) ConnectionInfo(ctx context.Context) (info ConnectionInfo) {
	info = ConnectionInfo{
		Status:         StatusFailed,
		PoolConfigured: pm.config.PoolConfigured(),
		ConnectionTest: TestFailed,
	}

	driver := pm.driverName()
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "db.probe")
	span.SetAttributes(
		attribute.String("db.system", driver),
		attribute.String("db.pool_configured", info.PoolConfigured),
	)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			pm.logger.Error("database probe panicked", zap.Any("panic", r))
			info.Status = StatusError
			info.ConnectionTest = TestFailed
			span.SetStatus(codes.Error, fmt.Sprint(r))
		}

		span.SetAttributes(attribute.String("db.probe.status", info.Status))
		span.End()

		recordProbeDuration(ctx, driver, info.Status, time.Since(start))

		if pm.recorder != nil {
			pm.recorder.RecordDBProbe(driver, info.Status, time.Since(start))
		}
		pm.recordPoolGauges()
	}()

	if !pm.config.IsConfigured() {
		info.Status = StatusUnconfigured
		pm.logger.Warn("database is not configured, skipping connection probe")
		return info
	}

	err := pm.probe(ctx)
	if err != nil {
		pm.logger.Warn("database connection probe failed",
			zap.String("driver", driver),
			zap.Error(err),
		)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return info
	}

	info.Status = StatusConnected
	info.ConnectionTest = TestPassed
	pm.logger.Debug("database connection probe passed", zap.Duration("elapsed", time.Since(start)))
	return info
}

// probe 执行一次 SELECT 1 并校验结果
func (pm *PoolManager) probe(ctx context.Context) error {
	return pm.WithSession(ctx, func(s *Session) error {
		v, err := s.QueryInt(ctx, probeQuery)
		if err != nil {
			return err
		}
		if v != 1 {
			return fmt.Errorf("unexpected probe result %d", v)
		}
		return nil
	})
}

// recordProbeDuration 通过全局 MeterProvider 记录探测耗时，遥测禁用时为 noop
func recordProbeDuration(ctx context.Context, driver, status string, d time.Duration) {
	hist, err := otel.Meter(instrumentationName).Float64Histogram("db.probe.duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of database connectivity probes"),
	)
	if err != nil {
		return
	}
	hist.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("db.system", driver),
		attribute.String("db.probe.status", status),
	))
}

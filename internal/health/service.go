package health

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/apiboot/internal/database"
	"github.com/BaSui01/apiboot/types"
)

// =============================================================================
// 🔬 严格健康检查
// =============================================================================

// detailedQuery 严格检查中执行的查询
const detailedQuery = "SELECT 1 AS test_value"

// ErrDatabaseConnection 严格检查中连接失败时返回，可用 errors.Is 比较
var ErrDatabaseConnection = types.NewError(types.ErrDatabaseConnection, "database connection failed").
	WithHTTPStatus(http.StatusServiceUnavailable)

// SessionOpener 借出请求级会话，由 database.PoolManager 实现
type SessionOpener interface {
	WithSession(ctx context.Context, fn func(*database.Session) error) error
}

// DetailedChecks 各项检查结果
type DetailedChecks struct {
	DatabaseConnection bool   `json:"database_connection"`
	DatabaseQuery      bool   `json:"database_query"`
	QueryError         string `json:"query_error,omitempty"`
}

// DetailedStatus 严格检查报告
type DetailedStatus struct {
	Status         string         `json:"status"`
	Message        string         `json:"message"`
	Timestamp      time.Time      `json:"timestamp"`
	Checks         DetailedChecks `json:"checks"`
	ConnectionInfo DatabaseStatus `json:"connection_info"`
}

// Healthy 是否健康
func (d DetailedStatus) Healthy() bool {
	return d.Status == StatusHealthy
}

// Service 严格健康检查：连接失败是硬错误，查询失败只影响结论
type Service struct {
	prober   Prober
	recorder Recorder
	now      func() time.Time
	logger   *zap.Logger
}

// NewService 创建严格健康检查服务
func NewService(prober Prober, logger *zap.Logger, opts ...Option) *Service {
	// 复用聚合器选项
	a := NewAggregator("", "", prober, logger, opts...)
	return &Service{
		prober:   prober,
		recorder: a.recorder,
		now:      a.now,
		logger:   a.logger,
	}
}

// Check 先探测连接，再通过会话执行查询。
// 连接失败时返回 ErrDatabaseConnection 和已填充的部分报告；
// 查询失败记录在 checks.query_error 中，不返回错误。
func (s *Service) Check(ctx context.Context, sessions SessionOpener) (DetailedStatus, error) {
	s.logger.Info("detailed health check requested")

	report := DetailedStatus{
		Status:    StatusUnhealthy,
		Message:   MessageUnhealthy,
		Timestamp: s.now().UTC(),
	}

	if s.prober != nil {
		report.ConnectionInfo = s.prober.ConnectionInfo(ctx)
	} else {
		report.ConnectionInfo = DatabaseStatus{
			Status:         database.StatusUnconfigured,
			PoolConfigured: "no",
			ConnectionTest: database.TestFailed,
		}
	}
	report.Checks.DatabaseConnection = report.ConnectionInfo.Connected()

	if !report.Checks.DatabaseConnection {
		s.logger.Error("database connection test failed",
			zap.String("database_status", report.ConnectionInfo.Status),
		)
		s.record(false)
		return report, types.NewError(types.ErrDatabaseConnection, "database connection failed").
			WithHTTPStatus(http.StatusServiceUnavailable).
			WithRetryable(true)
	}

	var queryErr error
	if sessions == nil {
		queryErr = types.NewError(types.ErrQueryExecution, "no session opener configured")
	} else {
		queryErr = sessions.WithSession(ctx, func(sess *database.Session) error {
			_, err := sess.QueryInt(ctx, detailedQuery)
			return err
		})
	}

	if queryErr != nil {
		report.Checks.QueryError = queryErr.Error()
		s.logger.Error("database query test failed", zap.Error(queryErr))
	} else {
		report.Checks.DatabaseQuery = true
		s.logger.Debug("database query test successful")
	}

	if report.Checks.DatabaseConnection && report.Checks.DatabaseQuery {
		report.Status = StatusHealthy
		report.Message = MessageHealthy
		s.logger.Info("health check successful", zap.Any("health_status", report))
	} else {
		s.logger.Error("health check failed", zap.Any("health_status", report))
	}

	s.record(report.Healthy())
	return report, nil
}

func (s *Service) record(healthy bool) {
	if s.recorder != nil {
		s.recorder.RecordHealthCheck("detailed", healthy)
	}
}

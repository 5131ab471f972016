package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/apiboot/api"
	"github.com/BaSui01/apiboot/internal/health"
	"github.com/BaSui01/apiboot/types"
)

// =============================================================================
// 🏥 健康检查 Handler
// =============================================================================

// HealthChecker 聚合健康检查，由 health.Aggregator 实现
type HealthChecker interface {
	CheckHealth(ctx context.Context) health.HealthStatus
}

// DetailedChecker 严格健康检查，由 health.Service 实现
type DetailedChecker interface {
	Check(ctx context.Context, sessions health.SessionOpener) (health.DetailedStatus, error)
}

// ReadinessRunner 就绪检查，由 health.Readiness 实现
type ReadinessRunner interface {
	Run(ctx context.Context) (map[string]health.CheckResult, bool)
}

// HealthHandler 健康检查处理器
type HealthHandler struct {
	checker   HealthChecker
	detailed  DetailedChecker
	sessions  health.SessionOpener
	readiness ReadinessRunner
	version   api.VersionInfo
	logger    *zap.Logger
}

// HealthOption 配置 HealthHandler
type HealthOption func(*HealthHandler)

// WithDetailedCheck 启用 /health/detailed
func WithDetailedCheck(d DetailedChecker, sessions health.SessionOpener) HealthOption {
	return func(h *HealthHandler) {
		h.detailed = d
		h.sessions = sessions
	}
}

// WithReadiness 启用 /readyz 依赖检查
func WithReadiness(r ReadinessRunner) HealthOption {
	return func(h *HealthHandler) { h.readiness = r }
}

// WithVersionInfo 设置 /version 返回的信息
func WithVersionInfo(v api.VersionInfo) HealthOption {
	return func(h *HealthHandler) { h.version = v }
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(checker HealthChecker, logger *zap.Logger, opts ...HealthOption) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &HealthHandler{
		checker: checker,
		logger:  logger.With(zap.String("handler", "health")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// =============================================================================
// 🎯 HTTP 处理程序
// =============================================================================

// HandleHealth 处理 {prefix}/health/ 请求。
// 结论体现在响应体的 status 字段中，状态码始终为 200。
// @Summary 健康检查
// @Description 服务状态与数据库连通性的组合结论
// @Tags 健康
// @Produce json
// @Success 200 {object} health.HealthStatus "健康或不健康均返回 200"
// @Router /api/v1/health/ [get]
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.checker.CheckHealth(r.Context()))
}

// HandleDetailed 处理 {prefix}/health/detailed 请求。
// 数据库连接失败返回 503，查询失败返回 200 且 status 为 unhealthy。
// @Summary 严格健康检查
// @Description 连接探测后执行 SELECT 1 AS test_value
// @Tags 健康
// @Produce json
// @Success 200 {object} health.DetailedStatus "检查完成"
// @Failure 503 {object} health.DetailedStatus "数据库不可达"
// @Router /api/v1/health/detailed [get]
func (h *HealthHandler) HandleDetailed(w http.ResponseWriter, r *http.Request) {
	if h.detailed == nil {
		WriteErrorMessage(w, r, http.StatusServiceUnavailable, types.ErrServiceUnavailable,
			"detailed health check is not configured", h.logger)
		return
	}

	report, err := h.detailed.Check(r.Context(), h.sessions)
	if err != nil {
		status := http.StatusServiceUnavailable
		if e, ok := types.AsError(err); ok && e.HTTPStatus != 0 {
			status = e.HTTPStatus
		}
		h.logger.Warn("detailed health check failed", zap.Error(err), zap.Int("status", status))
		WriteJSON(w, status, report)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}

// HandleHealthz 处理 /healthz 请求（存活探针，不访问依赖）
// @Summary Kubernetes 存活探针
// @Tags 健康
// @Produce json
// @Success 200 {object} api.LivenessResponse "服务处于活动状态"
// @Router /healthz [get]
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, api.LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC(),
	})
}

// HandleReady 处理 /readyz 请求（就绪探针）
// @Summary 就绪检查
// @Description 并发检查数据库与可选的 Redis
// @Tags 健康
// @Produce json
// @Success 200 {object} api.ReadinessResponse "服务已就绪"
// @Failure 503 {object} api.ReadinessResponse "依赖不可用"
// @Router /readyz [get]
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	resp := api.ReadinessResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC(),
	}

	ready := true
	if h.readiness != nil {
		results, ok := h.readiness.Run(r.Context())
		ready = ok
		resp.Checks = make(map[string]api.CheckResult, len(results))
		for name, res := range results {
			resp.Checks[name] = api.CheckResult{
				Status:  res.Status,
				Message: res.Message,
				Latency: res.Latency,
			}
		}
	}

	if !ready {
		resp.Status = "not_ready"
		WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

// HandleVersion 处理 /version 请求
// @Summary 版本信息
// @Tags 健康
// @Produce json
// @Success 200 {object} api.VersionInfo "版本信息"
// @Router /version [get]
func (h *HealthHandler) HandleVersion(w http.ResponseWriter, r *http.Request) {
	WriteSuccess(w, r, h.version)
}

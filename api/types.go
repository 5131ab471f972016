package api

import (
	"time"
)

// =============================================================================
// 示例端点类型
// =============================================================================

// HelloResponse 示例端点响应。
// @Description 示例问候响应
type HelloResponse struct {
	// 问候语
	Message string `json:"message" example:"Hello, world!"`
}

// =============================================================================
// 版本与就绪类型
// =============================================================================

// VersionInfo 版本信息。
// @Description 构建版本信息
type VersionInfo struct {
	// 服务名称
	Service string `json:"service" example:"apiboot"`
	// 服务版本
	Version string `json:"version" example:"0.1.0"`
	// 构建时间
	BuildTime string `json:"build_time" example:"2026-01-01T00:00:00Z"`
	// Git 提交
	GitCommit string `json:"git_commit" example:"abc1234"`
}

// ReadinessResponse 就绪检查响应。
// @Description 依赖检查结果，任一失败时返回 503
type ReadinessResponse struct {
	// "ready" 或 "not_ready"
	Status string `json:"status" example:"ready"`
	// 检查时间
	Timestamp time.Time `json:"timestamp"`
	// 各依赖检查结果
	Checks map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult 单个依赖检查结果。
type CheckResult struct {
	Status  string `json:"status" example:"pass"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty" example:"1.2ms"`
}

// LivenessResponse 存活探针响应。
type LivenessResponse struct {
	Status    string    `json:"status" example:"alive"`
	Timestamp time.Time `json:"timestamp"`
}

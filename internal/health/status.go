package health

import (
	"time"

	"github.com/BaSui01/apiboot/internal/database"
)

// 健康结论
const (
	StatusOK        = "ok"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"

	MessageHealthy   = "All systems operational"
	MessageUnhealthy = "Some systems have issues"
)

// ServiceStatus 服务自身状态，进程能处理请求即为 ok
type ServiceStatus struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
}

// DatabaseStatus 数据库连通性状态
type DatabaseStatus = database.ConnectionInfo

// HealthStatus 组合后的健康状态，每次请求重新计算
type HealthStatus struct {
	Status    string         `json:"status"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Service   ServiceStatus  `json:"service"`
	Database  DatabaseStatus `json:"database"`
}

// Healthy 是否健康
func (h HealthStatus) Healthy() bool {
	return h.Status == StatusHealthy
}

// NewServiceStatus 构建服务状态
func NewServiceStatus(service, version string, now time.Time) ServiceStatus {
	return ServiceStatus{
		Status:    StatusOK,
		Timestamp: now.UTC(),
		Service:   service,
		Version:   version,
	}
}

// Evaluate 服务为 ok 且数据库为 connected 时健康，顶层时间戳取服务时间戳
func Evaluate(service ServiceStatus, db DatabaseStatus) HealthStatus {
	healthy := service.Status == StatusOK && db.Status == database.StatusConnected

	hs := HealthStatus{
		Status:    StatusUnhealthy,
		Message:   MessageUnhealthy,
		Timestamp: service.Timestamp,
		Service:   service,
		Database:  db,
	}
	if healthy {
		hs.Status = StatusHealthy
		hs.Message = MessageHealthy
	}
	return hs
}

// Package api 定义 apiboot HTTP API 的公共响应类型。
//
// # API 概览
//
// 所有业务路由挂在 API 前缀下（默认 /api/v1）：
//   - GET {prefix}/health/            服务与数据库健康，始终返回 200
//   - GET {prefix}/health/detailed    严格检查，数据库不可达时返回 503
//   - GET {prefix}/example/hello-world 示例端点
//
// 运维路由不带前缀：
//   - GET /healthz  存活探针
//   - GET /readyz   就绪探针（数据库与可选的 Redis）
//   - GET /version  版本信息
//
// Prometheus 指标在独立的 metrics 端口的 /metrics 上暴露。
//
// # Base URL
//
//	http://localhost:8080
package api

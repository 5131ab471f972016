// Package telemetry 集中初始化 OpenTelemetry 的 TracerProvider 与 MeterProvider。
// 数据库探测与 HTTP 中间件通过全局 provider 产生 span；
// 导出器可选 OTLP gRPC 或 stdout（本地调试）；
// 遥测禁用时使用 noop 实现，不连接任何外部服务。
package telemetry

// Package config 提供 apiboot 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → .env 文件 → 环境变量 的顺序逐层覆盖，
// 环境变量统一使用 APIBOOT_ 前缀（例如 APIBOOT_DATABASE_POOL_SIZE）。
// 时长类字段既接受 Go 时长语法（30s），也接受纯整数秒（30）。
//
// 进程级配置由 Config.Validate 校验；数据库配置只在构建连接池引擎时校验，
// 因此数据库参数错误不会阻止服务启动，只会体现在健康检查结果中。
package config

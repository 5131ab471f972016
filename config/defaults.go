// =============================================================================
// 📦 apiboot 默认配置
// =============================================================================
// 提供所有配置项的合理默认值
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		App:       DefaultAppConfig(),
		Server:    DefaultServerConfig(),
		Database:  DefaultDatabaseConfig(),
		Redis:     DefaultRedisConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultAppConfig 返回默认应用元信息
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Name:        "apiboot",
		Version:     "0.1.0",
		Description: "Minimal API scaffold with database health checks",
		APIPrefix:   "/api/v1",
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:                 DriverSQLServer,
		Server:                 "localhost",
		Name:                   "apiboot",
		Username:               "sa",
		Encrypt:                true,
		TrustServerCertificate: false,
		ConnectionTimeout:      30 * time.Second,
		CommandTimeout:         30 * time.Second,
		PoolSize:               5,
		MaxOverflow:            10,
		PoolTimeout:            30 * time.Second,
		PoolRecycle:            time.Hour,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:      false,
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		MaxRetries:   3,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// 遥测导出器
const (
	ExporterOTLP   = "otlp"
	ExporterStdout = "stdout"
)

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		Exporter:     ExporterOTLP,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "apiboot",
		SampleRate:   0.1,
	}
}

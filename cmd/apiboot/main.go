// =============================================================================
// apiboot 主入口
// =============================================================================
// HTTP 服务、数据库健康检查、Prometheus 指标
//
// 使用方法:
//
//	apiboot serve                                   # 启动服务
//	apiboot serve --config config.yaml --env-file .env
//	apiboot version                                 # 显示版本信息
//	apiboot health --addr http://localhost:8080     # 健康检查
// =============================================================================

// @title apiboot API
// @version 0.1.0
// @description Web 服务脚手架，提供服务与数据库健康检查。

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/BaSui01/apiboot/config"
	"github.com/BaSui01/apiboot/internal/metrics"
	"github.com/BaSui01/apiboot/internal/telemetry"
	"github.com/BaSui01/apiboot/internal/tlsutil"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stdout)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(os.Args[2:])
	case "version":
		printVersion(os.Stdout)
	case "health":
		os.Exit(runHealthCheck(os.Args[2:], os.Stdout, os.Stderr))
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file (YAML)")
	envFile := fs.String("env-file", ".env", "Path to .env file")
	fs.Parse(args)

	cfg, err := loadConfig(*configPath, *envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg.Log)
	defer logger.Sync()

	logger.Info("starting apiboot",
		zap.String("version", cfg.App.Version),
		zap.String("build_version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	checkDatabaseConfig(cfg.Database, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providers, err := telemetry.Init(ctx, cfg.Telemetry, cfg.App, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}

	collector := metrics.NewCollector(metricsNamespace(cfg.App.Name), logger)
	srv := NewServer(cfg, logger, collector, providers)

	if err := srv.Start(); err != nil {
		logger.Error("failed to start server", zap.Error(err))
		srv.Shutdown(context.Background())
		os.Exit(1)
	}

	exitCode := 0
	if err := srv.Wait(ctx); err != nil {
		logger.Error("server exited unexpectedly", zap.Error(err))
		exitCode = 1
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	srv.Shutdown(shutdownCtx)
	cancel()

	logger.Info("apiboot stopped")
	if exitCode != 0 {
		logger.Sync()
		os.Exit(exitCode)
	}
}

// loadConfig 加载并校验配置
func loadConfig(configPath, envFile string) (*config.Config, error) {
	loader := config.NewLoader().
		WithDotEnv(envFile).
		WithValidator(func(c *config.Config) error { return c.Validate() })
	if configPath != "" {
		loader = loader.WithConfigPath(configPath)
	}
	return loader.Load()
}

// metricsNamespace 将服务名转换为合法的 Prometheus 命名空间
func metricsNamespace(name string) string {
	ns := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if ns == "" || (ns[0] >= '0' && ns[0] <= '9') {
		ns = "apiboot_" + ns
	}
	return strings.TrimRight(ns, "_")
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

// runHealthCheck 请求 {prefix}/health/，不健康时返回 1
func runHealthCheck(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(stderr)
	addr := fs.String("addr", "http://localhost:8080", "Server address")
	prefix := fs.String("prefix", config.DefaultAppConfig().APIPrefix, "API prefix")
	timeout := fs.Duration("timeout", 5*time.Second, "Request timeout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	client := tlsutil.SecureHTTPClient(*timeout)
	resp, err := client.Get(strings.TrimRight(*addr, "/") + *prefix + "/health/")
	if err != nil {
		fmt.Fprintf(stderr, "Health check failed: %v\n", err)
		return 1
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(stderr, "Health check failed: status %d\n", resp.StatusCode)
		return 1
	}

	var body struct {
		Status   string `json:"status"`
		Message  string `json:"message"`
		Database struct {
			Status string `json:"status"`
		} `json:"database"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		fmt.Fprintf(stderr, "Health check failed: invalid response: %v\n", err)
		return 1
	}

	if body.Status != "healthy" {
		fmt.Fprintf(stderr, "Unhealthy: %s (database: %s)\n", body.Message, body.Database.Status)
		return 1
	}

	fmt.Fprintln(stdout, "OK")
	return 0
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "apiboot %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `apiboot - web service scaffold with database health checks

Usage:
  apiboot <command> [options]

Commands:
  serve     Start the HTTP and metrics servers
  version   Show version information
  health    Query a running server's health endpoint
  help      Show this help message

Options for 'serve':
  --config <path>     Path to configuration file (YAML)
  --env-file <path>   Path to .env file (default .env, ignored when missing)

  Database credentials default to user "sa" with an empty password. Set
  APIBOOT_DATABASE_USERNAME and APIBOOT_DATABASE_PASSWORD, or set
  APIBOOT_DATABASE_TRUSTED_CONNECTION=true for integrated authentication.

Options for 'health':
  --addr <url>        Server address (default http://localhost:8080)
  --prefix <path>     API prefix (default /api/v1)
  --timeout <dur>     Request timeout (default 5s)

Examples:
  apiboot serve
  apiboot serve --config /etc/apiboot/config.yaml
  APIBOOT_DATABASE_SERVER=db.internal apiboot serve
  apiboot health --addr http://localhost:8080
  apiboot version`)
}

// checkDatabaseConfig 数据库配置错误不阻止启动，由健康检查报告
func checkDatabaseConfig(cfg config.DatabaseConfig, logger *zap.Logger) bool {
	if err := cfg.Validate(); err != nil {
		logger.Warn("database configuration is incomplete, health checks will report failure",
			zap.Error(err),
			zap.String("hint", "set database username/password or trusted_connection"),
		)
		return false
	}
	return true
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	outputPaths := cfg.OutputPaths
	if len(outputPaths) == 0 {
		outputPaths = []string{"stdout"}
	}

	zapConfig := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Development:       encoding == "console",
		Encoding:          encoding,
		EncoderConfig:     encoderConfig,
		OutputPaths:       outputPaths,
		ErrorOutputPaths:  []string{"stderr"},
		DisableCaller:     !cfg.EnableCaller,
		DisableStacktrace: !cfg.EnableStacktrace,
	}

	logger, err := zapConfig.Build()
	if err != nil {
		// 回退到基本 logger
		logger, _ = zap.NewProduction()
	}
	return logger
}

// =============================================================================
// 📡 apiboot OpenTelemetry 初始化
// =============================================================================
// 启用时按配置注册 OTLP gRPC 或 stdout 的 trace 与 metric 导出器；
// 禁用时不创建导出器，全局 provider 保持 noop。
// =============================================================================

package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"

	"github.com/BaSui01/apiboot/config"
)

// Providers 持有 SDK 的 TracerProvider 与 MeterProvider，禁用时均为 nil
type Providers struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

// Enabled 是否注册了 SDK provider
func (p *Providers) Enabled() bool {
	return p != nil && p.tp != nil
}

// Init 初始化 OTel SDK。
// 服务名优先取 cfg.ServiceName，为空时回退到 app.Name；版本取 app.Version。
func Init(ctx context.Context, cfg config.TelemetryConfig, app config.AppConfig, logger *zap.Logger) (*Providers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		logger.Info("telemetry disabled, using noop providers")
		return &Providers{}, nil
	}

	res, err := newResource(ctx, cfg, app)
	if err != nil {
		return nil, err
	}

	traceExporter, metricExporter, err := newExporters(ctx, cfg, os.Stdout)
	if err != nil {
		return nil, err
	}

	p := install(res,
		sdktrace.WithBatcher(traceExporter),
		sdkmetric.NewPeriodicReader(metricExporter),
		cfg.SampleRate,
	)

	logger.Info("telemetry initialized",
		zap.String("exporter", exporterName(cfg)),
		zap.String("endpoint", cfg.OTLPEndpoint),
		zap.String("service_name", serviceName(cfg, app)),
		zap.Float64("sample_rate", cfg.SampleRate),
	)
	return p, nil
}

// newExporters 按 cfg.Exporter 创建导出器，stdout 模式写入 w
func newExporters(ctx context.Context, cfg config.TelemetryConfig, w io.Writer) (sdktrace.SpanExporter, sdkmetric.Exporter, error) {
	switch exporterName(cfg) {
	case config.ExporterStdout:
		te, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout trace exporter: %w", err)
		}
		me, err := stdoutmetric.New(stdoutmetric.WithWriter(w))
		if err != nil {
			return nil, nil, fmt.Errorf("create stdout metric exporter: %w", err)
		}
		return te, me, nil

	case config.ExporterOTLP:
		te, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("create trace exporter: %w", err)
		}
		me, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("create metric exporter: %w", err)
		}
		return te, me, nil

	default:
		return nil, nil, fmt.Errorf("unknown telemetry exporter: %q", cfg.Exporter)
	}
}

func exporterName(cfg config.TelemetryConfig) string {
	if cfg.Exporter == "" {
		return config.ExporterOTLP
	}
	return cfg.Exporter
}

// install 构建 provider 并注册为全局实现
func install(res *resource.Resource, spans sdktrace.TracerProviderOption, reader sdkmetric.Reader, sampleRate float64) *Providers {
	tp := sdktrace.NewTracerProvider(
		spans,
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(sampleRate))),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Providers{tp: tp, mp: mp}
}

func newResource(ctx context.Context, cfg config.TelemetryConfig, app config.AppConfig) (*resource.Resource, error) {
	version := app.Version
	if version == "" {
		version = buildVersion()
	}
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(serviceName(cfg, app)),
			semconv.ServiceVersionKey.String(version),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}
	return res, nil
}

func serviceName(cfg config.TelemetryConfig, app config.AppConfig) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	if app.Name != "" {
		return app.Name
	}
	return "apiboot"
}

// Shutdown 刷新未导出的数据并关闭导出器，nil 或 noop 时直接返回
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error
	if p.tp != nil {
		if err := p.tp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracer provider: %w", err))
		}
	}
	if p.mp != nil {
		if err := p.mp.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown meter provider: %w", err))
		}
	}
	return errors.Join(errs...)
}

// buildVersion 从构建信息读取模块版本，不可用时返回 "dev"
func buildVersion() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "dev"
	}
	if info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

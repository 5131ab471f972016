package health

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// 🚦 就绪检查
// =============================================================================

// Check 就绪依赖检查接口
type Check interface {
	Name() string
	Check(ctx context.Context) error
}

type funcCheck struct {
	name string
	fn   func(ctx context.Context) error
}

func (c funcCheck) Name() string                    { return c.name }
func (c funcCheck) Check(ctx context.Context) error { return c.fn(ctx) }

// NewCheck 用函数构建检查，例如 NewCheck("database", pool.Ping)
func NewCheck(name string, fn func(ctx context.Context) error) Check {
	return funcCheck{name: name, fn: fn}
}

// CheckResult 单个检查结果
type CheckResult struct {
	Status  string `json:"status"` // "pass", "fail"
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// ReadinessRecorder 就绪检查指标接口
type ReadinessRecorder interface {
	RecordReadinessCheck(dependency string, err error)
}

// Readiness 并发执行已注册的依赖检查
type Readiness struct {
	mu       sync.RWMutex
	checks   []Check
	timeout  time.Duration
	recorder ReadinessRecorder
	logger   *zap.Logger
}

// NewReadiness 创建就绪检查器，timeout 为整轮检查的上限
func NewReadiness(timeout time.Duration, recorder ReadinessRecorder, logger *zap.Logger) *Readiness {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Readiness{
		timeout:  timeout,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "readiness")),
	}
}

// Register 注册检查
func (r *Readiness) Register(c Check) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checks = append(r.checks, c)
}

// Run 执行全部检查，单个失败不会取消其他检查
func (r *Readiness) Run(ctx context.Context) (map[string]CheckResult, bool) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	r.mu.RLock()
	checks := make([]Check, len(r.checks))
	copy(checks, r.checks)
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		results = make(map[string]CheckResult, len(checks))
		ready   = true
		g       errgroup.Group
	)

	for _, c := range checks {
		g.Go(func() error {
			start := time.Now()
			err := c.Check(ctx)
			latency := time.Since(start)

			result := CheckResult{Status: "pass", Latency: latency.String()}
			if err != nil {
				result.Status = "fail"
				result.Message = err.Error()
				r.logger.Warn("readiness check failed",
					zap.String("check", c.Name()),
					zap.Error(err),
					zap.Duration("latency", latency),
				)
			}
			if r.recorder != nil {
				r.recorder.RecordReadinessCheck(c.Name(), err)
			}

			mu.Lock()
			results[c.Name()] = result
			if err != nil {
				ready = false
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results, ready
}

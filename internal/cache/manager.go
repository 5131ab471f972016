package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/apiboot/config"
	"github.com/BaSui01/apiboot/internal/tlsutil"
)

// =============================================================================
// 💾 Redis 连接管理器
// =============================================================================

// ErrClosed 管理器已关闭
var ErrClosed = errors.New("redis manager is closed")

// Manager 持有 Redis 客户端，作为可选的就绪依赖
type Manager struct {
	client *redis.Client
	config config.RedisConfig
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewManager 创建 Redis 管理器。
// 构造时不建立连接，首次 Ping 时才会拨号。
func NewManager(cfg config.RedisConfig, logger *zap.Logger) (*Manager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	opts := &redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		MaxRetries:   cfg.MaxRetries,
	}
	if cfg.TLS {
		tlsCfg, err := tlsutil.ClientTLSConfig("", false)
		if err != nil {
			return nil, fmt.Errorf("redis tls config: %w", err)
		}
		opts.TLSConfig = tlsCfg
	}

	m := &Manager{
		client: redis.NewClient(opts),
		config: cfg,
		logger: logger.With(zap.String("component", "cache")),
	}

	m.logger.Info("redis manager initialized",
		zap.String("addr", cfg.Addr),
		zap.Int("pool_size", cfg.PoolSize),
		zap.Bool("tls", cfg.TLS),
		zap.Duration("dial_timeout", cfg.DialTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
	)
	return m, nil
}

// Ping 检查 Redis 连接，签名与 health.NewCheck 兼容。
// 网络往返不持有锁，Close 不会被慢请求阻塞。
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	closed := m.closed
	m.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if err := m.client.Ping(ctx).Err(); err != nil {
		if errors.Is(err, redis.ErrClosed) {
			return ErrClosed
		}
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Close 关闭客户端，重复调用为空操作
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}
	m.closed = true
	m.logger.Info("closing redis manager")
	return m.client.Close()
}

// Stats 连接池统计
type Stats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}

// Stats 返回客户端连接池统计
func (m *Manager) Stats() Stats {
	s := m.client.PoolStats()
	return Stats{
		Hits:       s.Hits,
		Misses:     s.Misses,
		Timeouts:   s.Timeouts,
		TotalConns: s.TotalConns,
		IdleConns:  s.IdleConns,
	}
}

// =============================================================================
// 🏥 后台巡检
// =============================================================================

// Watch 按 interval 周期性 Ping，直到 ctx 取消或管理器关闭
func (m *Manager) Watch(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := m.Ping(pingCtx)
		cancel()

		switch {
		case errors.Is(err, ErrClosed):
			return
		case err != nil:
			m.logger.Error("redis health check failed", zap.Error(err))
		default:
			m.logger.Debug("redis health check passed")
		}
	}
}

package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/apiboot/config"
)

// =============================================================================
// 🧪 Manager 测试
// =============================================================================

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Manager) {
	t.Helper()
	mr := miniredis.RunT(t)

	cfg := config.DefaultRedisConfig()
	cfg.Enabled = true
	cfg.Addr = mr.Addr()

	manager, err := NewManager(cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })

	return mr, manager
}

func TestNewManager_RequiresAddr(t *testing.T) {
	_, err := NewManager(config.RedisConfig{}, nil)
	assert.Error(t, err)
}

func TestNewManager_DoesNotDial(t *testing.T) {
	m, err := NewManager(config.RedisConfig{Addr: "127.0.0.1:1"}, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, uint32(0), m.Stats().TotalConns)
}

func TestNewManager_TLS(t *testing.T) {
	m, err := NewManager(config.RedisConfig{Addr: "localhost:6380", TLS: true}, zap.NewNop())
	require.NoError(t, err)
	defer m.Close()

	require.NotNil(t, m.client.Options().TLSConfig)
	assert.False(t, m.client.Options().TLSConfig.InsecureSkipVerify)
}

func TestManager_Ping(t *testing.T) {
	_, m := setupTestRedis(t)

	require.NoError(t, m.Ping(context.Background()))
	assert.GreaterOrEqual(t, m.Stats().TotalConns, uint32(1))
}

func TestManager_PingServerDown(t *testing.T) {
	mr, m := setupTestRedis(t)
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.Error(t, m.Ping(ctx))
}

func TestManager_PingWithPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("s3cret")

	wrong, err := NewManager(config.RedisConfig{Addr: mr.Addr(), Password: "nope"}, zap.NewNop())
	require.NoError(t, err)
	defer wrong.Close()
	assert.Error(t, wrong.Ping(context.Background()))

	right, err := NewManager(config.RedisConfig{Addr: mr.Addr(), Password: "s3cret"}, zap.NewNop())
	require.NoError(t, err)
	defer right.Close()
	assert.NoError(t, right.Ping(context.Background()))
}

func TestManager_CloseIdempotent(t *testing.T) {
	_, m := setupTestRedis(t)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
	assert.ErrorIs(t, m.Ping(context.Background()), ErrClosed)
}

func TestNewManager_AppliesClientOptions(t *testing.T) {
	tests := []struct {
		name        string
		cfg         config.RedisConfig
		wantDial    time.Duration
		wantRetries int
	}{
		{
			name:        "explicit",
			cfg:         config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: 250 * time.Millisecond, MaxRetries: 1},
			wantDial:    250 * time.Millisecond,
			wantRetries: 1,
		},
		{
			name:        "retries disabled",
			cfg:         config.RedisConfig{Addr: "127.0.0.1:1", DialTimeout: time.Second, MaxRetries: -1},
			wantDial:    time.Second,
			wantRetries: 0,
		},
		{
			name:        "defaults",
			cfg:         func() config.RedisConfig { c := config.DefaultRedisConfig(); c.Addr = "127.0.0.1:1"; return c }(),
			wantDial:    5 * time.Second,
			wantRetries: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewManager(tt.cfg, zap.NewNop())
			require.NoError(t, err)
			defer m.Close()

			opts := m.client.Options()
			assert.Equal(t, tt.wantDial, opts.DialTimeout)
			assert.Equal(t, tt.wantRetries, opts.MaxRetries)
		})
	}
}

func TestManager_CloseDuringSlowPing(t *testing.T) {
	// 只接受连接、从不应答的服务端
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		var conns []net.Conn
		defer func() {
			for _, c := range conns {
				c.Close()
			}
		}()
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			conns = append(conns, c)
		}
	}()

	m, err := NewManager(config.RedisConfig{Addr: ln.Addr().String(), MaxRetries: -1}, zap.NewNop())
	require.NoError(t, err)

	pingErr := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		pingErr <- m.Ping(ctx)
	}()

	// 等待 Ping 进入网络读取
	require.Eventually(t, func() bool {
		return m.Stats().TotalConns > 0
	}, 2*time.Second, 5*time.Millisecond)

	closed := make(chan struct{})
	go func() {
		m.Close()
		close(closed)
	}()

	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked behind an in-flight Ping")
	}

	select {
	case err := <-pingErr:
		assert.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Ping did not return")
	}
	assert.ErrorIs(t, m.Ping(context.Background()), ErrClosed)
}

func TestManager_WatchLogsFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	core, logs := observer.New(zapcore.ErrorLevel)

	m, err := NewManager(config.RedisConfig{
		Addr:        mr.Addr(),
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}, zap.New(core))
	require.NoError(t, err)
	defer m.Close()

	mr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Watch(ctx, 10*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return logs.FilterMessage("redis health check failed").Len() > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}

func TestManager_WatchStopsWhenClosed(t *testing.T) {
	_, m := setupTestRedis(t)
	require.NoError(t, m.Close())

	done := make(chan struct{})
	go func() {
		m.Watch(context.Background(), 5*time.Millisecond)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not stop after Close")
	}
}

func TestManager_WatchZeroInterval(t *testing.T) {
	_, m := setupTestRedis(t)
	m.Watch(context.Background(), 0)
}

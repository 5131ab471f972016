package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/apiboot/api"
	"github.com/BaSui01/apiboot/config"
	"github.com/BaSui01/apiboot/internal/database"
	"github.com/BaSui01/apiboot/internal/health"
)

// =============================================================================
// 🧪 测试辅助
// =============================================================================

func newPool(t *testing.T, cfg config.DatabaseConfig) *database.PoolManager {
	t.Helper()
	pool := database.NewPoolManager(cfg, zaptest.NewLogger(t))
	t.Cleanup(func() { pool.Close() })
	return pool
}

func sqliteConfig(poolSize int) config.DatabaseConfig {
	return config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		Name:           ":memory:",
		PoolSize:       poolSize,
		PoolTimeout:    2 * time.Second,
		CommandTimeout: 2 * time.Second,
	}
}

func newHealthHandler(t *testing.T, pool *database.PoolManager, opts ...HealthOption) *HealthHandler {
	t.Helper()
	agg := health.NewAggregator("apiboot", "0.1.0", pool, zaptest.NewLogger(t))
	return NewHealthHandler(agg, zap.NewNop(), opts...)
}

func getJSON(t *testing.T, h http.HandlerFunc, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

type stubDetailed struct {
	report health.DetailedStatus
	err    error
}

func (s stubDetailed) Check(context.Context, health.SessionOpener) (health.DetailedStatus, error) {
	return s.report, s.err
}

// =============================================================================
// 🧪 /health/
// =============================================================================

func TestHandleHealth_UnreachableDatabaseStill200(t *testing.T) {
	pool := newPool(t, config.DatabaseConfig{
		Driver:            config.DriverPostgres,
		Server:            "down-host",
		Port:              5432,
		Name:              "apiboot",
		Username:          "apiboot",
		Password:          "secret",
		ConnectionTimeout: time.Second,
		CommandTimeout:    time.Second,
		PoolSize:          5,
		PoolTimeout:       2 * time.Second,
	})
	h := newHealthHandler(t, pool)

	w, body := getJSON(t, h.HandleHealth, "/api/v1/health/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "Some systems have issues", body["message"])

	db := body["database"].(map[string]any)
	assert.Equal(t, "failed", db["status"])
	assert.Equal(t, "yes", db["pool_configured"])
	assert.Equal(t, "failed", db["connection_test"])

	service := body["service"].(map[string]any)
	assert.Equal(t, "ok", service["status"])
	assert.Equal(t, "apiboot", service["service"])
	assert.Equal(t, "0.1.0", service["version"])
}

func TestHandleHealth_ReachableDatabaseWithoutPoolSize(t *testing.T) {
	h := newHealthHandler(t, newPool(t, sqliteConfig(0)))

	w, body := getJSON(t, h.HandleHealth, "/api/v1/health/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "All systems operational", body["message"])
	assert.Equal(t, map[string]any{
		"status":          "connected",
		"pool_configured": "no",
		"connection_test": "passed",
	}, body["database"])
	assert.Equal(t, body["timestamp"], body["service"].(map[string]any)["timestamp"])
}

func TestHandleHealth_UnconfiguredDatabase(t *testing.T) {
	h := newHealthHandler(t, newPool(t, config.DatabaseConfig{}))

	w, body := getJSON(t, h.HandleHealth, "/api/v1/health/")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "unconfigured", body["database"].(map[string]any)["status"])
}

// =============================================================================
// 🧪 /health/detailed
// =============================================================================

func TestHandleDetailed_Healthy(t *testing.T) {
	pool := newPool(t, sqliteConfig(2))
	svc := health.NewService(pool, zap.NewNop())
	h := newHealthHandler(t, pool, WithDetailedCheck(svc, pool))

	w, body := getJSON(t, h.HandleDetailed, "/api/v1/health/detailed")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, true, checks["database_connection"])
	assert.Equal(t, true, checks["database_query"])
	assert.NotContains(t, checks, "query_error")
}

func TestHandleDetailed_ConnectionFailureIs503(t *testing.T) {
	pool := newPool(t, config.DatabaseConfig{Driver: config.DriverPostgres})
	svc := health.NewService(pool, zap.NewNop())
	h := newHealthHandler(t, pool, WithDetailedCheck(svc, pool))

	w, body := getJSON(t, h.HandleDetailed, "/api/v1/health/detailed")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, false, body["checks"].(map[string]any)["database_connection"])
	assert.Equal(t, "failed", body["connection_info"].(map[string]any)["status"])
}

func TestHandleDetailed_QueryFailureIs200(t *testing.T) {
	h := newHealthHandler(t, newPool(t, sqliteConfig(1)), WithDetailedCheck(stubDetailed{
		report: health.DetailedStatus{
			Status:  health.StatusUnhealthy,
			Message: health.MessageUnhealthy,
			Checks: health.DetailedChecks{
				DatabaseConnection: true,
				QueryError:         "permission denied",
			},
		},
	}, nil))

	w, body := getJSON(t, h.HandleDetailed, "/api/v1/health/detailed")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "permission denied", body["checks"].(map[string]any)["query_error"])
}

func TestHandleDetailed_PlainErrorDefaultsTo503(t *testing.T) {
	h := newHealthHandler(t, newPool(t, sqliteConfig(1)), WithDetailedCheck(stubDetailed{
		err: errors.New("boom"),
	}, nil))

	w, _ := getJSON(t, h.HandleDetailed, "/api/v1/health/detailed")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHandleDetailed_NotConfigured(t *testing.T) {
	h := newHealthHandler(t, newPool(t, sqliteConfig(1)))

	w, body := getJSON(t, h.HandleDetailed, "/api/v1/health/detailed")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, false, body["success"])
}

// =============================================================================
// 🧪 /healthz /readyz /version
// =============================================================================

func TestHandleHealthz(t *testing.T) {
	h := newHealthHandler(t, newPool(t, config.DatabaseConfig{}))

	w, body := getJSON(t, h.HandleHealthz, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", body["status"])
}

func TestHandleReady(t *testing.T) {
	pool := newPool(t, sqliteConfig(1))

	t.Run("all dependencies ready", func(t *testing.T) {
		r := health.NewReadiness(time.Second, nil, zap.NewNop())
		r.Register(health.NewCheck("database", pool.Ping))
		h := newHealthHandler(t, pool, WithReadiness(r))

		w := httptest.NewRecorder()
		h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp api.ReadinessResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "ready", resp.Status)
		assert.Equal(t, "pass", resp.Checks["database"].Status)
	})

	t.Run("dependency down", func(t *testing.T) {
		r := health.NewReadiness(time.Second, nil, zap.NewNop())
		r.Register(health.NewCheck("database", pool.Ping))
		r.Register(health.NewCheck("redis", func(context.Context) error {
			return errors.New("dial tcp: connection refused")
		}))
		h := newHealthHandler(t, pool, WithReadiness(r))

		w := httptest.NewRecorder()
		h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		var resp api.ReadinessResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "not_ready", resp.Status)
		assert.Equal(t, "pass", resp.Checks["database"].Status)
		assert.Equal(t, "fail", resp.Checks["redis"].Status)
		assert.Contains(t, resp.Checks["redis"].Message, "connection refused")
	})

	t.Run("no checks registered", func(t *testing.T) {
		h := newHealthHandler(t, pool)
		w := httptest.NewRecorder()
		h.HandleReady(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestHandleVersion(t *testing.T) {
	h := newHealthHandler(t, newPool(t, config.DatabaseConfig{}), WithVersionInfo(api.VersionInfo{
		Service:   "apiboot",
		Version:   "0.1.0",
		BuildTime: "2026-01-01T00:00:00Z",
		GitCommit: "abc1234",
	}))

	w, body := getJSON(t, h.HandleVersion, "/version")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "0.1.0", data["version"])
	assert.Equal(t, "abc1234", data["git_commit"])
}

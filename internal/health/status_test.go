package health

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/BaSui01/apiboot/internal/database"
)

var fixedNow = time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)

func connectedDB() DatabaseStatus {
	return DatabaseStatus{
		Status:         database.StatusConnected,
		PoolConfigured: "yes",
		ConnectionTest: database.TestPassed,
	}
}

func TestEvaluate_Table(t *testing.T) {
	tests := []struct {
		name          string
		serviceStatus string
		dbStatus      string
		wantStatus    string
		wantMessage   string
	}{
		{"ok and connected", StatusOK, database.StatusConnected, StatusHealthy, MessageHealthy},
		{"ok and failed", StatusOK, database.StatusFailed, StatusUnhealthy, MessageUnhealthy},
		{"ok and unconfigured", StatusOK, database.StatusUnconfigured, StatusUnhealthy, MessageUnhealthy},
		{"ok and error", StatusOK, database.StatusError, StatusUnhealthy, MessageUnhealthy},
		{"degraded and connected", "degraded", database.StatusConnected, StatusUnhealthy, MessageUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewServiceStatus("apiboot", "1.0.0", fixedNow)
			svc.Status = tt.serviceStatus
			db := connectedDB()
			db.Status = tt.dbStatus

			hs := Evaluate(svc, db)
			assert.Equal(t, tt.wantStatus, hs.Status)
			assert.Equal(t, tt.wantMessage, hs.Message)
			assert.Equal(t, svc.Timestamp, hs.Timestamp)
			assert.Equal(t, svc, hs.Service)
			assert.Equal(t, db, hs.Database)
		})
	}
}

func TestEvaluate_IsLogicalAnd(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		svcStatus := rapid.OneOf(
			rapid.SampledFrom([]string{StatusOK, "error", "degraded", ""}),
			rapid.String(),
		).Draw(t, "service_status")
		dbStatus := rapid.OneOf(
			rapid.SampledFrom([]string{
				database.StatusConnected,
				database.StatusFailed,
				database.StatusUnconfigured,
				database.StatusError,
			}),
			rapid.String(),
		).Draw(t, "database_status")

		svc := NewServiceStatus("svc", "v", fixedNow)
		svc.Status = svcStatus
		db := DatabaseStatus{Status: dbStatus}

		hs := Evaluate(svc, db)

		want := svcStatus == StatusOK && dbStatus == database.StatusConnected
		if hs.Healthy() != want {
			t.Fatalf("Evaluate(%q, %q) healthy=%v, want %v", svcStatus, dbStatus, hs.Healthy(), want)
		}
		if want && hs.Message != MessageHealthy {
			t.Fatalf("healthy status carries message %q", hs.Message)
		}
		if !want && hs.Message != MessageUnhealthy {
			t.Fatalf("unhealthy status carries message %q", hs.Message)
		}
	})
}

func TestEvaluate_TimestampProperty(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("top-level timestamp mirrors service timestamp", prop.ForAll(
		func(offset int64, dbStatus string) bool {
			svc := NewServiceStatus("svc", "v", fixedNow.Add(time.Duration(offset)*time.Second))
			hs := Evaluate(svc, DatabaseStatus{Status: dbStatus})
			return hs.Timestamp.Equal(svc.Timestamp)
		},
		gen.Int64Range(-1_000_000, 1_000_000),
		gen.OneConstOf(database.StatusConnected, database.StatusFailed, database.StatusUnconfigured, database.StatusError),
	))

	properties.TestingRun(t)
}

func TestNewServiceStatus(t *testing.T) {
	local := time.FixedZone("UTC+8", 8*3600)
	svc := NewServiceStatus("apiboot", "0.1.0", fixedNow.In(local))

	assert.Equal(t, StatusOK, svc.Status)
	assert.Equal(t, "apiboot", svc.Service)
	assert.Equal(t, "0.1.0", svc.Version)
	assert.Equal(t, time.UTC, svc.Timestamp.Location())
	assert.True(t, svc.Timestamp.Equal(fixedNow))
}

func TestHealthStatus_JSONShape(t *testing.T) {
	hs := Evaluate(NewServiceStatus("apiboot", "0.1.0", fixedNow), DatabaseStatus{
		Status:         database.StatusFailed,
		PoolConfigured: "yes",
		ConnectionTest: database.TestFailed,
	})

	raw, err := json.Marshal(hs)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &body))

	assert.Equal(t, "unhealthy", body["status"])
	assert.Equal(t, "Some systems have issues", body["message"])
	assert.Equal(t, "2026-03-01T12:30:00Z", body["timestamp"])

	service := body["service"].(map[string]interface{})
	assert.Equal(t, "ok", service["status"])
	assert.Equal(t, "apiboot", service["service"])
	assert.Equal(t, "0.1.0", service["version"])
	assert.Equal(t, "2026-03-01T12:30:00Z", service["timestamp"])

	db := body["database"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{
		"status":          "failed",
		"pool_configured": "yes",
		"connection_test": "failed",
	}, db)
}

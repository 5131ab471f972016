package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/BaSui01/apiboot/config"
	"github.com/BaSui01/apiboot/internal/database"
	"github.com/BaSui01/apiboot/types"
)

type failingOpener struct {
	err   error
	calls int
}

func (o *failingOpener) WithSession(context.Context, func(*database.Session) error) error {
	o.calls++
	return o.err
}

func sqlitePool(t *testing.T) *database.PoolManager {
	t.Helper()
	pool := database.NewPoolManager(config.DatabaseConfig{
		Driver:         config.DriverSQLite,
		Name:           ":memory:",
		PoolSize:       2,
		PoolTimeout:    2 * time.Second,
		CommandTimeout: 2 * time.Second,
	}, zap.NewNop())
	t.Cleanup(func() { pool.Close() })
	return pool
}

func TestService_Healthy(t *testing.T) {
	pool := sqlitePool(t)
	rec := &recordingRecorder{}
	svc := NewService(pool, zap.NewNop(), WithClock(clock()), WithRecorder(rec))

	report, err := svc.Check(context.Background(), pool)
	require.NoError(t, err)

	assert.True(t, report.Healthy())
	assert.Equal(t, MessageHealthy, report.Message)
	assert.Equal(t, fixedNow, report.Timestamp)
	assert.True(t, report.Checks.DatabaseConnection)
	assert.True(t, report.Checks.DatabaseQuery)
	assert.Empty(t, report.Checks.QueryError)
	assert.Equal(t, database.StatusConnected, report.ConnectionInfo.Status)
	assert.Equal(t, []verdict{{"detailed", true}}, rec.verdicts)

	// 会话已归还
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestService_ConnectionFailureIsHard(t *testing.T) {
	prober := &stubProber{info: database.ConnectionInfo{
		Status:         database.StatusFailed,
		PoolConfigured: "yes",
		ConnectionTest: database.TestFailed,
	}}
	opener := &failingOpener{}
	core, logs := observer.New(zapcore.ErrorLevel)
	svc := NewService(prober, zap.New(core))

	report, err := svc.Check(context.Background(), opener)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDatabaseConnection))
	assert.True(t, types.IsErrorCode(err, types.ErrDatabaseConnection))
	assert.Equal(t, 0, opener.calls, "query must not run when the connection probe fails")

	assert.False(t, report.Healthy())
	assert.False(t, report.Checks.DatabaseConnection)
	assert.False(t, report.Checks.DatabaseQuery)
	assert.Equal(t, database.StatusFailed, report.ConnectionInfo.Status)
	assert.Equal(t, 1, logs.FilterMessage("database connection test failed").Len())
}

func TestService_QueryFailureIsSoft(t *testing.T) {
	prober := &stubProber{info: connectedDB()}
	opener := &failingOpener{
		err: types.NewError(types.ErrQueryExecution, "query failed").WithCause(errors.New("permission denied")),
	}
	core, logs := observer.New(zapcore.ErrorLevel)
	svc := NewService(prober, zap.New(core))

	report, err := svc.Check(context.Background(), opener)

	require.NoError(t, err)
	assert.Equal(t, 1, opener.calls)
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, MessageUnhealthy, report.Message)
	assert.True(t, report.Checks.DatabaseConnection)
	assert.False(t, report.Checks.DatabaseQuery)
	assert.Contains(t, report.Checks.QueryError, "permission denied")
	assert.Equal(t, 1, logs.FilterMessage("database query test failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("health check failed").Len())
}

func TestService_SessionOpenFailureIsSoft(t *testing.T) {
	prober := &stubProber{info: connectedDB()}
	opener := &failingOpener{
		err: types.NewError(types.ErrConnection, "failed to check out connection").WithCause(context.DeadlineExceeded),
	}
	svc := NewService(prober, zap.NewNop())

	report, err := svc.Check(context.Background(), opener)

	require.NoError(t, err)
	assert.False(t, report.Healthy())
	assert.Contains(t, report.Checks.QueryError, "check out connection")
}

func TestService_NilOpener(t *testing.T) {
	svc := NewService(&stubProber{info: connectedDB()}, zap.NewNop())

	report, err := svc.Check(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, report.Checks.DatabaseQuery)
	assert.NotEmpty(t, report.Checks.QueryError)
}

func TestService_UnconfiguredDatabase(t *testing.T) {
	pool := database.NewPoolManager(config.DatabaseConfig{}, zap.NewNop())
	svc := NewService(pool, zap.NewNop())

	report, err := svc.Check(context.Background(), pool)
	assert.ErrorIs(t, err, ErrDatabaseConnection)
	assert.Equal(t, database.StatusUnconfigured, report.ConnectionInfo.Status)
}

func TestErrDatabaseConnection(t *testing.T) {
	assert.Equal(t, types.ErrDatabaseConnection, ErrDatabaseConnection.Code)
	assert.Equal(t, 503, ErrDatabaseConnection.HTTPStatus)
}

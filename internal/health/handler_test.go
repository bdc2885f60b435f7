package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

type healthEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    Status `json:"data"`
}

func check(t *testing.T, p Pinger) (*httptest.ResponseRecorder, healthEnvelope) {
	t.Helper()
	h := NewHandler(p, zap.NewNop().Sugar())
	h.started = time.Now().Add(-time.Minute)
	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	var env healthEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestCheck_Healthy(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	rec, env := check(t, db)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "System is healthy", env.Message)
	assert.Equal(t, "UP", env.Data.Status)
	assert.Equal(t, "Connected", env.Data.Database)
	assert.GreaterOrEqual(t, env.Data.Uptime, 60.0)
	require.NotNil(t, env.Data.Memory)
	assert.Equal(t, "MB", env.Data.Memory.Unit)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheck_Unhealthy(t *testing.T) {
	rec, env := check(t, pingFunc(func(context.Context) error { return errors.New("connection refused") }))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, env.Success)
	assert.Equal(t, "System is unhealthy", env.Message)
	assert.Equal(t, "DOWN", env.Data.Status)
	assert.Equal(t, "Disconnected", env.Data.Database)
	assert.Equal(t, "connection refused", env.Data.Error)
	assert.Nil(t, env.Data.Memory)
}

func TestCheck_PingHasDeadline(t *testing.T) {
	var deadline time.Time
	var ok bool
	check(t, pingFunc(func(ctx context.Context) error {
		deadline, ok = ctx.Deadline()
		return nil
	}))
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(pingTimeout), deadline, time.Second)
}

func TestHeapMemory(t *testing.T) {
	const mb = 1024 * 1024
	m := heapMemory(&runtime.MemStats{HeapAlloc: 12 * mb, HeapSys: 32 * mb, Sys: 300 * mb})
	assert.Equal(t, &Memory{Used: 12, Total: 32, Unit: "MB"}, m)
}

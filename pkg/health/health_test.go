package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestRun_WorstStatusWins(t *testing.T) {
	c := NewChecker()
	c.Register("a", func(context.Context) ComponentHealth { return ComponentHealth{Status: StatusUp} })
	c.Register("b", func(context.Context) ComponentHealth { return ComponentHealth{Status: StatusDegraded} })
	assert.Equal(t, StatusDegraded, c.Run(context.Background()).Status)

	c.Register("c", func(context.Context) ComponentHealth { return ComponentHealth{Status: StatusDown} })
	report := c.Run(context.Background())
	assert.Equal(t, StatusDown, report.Status)
	assert.Len(t, report.Components, 3)
}

func TestPingCheck(t *testing.T) {
	ctx := context.Background()
	failing := pingFunc(func(context.Context) error { return errors.New("refused") })
	ok := pingFunc(func(context.Context) error { return nil })

	assert.Equal(t, StatusUp, PingCheck(ok, false)(ctx).Status)
	assert.Equal(t, StatusUp, PingCheck(nil, false)(ctx).Status)
	assert.Equal(t, StatusDown, PingCheck(failing, false)(ctx).Status)

	degraded := PingCheck(failing, true)(ctx)
	assert.Equal(t, StatusDegraded, degraded.Status)
	assert.Equal(t, "refused", degraded.Message)
}

func TestReadyHandler(t *testing.T) {
	ready := false
	c := NewChecker()
	c.Register("model", ConditionCheck(func() bool { return ready }, "model not loaded"))

	rec := httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var report Report
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&report))
	assert.Equal(t, "model not loaded", report.Components["model"].Message)

	ready = true
	rec = httptest.NewRecorder()
	c.ReadyHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLiveHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	NewChecker().LiveHandler()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skalibog/galilei/internal/config"
	"github.com/skalibog/galilei/internal/flowstate"
	"github.com/skalibog/galilei/internal/notify"
	"github.com/skalibog/galilei/internal/scheduler"
	"github.com/skalibog/galilei/internal/storage"
	"github.com/skalibog/galilei/internal/strategy"
	"github.com/skalibog/galilei/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type silentNotifier struct{}

func (silentNotifier) Send(context.Context, string) error { return nil }

var _ notify.Notifier = silentNotifier{}

func newTestServer(degraded scheduler.DegradedFunc) (*Server, *flowstate.Store) {
	cfg := &config.Config{}
	cfg.Trading.Interval = "15m"
	store := flowstate.NewStore(3)
	sched := scheduler.New(cfg, nil, store, nil, &strategy.FlowStrategy{},
		silentNotifier{}, storage.Noop{}, degraded)
	srv := New(config.ServerConfig{Addr: ":0"}, sched, store, degraded)
	srv.baseCtx = context.Background()
	return srv, store
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	srv.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "idle", body["phase"])
}

func TestFlowState(t *testing.T) {
	srv, store := newTestServer(func() bool { return true })
	store.RecordTrade(models.Trade{Symbol: "BTCUSDT", Side: models.Buy, Quantity: 2.5})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/flowstate", nil)
	srv.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var snap models.FlowSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &snap))
	assert.True(t, snap.Degraded)
	require.Len(t, snap.Symbols, 1)
	assert.Equal(t, "BTCUSDT", snap.Symbols[0].Symbol)
	assert.InDelta(t, 2.5, snap.Symbols[0].CVD, 1e-9)
}

func TestRunCycleAccepted(t *testing.T) {
	srv, _ := newTestServer(nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/run", nil)
	srv.router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
}

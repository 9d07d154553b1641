package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbot/internal/ports"
)

var (
	_ ports.Metrics = (*Prometheus)(nil)
	_ ports.Metrics = Nop{}
)

func TestPrometheus_Counters(t *testing.T) {
	m := NewPrometheus(prometheus.Labels{"symbol": "BTC/USDT"})

	m.TickCompleted()
	m.TickCompleted()
	m.Fault("fetch")
	m.Fault("fetch")
	m.Fault("order")
	m.Order("BUY", true)
	m.Order("SELL", false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.faults.WithLabelValues("fetch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.faults.WithLabelValues("order")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("BUY", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orders.WithLabelValues("SELL", "failed")))
}

func TestPrometheus_Gauges(t *testing.T) {
	m := NewPrometheus(nil)

	m.PositionOpen(true)
	m.Indicators(65000.5, 42.1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.positionOpen))
	assert.Equal(t, 65000.5, testutil.ToFloat64(m.lastPrice))
	assert.Equal(t, 42.1, testutil.ToFloat64(m.rsi))

	m.PositionOpen(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.positionOpen))
}

func TestPrometheus_Handler(t *testing.T) {
	m := NewPrometheus(prometheus.Labels{"mode": "paper"})
	m.TickCompleted()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `trailbot_ticks_total{mode="paper"} 1`), body)
}

package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbot/internal/domain"
)

func TestRouter(t *testing.T) {
	var pos *domain.Position
	lines := []string{"started", "tick"}
	r := NewRouter(NewPrometheus(nil), func() *domain.Position { return pos }, func() string { return strings.Join(lines, "\n") })

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	assert.Equal(t, http.StatusOK, get("/metrics").Code)
	assert.Equal(t, "started\ntick\n", get("/console").Body.String())

	rec = get("/position")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"open":false}`, rec.Body.String())

	pos = &domain.Position{
		Symbol:            "BTC/USDT",
		EntryPrice:        100,
		PeakPrice:         104,
		Quantity:          0.5,
		TrailingActivated: true,
		EntryTime:         time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Status:            domain.StatusOpen,
	}
	rec = get("/position")
	var view positionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Open)
	assert.Equal(t, 104.0, view.PeakPrice)
	assert.Equal(t, "2024-01-02T03:04:05Z", view.EntryTime)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/healthz", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Equal(t, http.StatusNotFound, get("/nope").Code)
}

func TestRouter_OptionalSources(t *testing.T) {
	r := NewRouter(NewPrometheus(nil), nil, nil)
	for _, path := range []string{"/position", "/console"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusNotFound, rec.Code, path)
	}
}

func TestRouter_EmptyConsole(t *testing.T) {
	r := NewRouter(NewPrometheus(nil), nil, func() string { return "" })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/console", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

package metrics

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"trailbot/internal/domain"
)

// PositionSource reports the open position, or nil when flat. It must be safe
// to call from the HTTP goroutine.
type PositionSource func() *domain.Position

// ConsoleSource returns the operator log as newline-joined text, oldest first.
type ConsoleSource func() string

// NewRouter serves /metrics and /healthz, plus /position and /console for the
// sources that are non-nil.
func NewRouter(p *Prometheus, position PositionSource, console ConsoleSource) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", p.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)

	if position != nil {
		r.HandleFunc("/position", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			pos := position()
			if pos == nil {
				_, _ = w.Write([]byte(`{"open":false}` + "\n"))
				return
			}
			_ = json.NewEncoder(w).Encode(positionView{
				Open:              true,
				Symbol:            pos.Symbol,
				EntryPrice:        pos.EntryPrice,
				PeakPrice:         pos.PeakPrice,
				Quantity:          pos.Quantity,
				TrailingActivated: pos.TrailingActivated,
				EntryTime:         pos.EntryTime.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}).Methods(http.MethodGet)
	}

	if console != nil {
		r.HandleFunc("/console", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			if text := console(); text != "" {
				_, _ = w.Write([]byte(text + "\n"))
			}
		}).Methods(http.MethodGet)
	}
	return r
}

type positionView struct {
	Open              bool    `json:"open"`
	Symbol            string  `json:"symbol"`
	EntryPrice        float64 `json:"entry_price"`
	PeakPrice         float64 `json:"peak_price"`
	Quantity          float64 `json:"quantity"`
	TrailingActivated bool    `json:"trailing_activated"`
	EntryTime         string  `json:"entry_time"`
}

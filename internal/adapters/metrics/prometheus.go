package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "trailbot"

// Prometheus implements ports.Metrics on a dedicated registry.
type Prometheus struct {
	registry *prometheus.Registry

	ticks        prometheus.Counter
	faults       *prometheus.CounterVec
	orders       *prometheus.CounterVec
	positionOpen prometheus.Gauge
	lastPrice    prometheus.Gauge
	rsi          prometheus.Gauge
}

// NewPrometheus registers the bot's collectors. labels are attached to every series.
func NewPrometheus(labels prometheus.Labels) *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "ticks_total",
			Help:        "Polling loop iterations.",
			ConstLabels: labels,
		}),
		faults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "faults_total",
			Help:        "Recoverable faults by kind.",
			ConstLabels: labels,
		}, []string{"kind"}),
		orders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "orders_total",
			Help:        "Market orders by side and result.",
			ConstLabels: labels,
		}, []string{"side", "result"}),
		positionOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "position_open",
			Help:        "1 while a position is held.",
			ConstLabels: labels,
		}),
		lastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "last_price",
			Help:        "Close of the most recent candle.",
			ConstLabels: labels,
		}),
		rsi: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "rsi",
			Help:        "Most recent RSI value.",
			ConstLabels: labels,
		}),
	}
	p.registry.MustRegister(p.ticks, p.faults, p.orders, p.positionOpen, p.lastPrice, p.rsi)
	return p
}

// Registry exposes the underlying registry.
func (p *Prometheus) Registry() *prometheus.Registry {
	return p.registry
}

// Handler serves the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

func (p *Prometheus) TickCompleted() {
	p.ticks.Inc()
}

func (p *Prometheus) Fault(kind string) {
	p.faults.WithLabelValues(kind).Inc()
}

func (p *Prometheus) Order(side string, ok bool) {
	result := "ok"
	if !ok {
		result = "failed"
	}
	p.orders.WithLabelValues(side, result).Inc()
}

func (p *Prometheus) PositionOpen(open bool) {
	if open {
		p.positionOpen.Set(1)
		return
	}
	p.positionOpen.Set(0)
}

func (p *Prometheus) Indicators(price, rsi float64) {
	p.lastPrice.Set(price)
	p.rsi.Set(rsi)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) TickCompleted()              {}
func (Nop) Fault(string)                {}
func (Nop) Order(string, bool)          {}
func (Nop) PositionOpen(bool)           {}
func (Nop) Indicators(float64, float64) {}

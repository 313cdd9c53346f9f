package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/propertytek/rentbot/pkg/domain"
)

// Metrics groups the assistant's collectors.
type Metrics struct {
	gatherer prometheus.Gatherer

	turns        *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	fallbacks    *prometheus.CounterVec
	evictions    prometheus.Counter
	bookings     *prometheus.CounterVec
	searches     *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewMetricsWith(reg, reg)
}

// NewMetricsWith registers the collectors on reg and serves them from g.
func NewMetricsWith(reg prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		gatherer: g,
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentbot_turns_total",
				Help: "Conversation turns handled, by intent and error kind",
			},
			[]string{"intent", "error"},
		),
		turnDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "rentbot_turn_duration_seconds",
				Help:    "Time spent handling one turn",
				Buckets: []float64{.01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"path"},
		),
		fallbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentbot_nlu_fallbacks_total",
				Help: "Language model calls answered by the offline fallback",
			},
			[]string{"op"},
		),
		evictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rentbot_sessions_evicted_total",
				Help: "Sessions removed for idleness or capacity",
			},
		),
		bookings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentbot_bookings_total",
				Help: "Booking flows that reached a terminal state",
			},
			[]string{"state"},
		),
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rentbot_searches_total",
				Help: "Catalog searches, by whether anything matched",
			},
			[]string{"matched"},
		),
	}
	reg.MustRegister(m.turns, m.turnDuration, m.fallbacks, m.evictions, m.bookings, m.searches)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveTurn records one handled turn.
func (m *Metrics) ObserveTurn(path string, intent domain.Intent, kind domain.ErrorKind, d time.Duration) {
	if m == nil {
		return
	}
	label := string(kind)
	if label == "" {
		label = "none"
	}
	in := string(intent)
	if in == "" {
		in = "none"
	}
	m.turns.WithLabelValues(in, label).Inc()
	m.turnDuration.WithLabelValues(path).Observe(d.Seconds())
}

// NLUFallback counts one fallback for op ("analyze" or "summarize").
func (m *Metrics) NLUFallback(op string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(op).Inc()
}

// Evicted counts removed sessions.
func (m *Metrics) Evicted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.evictions.Add(float64(n))
}

// Booking counts a booking reaching state.
func (m *Metrics) Booking(state domain.BookingState) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(string(state)).Inc()
}

// Search counts a catalog search.
func (m *Metrics) Search(matched bool) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(strconv.FormatBool(matched)).Inc()
}

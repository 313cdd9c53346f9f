package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/propertytek/rentbot/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Record(t *testing.T) {
	m := NewMetrics()

	m.ObserveTurn("search", domain.IntentPropertySearch, "", 20*time.Millisecond)
	m.ObserveTurn("search", domain.IntentPropertySearch, domain.KindMarketRejected, time.Millisecond)
	m.NLUFallback("analyze")
	m.Evicted(3)
	m.Evicted(0)
	m.Booking(domain.BookingComplete)
	m.Search(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("property_search", "none")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.turns.WithLabelValues("property_search", "market_rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("analyze")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.evictions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookings.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.searches.WithLabelValues("false")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveTurn("x", "", "", 0)
		m.NLUFallback("summarize")
		m.Evicted(1)
		m.Booking(domain.BookingCancelled)
		m.Search(true)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := NewMetrics()
	m.Evicted(2)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "rentbot_sessions_evicted_total 2")
}

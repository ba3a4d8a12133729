package gin

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the extraction service's Prometheus metrics.
type Metrics struct {
	// Sessions counts finished sessions by outcome stage ("ok" on success).
	Sessions *prometheus.CounterVec
	// SessionDuration observes wall time of finished sessions.
	SessionDuration prometheus.Histogram
	// ReviewsExtracted counts review records returned to clients.
	ReviewsExtracted prometheus.Counter
	// PagesVisited observes the number of pages per successful session.
	PagesVisited prometheus.Histogram
	// ActiveSessions is the number of sessions currently running.
	ActiveSessions prometheus.Gauge
}

// NewMetrics registers the metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Sessions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "revex",
			Name:      "sessions_total",
			Help:      "Extraction sessions by outcome stage.",
		}, []string{"stage"}),
		SessionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "revex",
			Name:      "session_duration_seconds",
			Help:      "Duration of extraction sessions.",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 80, 160, 320},
		}),
		ReviewsExtracted: f.NewCounter(prometheus.CounterOpts{
			Namespace: "revex",
			Name:      "reviews_extracted_total",
			Help:      "Review records returned to clients.",
		}),
		PagesVisited: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "revex",
			Name:      "pages_per_session",
			Help:      "Pages extracted per successful session.",
			Buckets:   prometheus.LinearBuckets(1, 5, 10),
		}),
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "revex",
			Name:      "active_sessions",
			Help:      "Extraction sessions currently running.",
		}),
	}
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "parking"

// Metrics holds the Prometheus counters and histograms for the parking service.
type Metrics struct {
	// Parking data proxy metrics.
	ProxyRequests    *prometheus.CounterVec // labels: outcome={success,bad_request,upstream_error}
	UpstreamDuration prometheus.Histogram
	UpstreamUp       prometheus.Gauge
	SpotsReturned    prometheus.Histogram

	// Place search metrics.
	PlacesRequests    *prometheus.CounterVec   // labels: method={search,lookup}, outcome={success,error,empty}
	PlacesCache       *prometheus.CounterVec   // labels: method={search,lookup}, result={hit,miss}
	PlacesAPIDuration *prometheus.HistogramVec // labels: method={search,lookup}
	PlacesEnabled     prometheus.Gauge

	// Lookup event publishing.
	EventsPublished    prometheus.Counter
	EventPublishErrors prometheus.Counter
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ProxyRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proxy_requests_total",
			Help:      "Parking data proxy requests by outcome.",
		}, []string{"outcome"}),
		UpstreamDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_duration_seconds",
			Help:      "Parking map API request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		UpstreamUp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "upstream_up",
			Help:      "1 when the last parking map API call succeeded, 0 otherwise.",
		}),
		SpotsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "spots_returned",
			Help:      "Number of parking facilities in each upstream response.",
			Buckets:   []float64{0, 10, 50, 100, 250, 500, 1000, 2000},
		}),
		PlacesRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "places_requests_total",
			Help:      "Mapbox place requests by method and outcome.",
		}, []string{"method", "outcome"}),
		PlacesCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "places_cache_total",
			Help:      "Place cache lookups by method and result.",
		}, []string{"method", "result"}),
		PlacesAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "places_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method"}),
		PlacesEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "places_enabled",
			Help:      "1 when Mapbox place search is enabled, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Lookup events written to Kafka.",
		}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Lookup events that failed to write to Kafka.",
		}),
	}

	prometheus.MustRegister(
		m.ProxyRequests,
		m.UpstreamDuration,
		m.UpstreamUp,
		m.SpotsReturned,
		m.PlacesRequests,
		m.PlacesCache,
		m.PlacesAPIDuration,
		m.PlacesEnabled,
		m.EventsPublished,
		m.EventPublishErrors,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ProxyRequests:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "proxy_requests_total"}, []string{"outcome"}),
		UpstreamDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "upstream_duration_seconds"}),
		UpstreamUp:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "upstream_up"}),
		SpotsReturned:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "spots_returned"}),
		PlacesRequests:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "places_requests_total"}, []string{"method", "outcome"}),
		PlacesCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "places_cache_total"}, []string{"method", "result"}),
		PlacesAPIDuration:  prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: namespace, Name: "places_api_duration_seconds"}, []string{"method"}),
		PlacesEnabled:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "places_enabled"}),
		EventsPublished:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "events_published_total"}),
		EventPublishErrors: prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "event_publish_errors_total"}),
	}
}

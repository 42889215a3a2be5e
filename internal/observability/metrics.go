package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "restaurant_weather_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the enrichment run.
type Metrics struct {
	RowsRead        *prometheus.CounterVec // labels: dataset={restaurant,weather}
	MissingCoords   *prometheus.CounterVec // labels: dataset={restaurant,weather}
	RepairOutcomes  *prometheus.CounterVec // labels: outcome={override,present,resolved,unresolved,failed,skipped}
	WeatherGroups   prometheus.Gauge
	JoinedRows      *prometheus.CounterVec // labels: match={matched,unmatched}
	DuplicatesFound prometheus.Counter
	RowsWritten     *prometheus.CounterVec // labels: sink
	RunDuration     prometheus.Histogram
	PipelineRunning prometheus.Gauge

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={resolved,unresolved,error}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

func newMetrics() *Metrics {
	return &Metrics{
		RowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_read_total",
			Help:      "Rows read from each input dataset.",
		}, []string{"dataset"}),
		MissingCoords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "missing_coordinates_total",
			Help:      "Input rows lacking latitude or longitude before repair.",
		}, []string{"dataset"}),
		RepairOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coordinate_repair_total",
			Help:      "Restaurant records by coordinate repair outcome.",
		}, []string{"outcome"}),
		WeatherGroups: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "weather_groups",
			Help:      "Distinct geohash buckets in the last weather aggregation.",
		}),
		JoinedRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "joined_rows_total",
			Help:      "Joined restaurant rows by whether weather matched.",
		}, []string{"match"}),
		DuplicatesFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "duplicate_rows_total",
			Help:      "Exact duplicate rows removed after the join.",
		}),
		RowsWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_written_total",
			Help:      "Enriched rows written per sink.",
		}, []string{"sink"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete enrichment run.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 while a run is in progress, 0 otherwise.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "OpenCage API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RowsRead,
		m.MissingCoords,
		m.RepairOutcomes,
		m.WeatherGroups,
		m.JoinedRows,
		m.DuplicatesFound,
		m.RowsWritten,
		m.RunDuration,
		m.PipelineRunning,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds all Prometheus collectors of the guide backend. Fields
// stay nil until Init is called; the recording helpers below are no-ops
// in that state so services can run uninstrumented in tests and CLI jobs.
var Collectors = struct {
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	QuotaUnits       *prometheus.CounterVec
	QuotaLogFailures prometheus.Counter
	RefreshCycles    *prometheus.CounterVec
	RefreshDuration  *prometheus.HistogramVec
	EventsUpserted   prometheus.Counter
	EventsDeleted    prometheus.Counter
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	DBPoolActive     prometheus.GaugeFunc
	DBPoolIdle       prometheus.GaugeFunc
}{}

// Init registers all metrics. Call once at startup.
func Init(pool *pgxpool.Pool) {
	Collectors.RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tvguide_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	)

	Collectors.RequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tvguide_requests_in_flight",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	Collectors.QuotaUnits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tvguide_quota_units_total",
			Help: "YouTube Data API quota units spent, by operation.",
		},
		[]string{"operation"},
	)

	Collectors.QuotaLogFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tvguide_quota_log_failures_total",
			Help: "Quota ledger writes that failed and were dropped.",
		},
	)

	Collectors.RefreshCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tvguide_refresh_cycles_total",
			Help: "Refresh cycles run, by strategy and outcome.",
		},
		[]string{"strategy", "outcome"},
	)

	Collectors.RefreshDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tvguide_refresh_duration_seconds",
			Help:    "Duration of refresh cycles.",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"strategy"},
	)

	Collectors.EventsUpserted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tvguide_events_upserted_total",
			Help: "Scheduled events created or updated by reconciliation.",
		},
	)

	Collectors.EventsDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tvguide_events_deleted_total",
			Help: "Scheduled events removed by the retention sweep.",
		},
	)

	Collectors.CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tvguide_cache_hits_total",
			Help: "Redis cache hits, by cache.",
		},
		[]string{"cache"},
	)

	Collectors.CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tvguide_cache_misses_total",
			Help: "Redis cache misses, by cache.",
		},
		[]string{"cache"},
	)

	if pool != nil {
		Collectors.DBPoolActive = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "tvguide_db_connection_pool_active",
				Help: "Number of active database connections.",
			},
			func() float64 {
				return float64(pool.Stat().AcquiredConns())
			},
		)

		Collectors.DBPoolIdle = prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "tvguide_db_connection_pool_idle",
				Help: "Number of idle database connections.",
			},
			func() float64 {
				return float64(pool.Stat().IdleConns())
			},
		)

		prometheus.MustRegister(Collectors.DBPoolActive, Collectors.DBPoolIdle)
	}

	prometheus.MustRegister(
		Collectors.RequestDuration,
		Collectors.RequestsInFlight,
		Collectors.QuotaUnits,
		Collectors.QuotaLogFailures,
		Collectors.RefreshCycles,
		Collectors.RefreshDuration,
		Collectors.EventsUpserted,
		Collectors.EventsDeleted,
		Collectors.CacheHits,
		Collectors.CacheMisses,
	)
}

func QuotaSpent(operation string, units int) {
	if Collectors.QuotaUnits != nil {
		Collectors.QuotaUnits.WithLabelValues(operation).Add(float64(units))
	}
}

func QuotaLogFailed() {
	if Collectors.QuotaLogFailures != nil {
		Collectors.QuotaLogFailures.Inc()
	}
}

func RefreshFinished(strategy, outcome string, seconds float64) {
	if Collectors.RefreshCycles != nil {
		Collectors.RefreshCycles.WithLabelValues(strategy, outcome).Inc()
		Collectors.RefreshDuration.WithLabelValues(strategy).Observe(seconds)
	}
}

func EventsUpserted(n int) {
	if Collectors.EventsUpserted != nil {
		Collectors.EventsUpserted.Add(float64(n))
	}
}

func EventsDeleted(n int64) {
	if Collectors.EventsDeleted != nil {
		Collectors.EventsDeleted.Add(float64(n))
	}
}

func CacheHit(cache string) {
	if Collectors.CacheHits != nil {
		Collectors.CacheHits.WithLabelValues(cache).Inc()
	}
}

func CacheMiss(cache string) {
	if Collectors.CacheMisses != nil {
		Collectors.CacheMisses.WithLabelValues(cache).Inc()
	}
}

package metrics

import (
	"database/sql"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "devicedesk_"

// Label values used by the application services.
const (
	ResultSuccess = "success"
	ResultError   = "error"

	IssuanceIssued   = "issued"
	IssuanceRevoked  = "revoked"
	IssuanceRejected = "rejected"
)

var (
	registerOnce sync.Once

	queryTotal   *prometheus.CounterVec
	queryLatency *prometheus.HistogramVec

	issuanceTotal *prometheus.CounterVec

	loginTotal *prometheus.CounterVec
)

// Init registers observability metrics and DB-backed gauges.
func Init(db *sql.DB, logger *log.Logger) {
	registerOnce.Do(func() {
		queryTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "queries_total",
				Help: "Total data-access operations by name and result",
			},
			[]string{"operation", "result"},
		)
		queryLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "query_latency_seconds",
				Help:    "Data-access operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "result"},
		)
		issuanceTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "issuance_total",
				Help: "Total device issuance state changes by outcome",
			},
			[]string{"outcome"},
		)
		loginTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "logins_total",
				Help: "Total login checks by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			queryTotal,
			queryLatency,
			issuanceTotal,
			loginTotal,
		)

		if db != nil {
			registerDBMetrics(db, logger)
		}
	})
}

// ObserveQuery records one data-access operation.
func ObserveQuery(operation, result string, duration time.Duration) {
	if operation == "" {
		operation = "unknown"
	}
	if result == "" {
		result = ResultSuccess
	}
	if queryTotal != nil {
		queryTotal.WithLabelValues(operation, result).Inc()
	}
	if queryLatency != nil {
		queryLatency.WithLabelValues(operation, result).Observe(duration.Seconds())
	}
}

// IncIssuance increments issuance outcome counters.
func IncIssuance(outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	if issuanceTotal != nil {
		issuanceTotal.WithLabelValues(outcome).Inc()
	}
}

// IncLogin increments login result counters.
func IncLogin(result string) {
	if result == "" {
		result = "unknown"
	}
	if loginTotal != nil {
		loginTotal.WithLabelValues(result).Inc()
	}
}

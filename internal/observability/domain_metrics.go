package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	submissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqldrill_submissions_total",
			Help: "Total number of graded submissions by verdict.",
		},
		[]string{"verdict"},
	)
	queryRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqldrill_query_runs_total",
			Help: "Total number of preview (ungraded) query runs.",
		},
	)
	queryDurationMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqldrill_query_duration_ms",
			Help:    "Learner query execution latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2000, 5000},
		},
	)
	referenceTimeoutsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqldrill_reference_timeouts_total",
			Help: "Total number of reference answer evaluations abandoned on timeout.",
		},
	)
	ledgerWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqldrill_ledger_write_failures_total",
			Help: "Total number of failed history ledger writes.",
		},
	)
	reseedsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqldrill_reseeds_total",
			Help: "Total number of practice database reseeds.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		submissionsTotal,
		queryRunsTotal,
		queryDurationMs,
		referenceTimeoutsTotal,
		ledgerWriteFailuresTotal,
		reseedsTotal,
	)
}

func ObserveSubmission(verdict string, elapsed time.Duration) {
	submissionsTotal.WithLabelValues(verdict).Inc()
	queryDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveQueryRun(elapsed time.Duration) {
	queryRunsTotal.Inc()
	queryDurationMs.Observe(float64(elapsed.Milliseconds()))
}

func IncrementReferenceTimeout() {
	referenceTimeoutsTotal.Inc()
}

func IncrementLedgerWriteFailure() {
	ledgerWriteFailuresTotal.Inc()
}

func IncrementReseed() {
	reseedsTotal.Inc()
}

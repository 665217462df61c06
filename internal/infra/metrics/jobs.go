package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		sweepRowsTotal,
		sweepRunsTotal,
	)
}

var (
	sweepRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_rows_total",
			Help: "Rows affected by scheduled sweep jobs, labeled by job name.",
		},
		[]string{"job"},
	)

	sweepRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Sweep job runs, labeled by job name and outcome.",
		},
		[]string{"job", "status"}, // status: 'completed', 'failed', 'skipped'
	)
)

func AddSweepRows(job string, n int) {
	sweepRowsTotal.WithLabelValues(norm(job)).Add(float64(n))
}

func IncSweepRun(job, status string) {
	sweepRunsTotal.WithLabelValues(norm(job), norm(status)).Inc()
}

package tracker

import "github.com/prometheus/client_golang/prometheus"

var (
	trackersRunning = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ecli",
			Subsystem: "trackers",
			Name:      "running",
			Help:      "Number of running trackers",
		},
	)

	trackersStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ecli",
			Subsystem: "trackers",
			Name:      "started_total",
			Help:      "Total number of trackers started",
		},
	)

	trackersFailed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ecli",
			Subsystem: "trackers",
			Name:      "failed_total",
			Help:      "Total number of trackers whose runner failed to start",
		},
	)

	trackersStopped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ecli",
			Subsystem: "trackers",
			Name:      "stopped_total",
			Help:      "Total number of trackers stopped",
		},
	)
)

func init() {
	prometheus.MustRegister(trackersRunning, trackersStarted, trackersFailed, trackersStopped)
}

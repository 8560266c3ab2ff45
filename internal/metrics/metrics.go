// Package metrics defines the Prometheus collectors for alarm generation runs.
//
// Metric naming follows Prometheus conventions:
//   - alarmgen_ prefix for all metrics
//   - _total suffix for counters
//   - _seconds suffix for duration histograms
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder owns a private registry, so its output holds only alarm
// generation metrics. Counters accumulate for the life of the Recorder:
// the CLI creates one per run, a warm Lambda keeps one across invocations.
type Recorder struct {
	registry *prometheus.Registry

	// GroupRunsTotal counts alerting-group runs by terminal state.
	GroupRunsTotal *prometheus.CounterVec
	// AlarmsGeneratedTotal counts built alarm definitions by resource kind.
	AlarmsGeneratedTotal *prometheus.CounterVec
	// ThresholdFallbacksTotal counts lookbacks that returned no datapoints.
	ThresholdFallbacksTotal *prometheus.CounterVec
	// GroupDurationSeconds is a histogram of per-group wall time.
	GroupDurationSeconds prometheus.Histogram
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		GroupRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alarmgen_group_runs_total",
				Help: "Total alerting-group runs by terminal status.",
			},
			[]string{"status"},
		),
		AlarmsGeneratedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alarmgen_alarms_generated_total",
				Help: "Total alarm definitions generated by resource kind.",
			},
			[]string{"kind"},
		),
		ThresholdFallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "alarmgen_threshold_fallbacks_total",
				Help: "Total threshold lookbacks that fell back to the live value.",
			},
			[]string{"kind"},
		),
		GroupDurationSeconds: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "alarmgen_group_duration_seconds",
				Help:    "Duration of alerting-group runs in seconds.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
			},
		),
	}

	r.registry.MustRegister(
		r.GroupRunsTotal,
		r.AlarmsGeneratedTotal,
		r.ThresholdFallbacksTotal,
		r.GroupDurationSeconds,
	)

	return r
}

// ObserveGroup records one group reaching a terminal state.
func (r *Recorder) ObserveGroup(status string, elapsed time.Duration) {
	r.GroupRunsTotal.WithLabelValues(status).Inc()
	r.GroupDurationSeconds.Observe(elapsed.Seconds())
}

func (r *Recorder) AddAlarms(kind string, n int) {
	r.AlarmsGeneratedTotal.WithLabelValues(kind).Add(float64(n))
}

func (r *Recorder) IncThresholdFallback(kind string) {
	r.ThresholdFallbacksTotal.WithLabelValues(kind).Inc()
}

// Gatherer exposes the registry for scraping or tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes the current values in the node-exporter textfile
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("cannot write metrics textfile %q: %w", path, err)
	}
	return nil
}

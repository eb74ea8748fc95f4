// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "paperxai"

// Metrics holds the Prometheus collectors for one process. Collectors live
// in a private registry so a batch run can dump them to a node-exporter
// textfile. All Record methods are safe to call on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	// SourceRequests counts paper API requests by HTTP status ("error" for
	// transport failures).
	SourceRequests *prometheus.CounterVec

	// SourceRequestDuration observes paper API request latency in seconds.
	SourceRequestDuration prometheus.Histogram

	// PapersFetched counts papers parsed from the paper API.
	PapersFetched prometheus.Counter

	// PapersNew is the size of the current-papers view after the last persist.
	PapersNew prometheus.Gauge

	// PapersBase is the size of the base store after the last persist.
	PapersBase prometheus.Gauge

	// PapersPruned counts papers dropped by the retention window.
	PapersPruned prometheus.Counter

	// LLMRequests counts provider calls by provider, operation and outcome.
	LLMRequests *prometheus.CounterVec

	// LLMRequestDuration observes provider latency by provider and operation.
	LLMRequestDuration *prometheus.HistogramVec

	// LLMRetries counts retried provider calls by operation.
	LLMRetries *prometheus.CounterVec

	// QuestionsAnswered counts report questions answered.
	QuestionsAnswered prometheus.Counter

	// Runs counts pipeline runs by command and outcome.
	Runs *prometheus.CounterVec

	// RunDuration observes pipeline run duration in seconds.
	RunDuration prometheus.Histogram

	// LastSuccess is the unix time of the last successful run.
	LastSuccess prometheus.Gauge
}

// NewMetrics creates and registers all collectors in a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SourceRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "requests_total",
			Help:      "Paper API requests by HTTP status.",
		}, []string{"status"}),
		SourceRequestDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "source",
			Name:      "request_duration_seconds",
			Help:      "Paper API request latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		PapersFetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "papers",
			Name:      "fetched_total",
			Help:      "Papers parsed from the paper API.",
		}),
		PapersNew: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "papers",
			Name:      "current",
			Help:      "Papers in the current (new) view after the last persist.",
		}),
		PapersBase: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "papers",
			Name:      "base",
			Help:      "Papers retained in the base store after the last persist.",
		}),
		PapersPruned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "papers",
			Name:      "pruned_total",
			Help:      "Papers dropped by the retention window.",
		}),
		LLMRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "requests_total",
			Help:      "Language-model calls by provider, operation and outcome.",
		}, []string{"provider", "operation", "outcome"}),
		LLMRequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "request_duration_seconds",
			Help:      "Language-model call latency.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"provider", "operation"}),
		LLMRetries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "llm",
			Name:      "retries_total",
			Help:      "Retried language-model calls by operation.",
		}, []string{"operation"}),
		QuestionsAnswered: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "questions_answered_total",
			Help:      "Report questions answered.",
		}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by command and outcome.",
		}, []string{"command", "outcome"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Pipeline run duration.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
		LastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordSourceRequest records one paper API request.
func (m *Metrics) RecordSourceRequest(status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if status > 0 {
		label = fmt.Sprintf("%d", status)
	}
	m.SourceRequests.WithLabelValues(label).Inc()
	m.SourceRequestDuration.Observe(elapsed.Seconds())
}

// RecordFetched adds n to the fetched-papers counter.
func (m *Metrics) RecordFetched(n int) {
	if m == nil {
		return
	}
	m.PapersFetched.Add(float64(n))
}

// RecordPersist records the outcome of a store update.
func (m *Metrics) RecordPersist(current, base, pruned int) {
	if m == nil {
		return
	}
	m.PapersNew.Set(float64(current))
	m.PapersBase.Set(float64(base))
	m.PapersPruned.Add(float64(pruned))
}

// RecordLLMCall records one provider call.
func (m *Metrics) RecordLLMCall(provider, operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.LLMRequests.WithLabelValues(provider, operation, outcome).Inc()
	m.LLMRequestDuration.WithLabelValues(provider, operation).Observe(elapsed.Seconds())
}

// RecordLLMRetry records one retried provider call.
func (m *Metrics) RecordLLMRetry(operation string) {
	if m == nil {
		return
	}
	m.LLMRetries.WithLabelValues(operation).Inc()
}

// RecordQuestion records one answered report question.
func (m *Metrics) RecordQuestion() {
	if m == nil {
		return
	}
	m.QuestionsAnswered.Inc()
}

// RecordRun records a finished pipeline run.
func (m *Metrics) RecordRun(command string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.Runs.WithLabelValues(command, outcome).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	if err == nil {
		m.LastSuccess.Set(float64(time.Now().Unix()))
	}
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// atomically, for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

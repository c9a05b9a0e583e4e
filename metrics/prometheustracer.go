// Package metrics exports tracing activity as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tracekit/tracekit/core"
	"github.com/tracekit/tracekit/trace"
)

// PrometheusTracer is a tracer that counts tasks and measures their duration
// as Prometheus metrics. Each tracer owns a private registry, so multiple
// tracers can coexist in one process.
type PrometheusTracer struct {
	registry   *prometheus.Registry
	timeTeller core.TimeTeller

	mu            sync.Mutex
	inflightTasks map[string]trace.Task

	tasksStarted   *prometheus.CounterVec
	tasksCompleted *prometheus.CounterVec
	tasksFailed    *prometheus.CounterVec
	taskSteps      *prometheus.CounterVec
	tasksInFlight  prometheus.Gauge
	taskDuration   *prometheus.HistogramVec
}

// NewPrometheusTracer creates a PrometheusTracer. The time teller provides
// the timestamps used to measure task durations.
func NewPrometheusTracer(timeTeller core.TimeTeller) *PrometheusTracer {
	t := &PrometheusTracer{
		registry:      prometheus.NewRegistry(),
		timeTeller:    timeTeller,
		inflightTasks: make(map[string]trace.Task),
	}

	t.registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	t.tasksStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracekit",
			Name:      "tasks_started_total",
			Help:      "Total number of tasks started",
		},
		[]string{"kind", "where"},
	)
	t.tasksCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracekit",
			Name:      "tasks_completed_total",
			Help:      "Total number of tasks completed without an error",
		},
		[]string{"kind", "where"},
	)
	t.tasksFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracekit",
			Name:      "tasks_failed_total",
			Help:      "Total number of tasks that ended with an error",
		},
		[]string{"kind", "where"},
	)
	t.taskSteps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tracekit",
			Name:      "task_steps_total",
			Help:      "Total number of task steps recorded",
		},
		[]string{"kind"},
	)
	t.tasksInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "tracekit",
			Name:      "tasks_in_flight",
			Help:      "Number of tasks currently being traced",
		},
	)
	t.taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tracekit",
			Name:      "task_duration_seconds",
			Help:      "Task duration in seconds",
			Buckets: []float64{
				.0001, .001, .01, .1, .25, .5, 1, 2.5, 5, 10,
			},
		},
		[]string{"kind"},
	)

	t.registry.MustRegister(
		t.tasksStarted, t.tasksCompleted, t.tasksFailed, t.taskSteps,
		t.tasksInFlight, t.taskDuration,
	)

	return t
}

// Registry returns the registry that holds the tracer's metrics.
func (t *PrometheusTracer) Registry() *prometheus.Registry {
	return t.registry
}

// Handler returns an http.Handler that serves the tracer's metrics.
func (t *PrometheusTracer) Handler() http.Handler {
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// StartTask marks the start of a task.
func (t *PrometheusTracer) StartTask(task trace.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	task.StartTime = t.timeTeller.CurrentTime()
	t.inflightTasks[task.ID] = task

	t.tasksStarted.WithLabelValues(task.Kind, task.Where).Inc()
	t.tasksInFlight.Inc()
}

// StepTask marks a step of a task.
func (t *PrometheusTracer) StepTask(task trace.Task) {
	t.mu.Lock()
	defer t.mu.Unlock()

	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	t.taskSteps.WithLabelValues(originalTask.Kind).Inc()
}

// FailTask marks the end of a task that ended with an error.
func (t *PrometheusTracer) FailTask(task trace.Task) {
	t.endTask(task, true)
}

// EndTask marks the end of a task.
func (t *PrometheusTracer) EndTask(task trace.Task) {
	t.endTask(task, false)
}

func (t *PrometheusTracer) endTask(task trace.Task, failed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	originalTask, ok := t.inflightTasks[task.ID]
	if !ok {
		return
	}

	delete(t.inflightTasks, task.ID)
	t.tasksInFlight.Dec()

	duration := t.timeTeller.CurrentTime() - originalTask.StartTime
	t.taskDuration.WithLabelValues(originalTask.Kind).
		Observe(float64(duration))

	if failed {
		t.tasksFailed.
			WithLabelValues(originalTask.Kind, originalTask.Where).Inc()
		return
	}

	t.tasksCompleted.
		WithLabelValues(originalTask.Kind, originalTask.Where).Inc()
}

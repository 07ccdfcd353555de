// Package metrics exposes loom's Prometheus collectors: how long a
// dispatch cycle and a maintain cycle take, how many entities are alive,
// how deep each change channel's backlog has grown, how many join rows
// systems actually visited, and how many systems panicked during dispatch.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	EntitiesAlive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "loom_entities_alive",
			Help: "Current number of alive entities in the world",
		},
	)

	DispatchCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loom_dispatch_cycle_duration_seconds",
			Help:    "Time taken for one full Dispatcher.Dispatch call",
			Buckets: prometheus.DefBuckets,
		},
	)

	DispatchLayerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loom_dispatch_layer_duration_seconds",
			Help:    "Time taken for one dispatch layer to finish",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"layer"},
	)

	SystemsPanickedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loom_systems_panicked_total",
			Help: "Total number of systems whose panic was recovered during dispatch",
		},
		[]string{"system"},
	)

	MaintainDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "loom_maintain_duration_seconds",
			Help:    "Time taken for one World.Maintain call",
			Buckets: prometheus.DefBuckets,
		},
	)

	EntitiesKilledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "loom_entities_killed_total",
			Help: "Total number of entities merged as killed across all Maintain calls",
		},
	)

	ChangeChannelDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loom_change_channel_depth",
			Help: "Number of buffered events in a component's change channel",
		},
		[]string{"component"},
	)

	JoinItemsVisitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loom_join_items_visited_total",
			Help: "Total number of rows a join produced, by join site label",
		},
		[]string{"join"},
	)
)

func init() {
	prometheus.MustRegister(EntitiesAlive)
	prometheus.MustRegister(DispatchCycleDuration)
	prometheus.MustRegister(DispatchLayerDuration)
	prometheus.MustRegister(SystemsPanickedTotal)
	prometheus.MustRegister(MaintainDuration)
	prometheus.MustRegister(EntitiesKilledTotal)
	prometheus.MustRegister(ChangeChannelDepth)
	prometheus.MustRegister(JoinItemsVisitedTotal)
}

// Handler returns the Prometheus scrape handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures elapsed wall-clock time against a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the elapsed time to a labeled histogram.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Package metrics exports controller activity as Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
)

const namespace = "pathfinder"

// Collector is a controller sink that keeps Prometheus metrics current.
type Collector struct {
	reg prometheus.Registerer

	searchSeconds *prometheus.HistogramVec
	searchVisited prometheus.Histogram
	searches      *prometheus.CounterVec
	resets        *prometheus.CounterVec
	goals         *prometheus.CounterVec
	pathLength    *prometheus.GaugeVec
	tickSeconds   prometheus.Histogram
}

// New registers the collectors with reg; nil means the default registerer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collector{
		reg: reg,
		searchSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_step_duration_seconds",
			Help:      "Wall time spent in one search step.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .04, .1, .25, 1, 5},
		}, []string{"status"}),
		searchVisited: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "search_visited_nodes",
			Help:      "Nodes closed by a search when it reports a terminal status.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 8),
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_results_total",
			Help:      "Search results published, by status.",
		}, []string{"status"}),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "path_resets_total",
			Help:      "Path resets, by reason.",
		}, []string{"reason"}),
		goals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "goal_events_total",
			Help:      "Goal lifecycle events: set, reached and stopped.",
		}, []string{"event"}),
		pathLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "path_length_moves",
			Help:      "Length of the last published path.",
		}, []string{"session"}),
		tickSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one controller tick, search included.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .025, .05, .1},
		}),
	}
	reg.MustRegister(c.searchSeconds, c.searchVisited, c.searches, c.resets, c.goals, c.pathLength, c.tickSeconds)
	return c
}

func (c *Collector) Emit(ev controller.Event) {
	switch ev.Type {
	case controller.EventPathUpdate:
		if ev.Result == nil {
			return
		}
		status := string(ev.Result.Status)
		c.searches.WithLabelValues(status).Inc()
		c.searchSeconds.WithLabelValues(status).Observe(ev.Result.Time.Seconds())
		if ev.Result.Status.Terminal() {
			c.searchVisited.Observe(float64(ev.Result.VisitedNodes))
		}
		c.pathLength.WithLabelValues(ev.Session).Set(float64(len(ev.Result.Path)))
	case controller.EventPathReset:
		c.resets.WithLabelValues(string(ev.Reason)).Inc()
	case controller.EventGoalUpdated:
		if ev.Goal != "" {
			c.goals.WithLabelValues("set").Inc()
		}
	case controller.EventGoalReached:
		c.goals.WithLabelValues("reached").Inc()
	case controller.EventPathStop:
		c.goals.WithLabelValues("stopped").Inc()
		c.pathLength.WithLabelValues(ev.Session).Set(0)
	}
}

// WatchQueue exports a depth and a drop counter read from a background
// writer each time the registry is scraped.
func (c *Collector) WatchQueue(name string, depth func() int, dropped func() uint64) {
	c.reg.MustRegister(
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "queue_depth",
			Help:        "Pending items in a sink queue.",
			ConstLabels: prometheus.Labels{"queue": name},
		}, func() float64 { return float64(depth()) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "queue_dropped_total",
			Help:        "Items a sink dropped because its queue was full.",
			ConstLabels: prometheus.Labels{"queue": name},
		}, func() float64 { return float64(dropped()) }),
	)
}

// ObserveTick records how long one controller tick took.
func (c *Collector) ObserveTick(d time.Duration) {
	c.tickSeconds.Observe(d.Seconds())
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/astar"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
)

func TestCollector_CountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.Emit(controller.Event{Type: controller.EventGoalUpdated, Goal: "xz(3,3)"})
	c.Emit(controller.Event{Type: controller.EventGoalUpdated})
	c.Emit(controller.Event{Type: controller.EventPathUpdate, Session: "s", Result: &astar.Result{
		Status: astar.StatusPartial, Time: 40 * time.Millisecond, Path: make([]move.Move, 2),
	}})
	c.Emit(controller.Event{Type: controller.EventPathUpdate, Session: "s", Result: &astar.Result{
		Status: astar.StatusSuccess, Time: 5 * time.Millisecond, VisitedNodes: 100, Path: make([]move.Move, 6),
	}})
	c.Emit(controller.Event{Type: controller.EventPathReset, Reason: controller.ResetStuck})
	c.Emit(controller.Event{Type: controller.EventPathReset, Reason: controller.ResetStuck})
	c.Emit(controller.Event{Type: controller.EventGoalReached})
	c.ObserveTick(2 * time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.searches.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.searches.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.resets.WithLabelValues("stuck")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.goals.WithLabelValues("set")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.goals.WithLabelValues("reached")))
	assert.Equal(t, 6.0, testutil.ToFloat64(c.pathLength.WithLabelValues("s")))

	c.Emit(controller.Event{Type: controller.EventPathStop, Session: "s"})
	assert.Equal(t, 0.0, testutil.ToFloat64(c.pathLength.WithLabelValues("s")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var visited, ticks bool
	for _, mf := range families {
		switch mf.GetName() {
		case "pathfinder_search_visited_nodes":
			visited = true
			// Only the terminal result is observed.
			assert.Equal(t, uint64(1), mf.Metric[0].GetHistogram().GetSampleCount())
		case "pathfinder_tick_duration_seconds":
			ticks = true
		}
	}
	assert.True(t, visited)
	assert.True(t, ticks)
}

func TestCollector_WatchQueue(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	depth, dropped := 3, uint64(0)
	c.WatchQueue("sqlite", func() int { return depth }, func() uint64 { return dropped })
	depth, dropped = 7, 2

	families, err := reg.Gather()
	require.NoError(t, err)
	got := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.Metric {
			switch mf.GetName() {
			case "pathfinder_queue_depth":
				got["depth"] = m.GetGauge().GetValue()
			case "pathfinder_queue_dropped_total":
				got["dropped"] = m.GetCounter().GetValue()
			}
		}
	}
	assert.Equal(t, map[string]float64{"depth": 7, "dropped": 2}, got)
}

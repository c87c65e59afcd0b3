package astar

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/goals"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/movements"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/pathtest"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/terrain/store"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/tuning"
)

const feetY = pathtest.FloorY + 1

func newModel(t *testing.T, w *store.ChunkStore, edit func(*tuning.Tuning)) *movements.Movements {
	t.Helper()
	cfg := tuning.Defaults()
	if edit != nil {
		edit(&cfg)
	}
	m, err := movements.New(w, w.Cat, nil, cfg)
	require.NoError(t, err)
	return m
}

func unbounded() Options { return Options{SearchRadius: math.Inf(1)} }

func run(t *testing.T, c *Context, b Budget) Result {
	t.Helper()
	for i := 0; i < 100000; i++ {
		r := c.Step(b)
		if r.Status.Terminal() {
			return r
		}
	}
	t.Fatalf("search did not terminate")
	return Result{}
}

func positions(path []move.Move) []model.Vec3i {
	out := make([]model.Vec3i, 0, len(path))
	for _, m := range path {
		out = append(out, m.Pos)
	}
	return out
}

func TestStep_FlatFiveForward(t *testing.T) {
	w := pathtest.Flat(t, 8)
	c, err := New(move.StartAt(model.V(0, feetY, 0), 0), newModel(t, w, nil), goals.NewBlock(5, feetY, 0), unbounded())
	require.NoError(t, err)

	r := c.Step(Budget{})
	require.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, 5.0, r.Cost)
	require.Len(t, r.Path, 5)
	for i, m := range r.Path {
		assert.Equal(t, move.Forward, m.Type)
		assert.Equal(t, model.V(i+1, feetY, 0), m.Pos)
	}
	assert.Positive(t, r.VisitedNodes)
	assert.GreaterOrEqual(t, r.GeneratedNodes, r.VisitedNodes)

	again := c.Step(Budget{})
	assert.Equal(t, r.Status, again.Status)
	assert.Equal(t, r.Cost, again.Cost)
	assert.True(t, c.Done())

	assert.True(t, c.Visited(model.ChunkPos{}))
	assert.True(t, c.AdjacentToVisited(model.ChunkPos{CX: 1}))
	assert.False(t, c.AdjacentToVisited(model.ChunkPos{CX: 5, CZ: 5}))
}

// trench removes the floor at x=1 across the whole platform.
func trench(t *testing.T, r int) *store.ChunkStore {
	w := pathtest.Flat(t, r)
	pathtest.Fill(t, w, model.V(1, pathtest.FloorY, -r), model.V(1, pathtest.FloorY, r), "air")
	return w
}

func TestStep_GapWithoutScaffoldingIsNoPath(t *testing.T) {
	w := trench(t, 4)
	m := newModel(t, w, func(c *tuning.Tuning) { c.Movements.AllowParkour = false })
	start := move.StartAt(model.V(-3, feetY, 0), 0)
	goal := goals.NewBlock(3, feetY, 0)

	c, err := New(start, m, goal, unbounded())
	require.NoError(t, err)
	r := c.Step(Budget{})
	require.Equal(t, StatusNoPath, r.Status)
	require.NotEmpty(t, r.Path)
	assert.Equal(t, model.V(0, feetY, 0), r.Path[len(r.Path)-1].Pos, "best node sits at the edge of the gap")
	assert.Equal(t, model.V(0, feetY, 0), c.Best().Pos)

	tight, err := New(start, m, goal, unbounded())
	require.NoError(t, err)
	assert.Equal(t, StatusPartial, tight.Step(Budget{Iterations: 1}).Status)
	assert.False(t, tight.Done())
}

func TestStep_UnbreakableWallIsAvoided(t *testing.T) {
	w := pathtest.Flat(t, 4)
	pathtest.Fill(t, w, model.V(1, feetY, -2), model.V(1, feetY+1, 2), "bedrock")
	c, err := New(move.StartAt(model.V(0, feetY, 0), 0), newModel(t, w, nil), goals.NewBlock(2, feetY, 0), unbounded())
	require.NoError(t, err)

	r := c.Step(Budget{})
	require.Equal(t, StatusSuccess, r.Status)
	assert.Greater(t, r.Cost, 2.0)
	for _, m := range r.Path {
		assert.False(t, m.Pos.X == 1 && m.Pos.Z >= -2 && m.Pos.Z <= 2, "stepped into the wall at %s", m.Pos)
		assert.Empty(t, m.ToBreak)
	}
}

func TestStep_ResumableMatchesSingleCall(t *testing.T) {
	w := pathtest.Flat(t, 6)
	pathtest.Fill(t, w, model.V(1, feetY, -4), model.V(1, feetY+1, 3), "bedrock")
	pathtest.Fill(t, w, model.V(3, feetY, -3), model.V(3, feetY+1, 6), "bedrock")
	pathtest.Set(t, w, model.V(-2, feetY, 2), "dirt")
	m := newModel(t, w, nil)
	start := move.StartAt(model.V(0, feetY, 0), 0)
	goal := goals.NewBlock(5, feetY, 0)

	whole, err := New(start, m, goal, unbounded())
	require.NoError(t, err)
	want := whole.Step(Budget{})
	require.Equal(t, StatusSuccess, want.Status)

	for _, n := range []int{1, 3, 17} {
		c, err := New(start, m, goal, unbounded())
		require.NoError(t, err)
		got := run(t, c, Budget{Iterations: n})
		assert.Equal(t, want.Status, got.Status, "budget %d", n)
		assert.InDelta(t, want.Cost, got.Cost, 1e-9, "budget %d", n)
		assert.Equal(t, positions(want.Path), positions(got.Path), "budget %d", n)
		assert.Equal(t, want.VisitedNodes, got.VisitedNodes, "budget %d", n)
	}
}

func TestStep_OpenAndClosedStayDisjoint(t *testing.T) {
	w := pathtest.Flat(t, 5)
	pathtest.Fill(t, w, model.V(2, feetY, -3), model.V(2, feetY+1, 3), "stone")
	c, err := New(move.StartAt(model.V(0, feetY, 0), 0), newModel(t, w, nil), goals.NewBlock(4, feetY, 1), unbounded())
	require.NoError(t, err)

	for {
		r := c.Step(Budget{Iterations: 2})
		assert.Equal(t, c.heap.Len(), len(c.open), "one heap entry per open key")
		for p := range c.open {
			_, dup := c.closed[p]
			require.False(t, dup, "%s is open and closed", p)
		}
		seen := map[int32]bool{}
		for _, idx := range c.heap.items {
			require.False(t, seen[idx])
			seen[idx] = true
		}
		if r.Status.Terminal() {
			assert.Equal(t, StatusSuccess, r.Status)
			return
		}
	}
}

func TestStep_RadiusExhausted(t *testing.T) {
	w := trench(t, 4)
	m := newModel(t, w, func(c *tuning.Tuning) { c.Movements.AllowParkour = false })
	c, err := New(move.StartAt(model.V(-3, feetY, 0), 0), m, goals.NewBlock(3, feetY, 0), Options{SearchRadius: 1})
	require.NoError(t, err)
	assert.Equal(t, StatusRadiusExhausted, c.Step(Budget{}).Status)
}

func TestNew_RejectsMisconfiguration(t *testing.T) {
	w := pathtest.Flat(t, 1)
	m := newModel(t, w, nil)
	start := move.StartAt(model.V(0, feetY, 0), 0)
	g := goals.NewBlock(0, feetY, 0)

	_, err := New(start, m, g, Options{SearchRadius: 0})
	assert.ErrorIs(t, err, tuning.ErrZeroRadius)
	_, err = New(start, m, g, Options{SearchRadius: math.Inf(1), Timeout: -time.Second})
	assert.ErrorIs(t, err, tuning.ErrNegativeTimeout)
	_, err = New(start, m, g, Options{SearchRadius: -1})
	assert.ErrorIs(t, err, tuning.ErrNegativeRadius)
}

func TestOptionsFrom_UnboundedDefault(t *testing.T) {
	o := OptionsFrom(tuning.Defaults().Search)
	assert.True(t, math.IsInf(o.SearchRadius, 1))
	assert.Equal(t, 5*time.Second, o.Timeout)
}

// tickingClock advances by step every time it is read.
func tickingClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestStep_Timeout(t *testing.T) {
	w := trench(t, 4)
	m := newModel(t, w, nil)
	c, err := New(move.StartAt(model.V(-3, feetY, 0), 0), m, goals.NewBlock(3, feetY, 0),
		Options{SearchRadius: math.Inf(1), Timeout: time.Millisecond, Now: tickingClock(time.Second)})
	require.NoError(t, err)
	r := c.Step(Budget{})
	assert.Equal(t, StatusTimeout, r.Status)
	assert.Empty(t, r.Path)
	assert.Equal(t, StatusTimeout, c.Step(Budget{}).Status)
}

func TestStep_TimeSlice(t *testing.T) {
	w := pathtest.Flat(t, 8)
	c, err := New(move.StartAt(model.V(0, feetY, 0), 0), newModel(t, w, nil), goals.NewBlock(6, feetY, 3),
		Options{SearchRadius: math.Inf(1), Now: tickingClock(10 * time.Millisecond)})
	require.NoError(t, err)
	first := c.Step(Budget{Time: 25 * time.Millisecond})
	assert.Equal(t, StatusPartial, first.Status)
	final := run(t, c, Budget{Time: 25 * time.Millisecond})
	assert.Equal(t, StatusSuccess, final.Status)
}

// graph is a fixed edge list keyed by source position.
type graph map[model.Vec3i][]move.Move

func (g graph) Neighbors(n move.Move) []move.Move { return g[n.Pos] }

type reach struct {
	goals.Static
	at model.Vec3i
}

func (r reach) Heuristic(model.Vec3i) float64 { return 0 }
func (r reach) IsEnd(p model.Vec3i) bool      { return p == r.at }

func edge(x int, cost float64) move.Move {
	return move.New(model.V(x, 0, 0), 0, cost, nil, nil, move.Forward, move.SprintOptional, false)
}

func TestStep_ImprovesOpenEntry(t *testing.T) {
	a, b, c, d := model.V(0, 0, 0), model.V(1, 0, 0), model.V(2, 0, 0), model.V(3, 0, 0)
	g := graph{
		a: {edge(1, 1), edge(2, 5)},
		b: {edge(2, 1)},
		c: {edge(3, 1)},
	}
	ctx, err := New(move.StartAt(a, 0), g, reach{at: d}, unbounded())
	require.NoError(t, err)
	r := ctx.Step(Budget{})
	require.Equal(t, StatusSuccess, r.Status)
	assert.Equal(t, 3.0, r.Cost)
	assert.Equal(t, []model.Vec3i{b, c, d}, positions(r.Path))
}

func TestHeap_TieBreak(t *testing.T) {
	nodes := []node{
		{f: 5, h: 2, seq: 0},
		{f: 5, h: 1, seq: 1},
		{f: 5, h: 1, seq: 2},
		{f: 4, h: 4, seq: 3},
	}
	h := openHeap{nodes: &nodes, items: []int32{0, 1, 2, 3}}
	assert.True(t, h.Less(3, 0), "lower f first")
	assert.True(t, h.Less(1, 0), "then lower h")
	assert.True(t, h.Less(1, 2), "then insertion order")
	assert.False(t, h.Less(2, 1))
}

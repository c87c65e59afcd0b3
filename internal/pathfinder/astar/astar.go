// Package astar is a resumable best-first search over the movement graph.
//
// A Context owns every node it creates. Step expands nodes until the goal is
// reached, the frontier empties, or the caller's budget runs out; in the last
// case the context keeps its state and the next Step continues from there.
package astar

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/goals"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/tuning"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusTimeout Status = "timeout"
	StatusNoPath  Status = "noPath"
	// StatusRadiusExhausted is a noPath where the frontier ran dry only
	// because candidates beyond the search radius were pruned.
	StatusRadiusExhausted Status = "radiusExhausted"
)

// Terminal reports whether stepping again can change the outcome.
func (s Status) Terminal() bool { return s != StatusPartial }

// Neighborer generates the outgoing edges of a node.
type Neighborer interface {
	Neighbors(node move.Move) []move.Move
}

// Budget bounds one Step call. Zero fields are unbounded.
type Budget struct {
	Iterations int
	Time       time.Duration
}

type Options struct {
	// Timeout bounds the total wall-clock time since the context was created.
	// Zero disables it.
	Timeout time.Duration
	// SearchRadius limits g+h to start h + radius. +Inf is unbounded.
	SearchRadius float64
	// Now defaults to time.Now.
	Now func() time.Time
}

// OptionsFrom maps the search tuning section.
func OptionsFrom(s tuning.Search) Options {
	return Options{Timeout: time.Duration(s.ThinkTimeoutMs) * time.Millisecond, SearchRadius: float64(s.SearchRadius)}
}

// BudgetFrom maps the per-tick part of the search tuning section.
func BudgetFrom(s tuning.Search) Budget {
	return Budget{Iterations: s.TickIterations, Time: time.Duration(s.TickTimeoutMs) * time.Millisecond}
}

type Result struct {
	Status         Status        `json:"status"`
	Cost           float64       `json:"cost"`
	Time           time.Duration `json:"time"`
	VisitedNodes   int           `json:"visited"`
	GeneratedNodes int           `json:"generated"`
	Path           []move.Move   `json:"path"`
}

type node struct {
	m       move.Move
	g, h, f float64
	parent  int32
	seq     uint64
	heapIdx int
}

type Context struct {
	moves Neighborer
	goal  goals.Goal
	now   func() time.Time

	start   time.Time
	timeout time.Duration
	maxCost float64

	nodes  []node
	heap   openHeap
	open   map[model.Vec3i]int32
	closed map[model.Vec3i]struct{}
	best   int32
	seq    uint64
	pruned bool

	visitedChunks map[model.ChunkPos]struct{}
	final         *Result
}

// New creates a context rooted at start.
func New(start move.Move, moves Neighborer, goal goals.Goal, opts Options) (*Context, error) {
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("astar: timeout %v: %w", opts.Timeout, tuning.ErrNegativeTimeout)
	}
	if opts.SearchRadius == 0 || math.IsNaN(opts.SearchRadius) {
		return nil, fmt.Errorf("astar: %w", tuning.ErrZeroRadius)
	}
	if opts.SearchRadius < 0 {
		return nil, fmt.Errorf("astar: radius %v: %w", opts.SearchRadius, tuning.ErrNegativeRadius)
	}
	if moves == nil || goal == nil {
		return nil, fmt.Errorf("astar: nil movement model or goal")
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	c := &Context{
		moves:         moves,
		goal:          goal,
		now:           now,
		start:         now(),
		timeout:       opts.Timeout,
		maxCost:       -1,
		open:          map[model.Vec3i]int32{},
		closed:        map[model.Vec3i]struct{}{},
		visitedChunks: map[model.ChunkPos]struct{}{},
	}
	c.heap.nodes = &c.nodes

	h := goal.Heuristic(start.Pos)
	c.push(start, 0, h, -1)
	c.best = 0
	if opts.SearchRadius > 0 && !math.IsInf(opts.SearchRadius, 1) {
		c.maxCost = h + opts.SearchRadius
	}
	return c, nil
}

func (c *Context) push(m move.Move, g, h float64, parent int32) int32 {
	idx := int32(len(c.nodes))
	c.nodes = append(c.nodes, node{m: m, g: g, h: h, f: g + h, parent: parent, seq: c.seq})
	c.seq++
	c.open[m.Pos] = idx
	heap.Push(&c.heap, idx)
	return idx
}

// Step runs the search within b and reports the outcome. Once a terminal
// status is returned, further calls return the same result.
func (c *Context) Step(b Budget) Result {
	if c.final != nil {
		return *c.final
	}
	sliceStart := c.now()
	iter := 0
	for c.heap.Len() > 0 {
		if c.timeout > 0 && c.now().Sub(c.start) > c.timeout {
			return c.finish(StatusTimeout, c.best)
		}
		if iter > 0 {
			if b.Iterations > 0 && iter >= b.Iterations {
				return c.result(StatusPartial, c.best)
			}
			if b.Time > 0 && c.now().Sub(sliceStart) >= b.Time {
				return c.result(StatusPartial, c.best)
			}
		}
		iter++

		cur := heap.Pop(&c.heap).(int32)
		curMove, curG := c.nodes[cur].m, c.nodes[cur].g
		delete(c.open, curMove.Pos)
		if c.goal.IsEnd(curMove.Pos) {
			return c.finish(StatusSuccess, cur)
		}
		c.closed[curMove.Pos] = struct{}{}
		c.visitedChunks[curMove.Pos.Chunk()] = struct{}{}

		for _, nb := range c.moves.Neighbors(curMove) {
			if _, done := c.closed[nb.Pos]; done {
				continue
			}
			g := curG + nb.Cost
			h := c.goal.Heuristic(nb.Pos)
			if c.maxCost >= 0 && g+h > c.maxCost {
				c.pruned = true
				continue
			}
			idx, seen := c.open[nb.Pos]
			if seen {
				n := &c.nodes[idx]
				if n.g <= g {
					continue
				}
				n.m, n.g, n.h, n.f, n.parent = nb, g, h, g+h, cur
				heap.Fix(&c.heap, n.heapIdx)
			} else {
				idx = c.push(nb, g, h, cur)
			}
			if h < c.nodes[c.best].h {
				c.best = idx
			}
		}
	}
	if c.pruned {
		return c.finish(StatusRadiusExhausted, c.best)
	}
	return c.finish(StatusNoPath, c.best)
}

func (c *Context) finish(s Status, idx int32) Result {
	r := c.result(s, idx)
	c.final = &r
	return r
}

func (c *Context) result(s Status, idx int32) Result {
	return Result{
		Status:         s,
		Cost:           c.nodes[idx].g,
		Time:           c.now().Sub(c.start),
		VisitedNodes:   len(c.closed),
		GeneratedNodes: len(c.closed) + c.heap.Len(),
		Path:           c.reconstruct(idx),
	}
}

// reconstruct walks the parent chain back to the start, which is excluded.
func (c *Context) reconstruct(idx int32) []move.Move {
	var path []move.Move
	for idx >= 0 && c.nodes[idx].parent >= 0 {
		path = append(path, c.nodes[idx].m.Clone())
		idx = c.nodes[idx].parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (c *Context) Goal() goals.Goal { return c.goal }

// Done reports whether a terminal result has been produced.
func (c *Context) Done() bool { return c.final != nil }

// Best is the node with the lowest heuristic seen so far.
func (c *Context) Best() move.Move { return c.nodes[c.best].m }

// Visited reports whether any node in chunk cp has been expanded.
func (c *Context) Visited(cp model.ChunkPos) bool {
	_, ok := c.visitedChunks[cp]
	return ok
}

// AdjacentToVisited reports whether a cardinal neighbour of cp was expanded.
func (c *Context) AdjacentToVisited(cp model.ChunkPos) bool {
	for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		if c.Visited(model.ChunkPos{CX: cp.CX + d[0], CZ: cp.CZ + d[1]}) {
			return true
		}
	}
	return false
}

// VisitedChunks lists expanded chunks in x, then z order.
func (c *Context) VisitedChunks() []model.ChunkPos {
	out := make([]model.ChunkPos, 0, len(c.visitedChunks))
	for cp := range c.visitedChunks {
		out = append(out, cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CX != out[j].CX {
			return out[i].CX < out[j].CX
		}
		return out[i].CZ < out[j].CZ
	})
	return out
}

// Package refine turns raw search output into waypoints the controller can
// steer at: targets are aligned onto the walkable surface and straight runs
// are collapsed.
package refine

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/physics"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/mathx"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// Refiner post-processes paths. Shortcut selects predictor-driven skipping
// instead of direction collapsing.
type Refiner struct {
	World     model.World
	Predictor *physics.Predictor
	Shortcut  bool
}

func New(w model.World, p *physics.Predictor, shortcut bool) *Refiner {
	return &Refiner{World: w, Predictor: p, Shortcut: shortcut}
}

// Refine aligns and simplifies path. body is the agent state the path
// starts from; keepAll disables simplification (step exclusions are
// evaluated per voxel, so skipping nodes would bypass them). The input
// slice is not modified.
func (r *Refiner) Refine(path []move.Move, body model.AgentState, keepAll bool) []move.Move {
	out := r.Align(path)
	if len(out) == 0 || keepAll {
		return out
	}
	if r.Shortcut && r.Predictor != nil {
		return r.shortcut(out, body)
	}
	return Collapse(out)
}

// Align sets the target of every move up to the first one with side
// actions. Targets derive from integer positions only, so aligning twice
// gives the same result.
func (r *Refiner) Align(path []move.Move) []move.Move {
	out := make([]move.Move, len(path))
	copy(out, path)
	for i := range out {
		m := out[i]
		if m.HasSideActions() {
			break
		}
		b, ok := r.World.BlockAt(m.Pos)
		descending := i+1 < len(out) && out[i+1].Pos.Y < m.Pos.Y
		if ok && (b.Liquid || (b.Climbable && descending)) {
			out[i] = m.WithTarget(mgl64.Vec3{float64(m.Pos.X) + 0.5, float64(m.Pos.Y), float64(m.Pos.Z) + 0.5})
			continue
		}
		p, found := topOf(b, ok)
		if !found {
			below, okBelow := r.World.BlockAt(m.Pos.Offset(0, -1, 0))
			p, found = topOf(below, okBelow)
		}
		if !found {
			p = mgl64.Vec3{float64(m.Pos.X) + 0.5, float64(m.Pos.Y - 1), float64(m.Pos.Z) + 0.5}
		}
		out[i] = m.WithTarget(p)
	}
	return out
}

// topOf averages the horizontal centres of the highest collision shapes of
// b and returns the point standing on them.
func topOf(b model.Block, ok bool) (mgl64.Vec3, bool) {
	if !ok || len(b.Shapes) == 0 {
		return mgl64.Vec3{}, false
	}
	x, y, z, n := 0.5, 0.0, 0.5, 1.0
	for _, s := range b.Shapes {
		h := s.MaxY()
		switch {
		case h == y:
			x += (s[0] + s[3]) / 2
			z += (s[2] + s[5]) / 2
			n++
		case h > y:
			n = 2
			x = 0.5 + (s[0]+s[3])/2
			y = h
			z = 0.5 + (s[2]+s[5])/2
		}
	}
	return b.Pos.Vec3().Add(mgl64.Vec3{x / n, y, z / n}), true
}

func pinned(m move.Move) bool { return m.HasSideActions() || m.DontOptimize }

// Collapse keeps the first node, the last node, every node where the travel
// direction turns, and every node next to a side action or a no-optimize
// move. Directions are compared after reducing by their gcd, so the output
// collapses to itself.
func Collapse(path []move.Move) []move.Move {
	if len(path) == 0 {
		return nil
	}
	out := make([]move.Move, 0, len(path))
	var last model.Vec3i
	for i := 1; i < len(path); i++ {
		prev, cur := path[i-1], path[i]
		dir := reduce(cur.Pos.Sub(prev.Pos))
		if pinned(prev) || pinned(cur) || dir != last {
			out = append(out, prev)
			last = dir
		}
	}
	return append(out, path[len(path)-1])
}

func reduce(v model.Vec3i) model.Vec3i {
	g := gcd(gcd(mathx.AbsInt(v.X), mathx.AbsInt(v.Y)), mathx.AbsInt(v.Z))
	if g <= 1 {
		return v
	}
	return model.V(v.X/g, v.Y/g, v.Z/g)
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// shortcut drops every node the agent can sprint past in a straight line
// from the last kept point. Kept nodes are marked DontOptimize: they are
// the waypoints the predictor signed off on.
func (r *Refiner) shortcut(path []move.Move, body model.AgentState) []move.Move {
	out := make([]move.Move, 0, len(path))
	from := body.Pos
	kept := -1
	for i := 1; i < len(path); i++ {
		prev, cur := path[i-1], path[i]
		to := cur.Point()
		if pinned(prev) || pinned(cur) || math.Abs(to[1]-from[1]) > 0 ||
			!r.Predictor.CanStraightLineBetween(body, from, to) {
			if i-1 > kept {
				prev.DontOptimize = true
				out = append(out, prev)
				kept = i - 1
				from = prev.Point()
			}
		}
	}
	last := path[len(path)-1]
	last.DontOptimize = true
	return append(out, last)
}

package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// nearPath reports whether the voxel pos lies within one block horizontally
// and two vertically of the path. Collapsed paths have waypoints far apart,
// so the segment between them is tested as well.
func nearPath(pos model.Vec3i, path []move.Move) bool {
	p := pos.Vec3()
	var prev mgl64.Vec3
	for i, n := range path {
		pt := n.Point()
		cmp := pt
		if i > 0 && !within(prev, pt, 2) {
			lo := mgl64.Vec3{math.Min(prev[0], pt[0]), math.Min(prev[1], pt[1]), math.Min(prev[2], pt[2])}
			hi := mgl64.Vec3{math.Max(prev[0], pt[0]), math.Max(prev[1], pt[1]), math.Max(prev[2], pt[2])}
			c := p.Sub(mgl64.Vec3{0.5, 0.5, 0.5})
			if c[0] < lo[0]-1 || c[0] > hi[0]+1 ||
				c[1] < lo[1]-2 || c[1] > hi[1]+2 ||
				c[2] < lo[2]-1 || c[2] > hi[2]+1 {
				prev = pt
				continue
			}
			cmp = closestOnSegment(p, prev, pt)
		}
		d := cmp.Sub(p)
		if math.Abs(d[0]-0.5) <= 1 && math.Abs(d[1]-0.5) <= 2 && math.Abs(d[2]-0.5) <= 1 {
			return true
		}
		prev = pt
	}
	return false
}

func within(a, b mgl64.Vec3, r float64) bool {
	return math.Abs(a[0]-b[0]) <= r && math.Abs(a[1]-b[1]) <= r && math.Abs(a[2]-b[2]) <= r
}

func closestOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	l2 := ab.LenSqr()
	if l2 == 0 {
		return a
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Mul(t))
}

// reached is the node arrival test: within the error horizontally and less
// than a block vertically.
func (s *Session) reached(target, pos mgl64.Vec3) bool {
	d := target.Sub(pos)
	return math.Abs(d[0]) <= s.ctlCfg.Error && math.Abs(d[2]) <= s.ctlCfg.Error && math.Abs(d[1]) < 1
}

// fromPlayer drops the leading nodes the agent has already passed: it
// keeps the path from the nearest node before any side action, or from the
// node after it when the agent is already between the two.
func (s *Session) fromPlayer(path []move.Move, pos mgl64.Vec3) []move.Move {
	if len(path) == 0 {
		return path
	}
	minI, minD := 0, 1000.0
	for i, n := range path {
		if n.HasSideActions() {
			break
		}
		if d := pos.Sub(n.Point()).LenSqr(); d < minD {
			minI, minD = i, d
		}
	}
	n1 := path[minI]
	if minI+1 < len(path) && !n1.HasSideActions() {
		n2 := path[minI+1]
		d2 := pos.Sub(n2.Point()).LenSqr()
		d12 := n1.Point().Sub(n2.Point()).LenSqr()
		if d12 > d2 || s.reached(n1.Point(), pos) {
			minI++
		}
	}
	return path[minI:]
}

// OnBlockUpdate tells the session a block changed. A change of block type
// near the path triggers a soft reset on the next tick.
func (s *Session) OnBlockUpdate(before, after model.Block) {
	s.post(func() {
		if before.ID != after.ID && nearPath(before.Pos, s.path) {
			s.resetPath(ResetBlockUpdated, false)
		}
	})
}

// OnChunkLoaded tells the session a chunk column arrived. It triggers a
// soft reset on the next tick when the live search visited a neighbouring
// chunk.
func (s *Session) OnChunkLoaded(cp model.ChunkPos) {
	s.post(func() {
		if s.planner != nil && s.planner.Context().AdjacentToVisited(cp) {
			s.resetPath(ResetChunkLoaded, false)
		}
	})
}

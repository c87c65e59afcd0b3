// Package goals defines search termination predicates and their heuristics.
//
// A Goal is evaluated on integer foot positions. Heuristics are octile
// estimates and are not admissible for every variant.
package goals

import (
	"fmt"
	"math"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/mathx"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

type Goal interface {
	Heuristic(n model.Vec3i) float64
	IsEnd(n model.Vec3i) bool
	// HasChanged reports that the current path should be discarded.
	// Implementations may refresh internal state when returning true.
	HasChanged() bool
	IsValid() bool
}

// Static provides the HasChanged/IsValid pair for goals that never move.
type Static struct{}

func (Static) HasChanged() bool { return false }
func (Static) IsValid() bool    { return true }

func distanceXZ(dx, dz int) float64 {
	return mathx.Octile(float64(dx), float64(dz))
}

// belowAdjusted treats a node one block below the target as level with it,
// since the agent's head is then beside the block.
func belowAdjusted(dy int) int {
	if dy < 0 {
		return dy + 1
	}
	return dy
}

// Block is satisfied only when standing in exactly one voxel.
type Block struct {
	Static
	Pos model.Vec3i
}

func NewBlock(x, y, z int) Block { return Block{Pos: model.V(x, y, z)} }

func (g Block) Heuristic(n model.Vec3i) float64 {
	d := g.Pos.Sub(n)
	return distanceXZ(d.X, d.Z) + math.Abs(float64(d.Y))
}

func (g Block) IsEnd(n model.Vec3i) bool { return n == g.Pos }
func (g Block) String() string           { return fmt.Sprintf("block(%s)", g.Pos) }

// Near is satisfied within a euclidean range of a point.
type Near struct {
	Static
	Pos     model.Vec3i
	RangeSq float64
}

func NewNear(x, y, z int, r float64) Near { return Near{Pos: model.V(x, y, z), RangeSq: r * r} }

func (g Near) Heuristic(n model.Vec3i) float64 {
	d := g.Pos.Sub(n)
	return distanceXZ(d.X, d.Z) + math.Abs(float64(d.Y))
}

func (g Near) IsEnd(n model.Vec3i) bool { return float64(g.Pos.DistanceSq(n)) <= g.RangeSq }
func (g Near) String() string {
	return fmt.Sprintf("near(%s,r=%.1f)", g.Pos, math.Sqrt(g.RangeSq))
}

// XZ ignores height; useful for long range travel.
type XZ struct {
	Static
	X, Z int
}

func (g XZ) Heuristic(n model.Vec3i) float64 { return distanceXZ(g.X-n.X, g.Z-n.Z) }
func (g XZ) IsEnd(n model.Vec3i) bool        { return n.X == g.X && n.Z == g.Z }
func (g XZ) String() string                  { return fmt.Sprintf("xz(%d,%d)", g.X, g.Z) }

type NearXZ struct {
	Static
	X, Z    int
	RangeSq float64
}

func NewNearXZ(x, z int, r float64) NearXZ { return NearXZ{X: x, Z: z, RangeSq: r * r} }

func (g NearXZ) Heuristic(n model.Vec3i) float64 { return distanceXZ(g.X-n.X, g.Z-n.Z) }
func (g NearXZ) IsEnd(n model.Vec3i) bool {
	dx, dz := float64(g.X-n.X), float64(g.Z-n.Z)
	return dx*dx+dz*dz <= g.RangeSq
}
func (g NearXZ) String() string { return fmt.Sprintf("nearxz(%d,%d)", g.X, g.Z) }

// Y is a horizontal plane.
type Y struct {
	Static
	Y int
}

func (g Y) Heuristic(n model.Vec3i) float64 { return math.Abs(float64(g.Y - n.Y)) }
func (g Y) IsEnd(n model.Vec3i) bool        { return n.Y == g.Y }
func (g Y) String() string                  { return fmt.Sprintf("y(%d)", g.Y) }

// GetToBlock ends next to the block rather than inside it, e.g. a chest.
type GetToBlock struct {
	Static
	Pos model.Vec3i
}

func (g GetToBlock) Heuristic(n model.Vec3i) float64 {
	d := n.Sub(g.Pos)
	return distanceXZ(d.X, d.Z) + math.Abs(float64(belowAdjusted(d.Y)))
}

func (g GetToBlock) IsEnd(n model.Vec3i) bool {
	d := n.Sub(g.Pos)
	return mathx.AbsInt(d.X)+mathx.AbsInt(belowAdjusted(d.Y))+mathx.AbsInt(d.Z) == 1
}

func (g GetToBlock) String() string { return fmt.Sprintf("gettoblock(%s)", g.Pos) }

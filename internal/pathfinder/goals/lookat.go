package goals

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

const (
	DefaultReach        = 4.5
	DefaultEntityHeight = 1.6
)

// LookAt ends where some face of the block is visible within reach.
type LookAt struct {
	Static
	Pos          model.Vec3i
	World        model.World
	Reach        float64
	EntityHeight float64
}

func NewLookAt(pos model.Vec3i, w model.World, reach, entityHeight float64) *LookAt {
	if reach <= 0 {
		reach = DefaultReach
	}
	if entityHeight <= 0 {
		entityHeight = DefaultEntityHeight
	}
	return &LookAt{Pos: pos, World: w, Reach: reach, EntityHeight: entityHeight}
}

func (g *LookAt) Heuristic(n model.Vec3i) float64 {
	d := n.Sub(g.Pos)
	return distanceXZ(d.X, d.Z) + math.Abs(float64(belowAdjusted(d.Y)))
}

func (g *LookAt) IsEnd(n model.Vec3i) bool {
	if n.Vec3().Sub(g.Pos.Vec3().Add(mgl64.Vec3{0, g.EntityHeight, 0})).Len() > g.Reach {
		return false
	}
	center := g.Pos.Vec3().Add(mgl64.Vec3{0.5, 0.5, 0.5})
	// Feet are at the bottom of the node voxel, so the eye sits EntityHeight above n.Y.
	delta := mgl64.Vec3{float64(n.X) - center[0], float64(n.Y) + g.EntityHeight - center[1], float64(n.Z) - center[2]}
	eye := mgl64.Vec3{float64(n.X) + 0.5, float64(n.Y) + g.EntityHeight, float64(n.Z) + 0.5}

	// y first, then x and z.
	for _, axis := range [3]int{1, 0, 2} {
		if math.Abs(delta[axis]) <= 0.5 {
			continue
		}
		s := math.Copysign(1, delta[axis])
		target := center
		target[axis] += s * 0.5
		hit, ok := g.World.Raycast(eye, target.Sub(eye).Normalize(), g.Reach)
		if ok && hit.Pos == g.Pos {
			return true
		}
	}
	return false
}

func (g *LookAt) String() string { return fmt.Sprintf("lookat(%s)", g.Pos) }

// BreakBlock paths to a spot from which the block can be mined. It does not
// mine it.
type BreakBlock struct {
	*LookAt
}

func NewBreakBlock(pos model.Vec3i, w model.World, reach, entityHeight float64) BreakBlock {
	return BreakBlock{LookAt: NewLookAt(pos, w, reach, entityHeight)}
}

func (g BreakBlock) String() string { return fmt.Sprintf("break(%s)", g.Pos) }

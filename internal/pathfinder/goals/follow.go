package goals

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// EntityLocator resolves the tracked entity's current position; ok is false
// once the entity is gone.
type EntityLocator func() (model.Entity, bool)

// Follow chases a moving entity. The cached target only moves when the
// entity leaves the range around it, which keeps replanning bounded.
type Follow struct {
	Locate  EntityLocator
	RangeSq float64
	// Dynamic goals are re-checked every tick for movement.
	Dynamic bool

	pos model.Vec3i
}

func NewFollow(locate EntityLocator, r float64, dynamic bool) *Follow {
	g := &Follow{Locate: locate, RangeSq: r * r, Dynamic: dynamic}
	if e, ok := locate(); ok {
		g.pos = model.Floor(e.Position)
	}
	return g
}

func (g *Follow) Pos() model.Vec3i { return g.pos }

func (g *Follow) Heuristic(n model.Vec3i) float64 {
	d := g.pos.Sub(n)
	return distanceXZ(d.X, d.Z) + math.Abs(float64(d.Y))
}

func (g *Follow) IsEnd(n model.Vec3i) bool { return float64(g.pos.DistanceSq(n)) <= g.RangeSq }

func (g *Follow) HasChanged() bool {
	e, ok := g.Locate()
	if !ok {
		return false
	}
	p := model.Floor(e.Position)
	if float64(g.pos.DistanceSq(p)) > g.RangeSq {
		g.pos = p
		return true
	}
	return false
}

func (g *Follow) IsValid() bool {
	_, ok := g.Locate()
	return ok
}

// Target is the live entity position, used for direct pursuit.
func (g *Follow) Target() (mgl64.Vec3, bool) {
	e, ok := g.Locate()
	if !ok {
		return mgl64.Vec3{}, false
	}
	return e.Position, true
}

func (g *Follow) String() string { return fmt.Sprintf("follow(%s)", g.pos) }

// Pursuable goals expose a live point the controller may steer at directly.
type Pursuable interface {
	Target() (mgl64.Vec3, bool)
}

// IsDynamic reports whether a goal asked to be polled every tick.
func IsDynamic(g Goal) bool {
	if f, ok := g.(*Follow); ok {
		return f.Dynamic
	}
	return false
}

func Describe(g Goal) string {
	if s, ok := g.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%T", g)
}

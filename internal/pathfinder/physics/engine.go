// Package physics predicts short-horizon agent movement. The Engine
// integrates one tick of walking, jumping, swimming and climbing against the
// block collision shapes; the Predictor runs it forward under fixed control
// policies to decide which locomotion reaches a waypoint.
package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/mathx"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

const (
	Gravity            = 0.08
	AirDrag            = 0.98
	Slipperiness       = 0.6
	AirInertia         = 0.91
	GroundAcceleration = 0.1
	AirAcceleration    = 0.02
	SprintMultiplier   = 1.3
	SneakMultiplier    = 0.3

	JumpVelocity    = 0.42
	SprintJumpBoost = 0.2
	JumpCooldown    = 10

	LiquidGravity      = 0.02
	LiquidAcceleration = 0.02
	LiquidJumpBoost    = 0.04
	WaterInertia       = 0.8
	LavaInertia        = 0.5
	ExitLiquidVelocity = 0.3

	LadderMaxSpeed = 0.15
	ClimbSpeed     = 0.2
	StepHeight     = 0.6

	DefaultWidth  = 0.6
	DefaultHeight = 1.8

	negligibleVelocity = 0.003
)

// Heading is the unit horizontal direction a body with this yaw faces.
func Heading(yaw float64) mgl64.Vec3 {
	return mgl64.Vec3{-math.Sin(yaw), 0, -math.Cos(yaw)}
}

// YawTo is the yaw that faces from one point towards another.
func YawTo(from, to mgl64.Vec3) float64 {
	return math.Atan2(-(to[0] - from[0]), -(to[2] - from[2]))
}

type Engine struct {
	World model.World
}

func NewEngine(w model.World) *Engine { return &Engine{World: w} }

func size(s *model.AgentState) (float64, float64) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// Tick advances s by one world tick under its control state.
func (e *Engine) Tick(s *model.AgentState) {
	w, h := size(s)
	box := BodyBox(s.Pos, w, h)
	s.InWater, s.InLava = e.liquids(box)

	for i := range s.Vel {
		if math.Abs(s.Vel[i]) < negligibleVelocity {
			s.Vel[i] = 0
		}
	}

	if s.Control.Jump {
		if s.JumpTicks > 0 {
			s.JumpTicks--
		}
		switch {
		case s.InWater || s.InLava:
			s.Vel[1] += LiquidJumpBoost
		case s.OnGround && s.JumpTicks == 0:
			s.Vel[1] = JumpVelocity
			if s.Control.Sprint {
				s.Vel = s.Vel.Add(Heading(s.Yaw).Mul(SprintJumpBoost))
			}
			s.JumpTicks = JumpCooldown
		}
	} else {
		s.JumpTicks = 0
	}

	strafe, forward := 0.0, 0.0
	if s.Control.Forward {
		forward++
	}
	if s.Control.Back {
		forward--
	}
	if s.Control.Left {
		strafe++
	}
	if s.Control.Right {
		strafe--
	}
	strafe *= 0.98
	forward *= 0.98
	if s.Control.Sneak {
		strafe *= SneakMultiplier
		forward *= SneakMultiplier
	}

	if s.InWater || s.InLava {
		startY := s.Pos[1]
		applyHeading(s, strafe, forward, LiquidAcceleration)
		e.move(s, s.Vel)
		inertia := WaterInertia
		if s.InLava {
			inertia = LavaInertia
		}
		s.Vel = s.Vel.Mul(inertia)
		s.Vel[1] -= LiquidGravity
		if s.CollidedH {
			lift := mgl64.Vec3{s.Vel[0], s.Vel[1] + 0.6 - s.Pos[1] + startY, s.Vel[2]}
			if e.free(BodyBox(s.Pos, w, h).Offset(lift)) {
				s.Vel[1] = ExitLiquidVelocity
			}
		}
		return
	}

	inertia, accel := AirInertia, AirAcceleration
	if s.OnGround {
		inertia = Slipperiness * AirInertia
		accel = GroundAcceleration * (0.1627714 / (inertia * inertia * inertia))
	}
	if s.Control.Sprint {
		accel *= SprintMultiplier
	}
	applyHeading(s, strafe, forward, accel)

	if e.onClimbable(s) {
		s.Vel[0] = mathx.Clamp(s.Vel[0], -LadderMaxSpeed, LadderMaxSpeed)
		s.Vel[2] = mathx.Clamp(s.Vel[2], -LadderMaxSpeed, LadderMaxSpeed)
		s.Vel[1] = math.Max(s.Vel[1], -LadderMaxSpeed)
		if s.Control.Sneak && s.Vel[1] < 0 {
			s.Vel[1] = 0
		}
	}
	e.move(s, s.Vel)
	if s.CollidedH && e.onClimbable(s) {
		s.Vel[1] = ClimbSpeed
	}
	s.Vel[1] = (s.Vel[1] - Gravity) * AirDrag
	s.Vel[0] *= inertia
	s.Vel[2] *= inertia
}

func applyHeading(s *model.AgentState, strafe, forward, accel float64) {
	speed := math.Hypot(strafe, forward)
	if speed < 0.01 {
		return
	}
	speed = accel / math.Max(speed, 1)
	strafe *= speed
	forward *= speed
	sin, cos := math.Sin(s.Yaw), math.Cos(s.Yaw)
	s.Vel[0] += strafe*cos - forward*sin
	s.Vel[2] += -forward*cos - strafe*sin
}

// move displaces the body by d, resolving collisions on y, then x, then z,
// and stepping up ledges no taller than StepHeight while grounded.
func (e *Engine) move(s *model.AgentState, d mgl64.Vec3) {
	w, h := size(s)
	start := BodyBox(s.Pos, w, h)
	if s.Control.Sneak && s.OnGround {
		d = e.backOffFromEdge(start, d)
	}
	box, got := e.slide(start, d)

	grounded := s.OnGround || (got[1] != d[1] && d[1] < 0)
	if grounded && (got[0] != d[0] || got[2] != d[2]) {
		up, upGot := e.slide(start, mgl64.Vec3{0, StepHeight, 0})
		stepped, stepGot := e.slide(up, mgl64.Vec3{d[0], 0, d[2]})
		down, downGot := e.slide(stepped, mgl64.Vec3{0, -upGot[1], 0})
		if stepGot[0]*stepGot[0]+stepGot[2]*stepGot[2] > got[0]*got[0]+got[2]*got[2] {
			box = down
			got = mgl64.Vec3{stepGot[0], upGot[1] + downGot[1], stepGot[2]}
		}
	}

	s.Pos = mgl64.Vec3{(box.Min[0] + box.Max[0]) / 2, box.Min[1], (box.Min[2] + box.Max[2]) / 2}
	s.CollidedH = got[0] != d[0] || got[2] != d[2]
	s.OnGround = got[1] != d[1] && d[1] < 0
	if got[0] != d[0] {
		s.Vel[0] = 0
	}
	if got[1] != d[1] {
		s.Vel[1] = 0
	}
	if got[2] != d[2] {
		s.Vel[2] = 0
	}
}

// backOffFromEdge shortens the horizontal part of d so a sneaking body
// keeps something under it, shrinking x and z separately in 0.05 steps.
func (e *Engine) backOffFromEdge(box AABB, d mgl64.Vec3) mgl64.Vec3 {
	const step = 0.05
	supported := func(dx, dz float64) bool {
		probe := AABB{
			Min: mgl64.Vec3{box.Min[0] + dx, box.Min[1] - 0.5, box.Min[2] + dz},
			Max: mgl64.Vec3{box.Max[0] + dx, box.Min[1], box.Max[2] + dz},
		}
		return !e.free(probe)
	}
	shrink := func(v float64) float64 {
		switch {
		case v < step && v >= -step:
			return 0
		case v > 0:
			return v - step
		}
		return v + step
	}
	for d[0] != 0 && !supported(d[0], 0) {
		d[0] = shrink(d[0])
	}
	for d[2] != 0 && !supported(0, d[2]) {
		d[2] = shrink(d[2])
	}
	for d[0] != 0 && d[2] != 0 && !supported(d[0], d[2]) {
		d[0] = shrink(d[0])
		d[2] = shrink(d[2])
	}
	return d
}

// slide moves box by d axis by axis and returns the moved box and the
// displacement actually applied.
func (e *Engine) slide(box AABB, d mgl64.Vec3) (AABB, mgl64.Vec3) {
	obstacles := e.collisions(box.Sweep(d))
	var got mgl64.Vec3
	for _, axis := range [3]int{1, 0, 2} {
		v := d[axis]
		if v == 0 {
			continue
		}
		for _, o := range obstacles {
			v = o.clip(box, axis, v)
		}
		var off mgl64.Vec3
		off[axis] = v
		box = box.Offset(off)
		got[axis] = v
	}
	return box, got
}

// collisions returns the block shapes overlapping area. Unloaded blocks do
// not collide.
func (e *Engine) collisions(area AABB) []AABB {
	var out []AABB
	x0, x1 := int(math.Floor(area.Min[0])), int(math.Floor(area.Max[0]))
	y0, y1 := int(math.Floor(area.Min[1]))-1, int(math.Floor(area.Max[1]))
	z0, z1 := int(math.Floor(area.Min[2])), int(math.Floor(area.Max[2]))
	for x := x0; x <= x1; x++ {
		for y := y0; y <= y1; y++ {
			for z := z0; z <= z1; z++ {
				b, ok := e.World.BlockAt(model.V(x, y, z))
				if !ok || b.BoundingBox != "block" {
					continue
				}
				base := mgl64.Vec3{float64(x), float64(y), float64(z)}
				for _, sh := range b.Shapes {
					box := AABB{
						Min: base.Add(mgl64.Vec3{sh[0], sh[1], sh[2]}),
						Max: base.Add(mgl64.Vec3{sh[3], sh[4], sh[5]}),
					}
					if box.Intersects(area) {
						out = append(out, box)
					}
				}
			}
		}
	}
	return out
}

func (e *Engine) free(box AABB) bool { return len(e.collisions(box)) == 0 }

// liquids reports whether the body overlaps water or lava. The water test
// ignores the bottom and top 0.4 of the box; lava also shrinks horizontally.
func (e *Engine) liquids(box AABB) (water, lava bool) {
	water = e.touches(box.Contract(0.001, 0.401, 0.001), func(b model.Block) bool { return b.Liquid && b.Name != "lava" })
	lava = e.touches(box.Contract(0.1, 0.4, 0.1), func(b model.Block) bool { return b.Name == "lava" })
	return water, lava
}

func (e *Engine) touches(box AABB, pred func(model.Block) bool) bool {
	for x := int(math.Floor(box.Min[0])); x <= int(math.Floor(box.Max[0])); x++ {
		for y := int(math.Floor(box.Min[1])); y <= int(math.Floor(box.Max[1])); y++ {
			for z := int(math.Floor(box.Min[2])); z <= int(math.Floor(box.Max[2])); z++ {
				if b, ok := e.World.BlockAt(model.V(x, y, z)); ok && pred(b) {
					return true
				}
			}
		}
	}
	return false
}

func (e *Engine) onClimbable(s *model.AgentState) bool {
	b, ok := e.World.BlockAt(model.Floor(s.Pos))
	return ok && b.Climbable
}

// Grounded reports whether the body rests on a collision shape.
func (e *Engine) Grounded(s model.AgentState) bool {
	w, h := size(&s)
	return !e.free(BodyBox(s.Pos, w, h).Offset(mgl64.Vec3{0, -0.01, 0}))
}

package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

const (
	straightLineTicks = 200
	jumpTicks         = 20
	maxJumpDelay      = 6
	betweenRadius     = 0.15
)

// Controller adjusts the controls before simulated tick i.
type Controller func(s *model.AgentState, tick int)

// Predictor answers whether a fixed control policy reaches a waypoint.
type Predictor struct {
	Engine *Engine
	// Error is the horizontal arrival tolerance.
	Error float64
}

func NewPredictor(e *Engine, arrivalError float64) *Predictor {
	return &Predictor{Engine: e, Error: arrivalError}
}

// SimulateUntil runs up to ticks ticks on a copy of s and returns the state
// where goal first held, the body entered lava, or the horizon ran out.
func (p *Predictor) SimulateUntil(s model.AgentState, goal func(model.AgentState) bool, ctl Controller, ticks int) model.AgentState {
	for i := 0; i < ticks; i++ {
		if ctl != nil {
			ctl(&s, i)
		}
		p.Engine.Tick(&s)
		if s.InLava || goal(s) {
			return s
		}
	}
	return s
}

// Reached is the arrival test used for path nodes.
func (p *Predictor) Reached(target mgl64.Vec3) func(model.AgentState) bool {
	return func(s model.AgentState) bool {
		d := target.Sub(s.Pos)
		return math.Abs(d[0]) <= p.Error && math.Abs(d[2]) <= p.Error && math.Abs(d[1]) < 1
	}
}

// Steer faces target every tick and holds forward, jumping from tick
// jumpAfter on when jump is set.
func Steer(target mgl64.Vec3, jump, sprint bool, jumpAfter int) Controller {
	return func(s *model.AgentState, tick int) {
		s.Yaw = YawTo(s.Pos, target)
		s.Control.Forward = true
		s.Control.Jump = jump && tick >= jumpAfter
		s.Control.Sprint = sprint
	}
}

// CanStraightLine reports whether walking (or sprinting) without jumping
// reaches target. When jumping right away would also work the straight
// walk is not trusted; delayed jumps are tried instead.
func (p *Predictor) CanStraightLine(s model.AgentState, target mgl64.Vec3, sprint bool) bool {
	reached := p.Reached(target)
	if reached(p.SimulateUntil(s, reached, Steer(target, false, sprint, 0), straightLineTicks)) {
		return true
	}
	if p.CanJump(s, target, sprint, 0) {
		return false
	}
	for i := 1; i <= maxJumpDelay; i++ {
		if p.CanJump(s, target, sprint, i) {
			return true
		}
	}
	return false
}

// CanJump reports whether jumping from tick jumpAfter on reaches target.
func (p *Predictor) CanJump(s model.AgentState, target mgl64.Vec3, sprint bool, jumpAfter int) bool {
	reached := p.Reached(target)
	return reached(p.SimulateUntil(s, reached, Steer(target, true, sprint, jumpAfter), jumpTicks))
}

// CanStraightLineBetween reports whether sprinting from `from` lands on
// `to` at the same height, standing or swimming. base supplies the body
// size and current controls.
func (p *Predictor) CanStraightLineBetween(base model.AgentState, from, to mgl64.Vec3) bool {
	reached := func(s model.AgentState) bool {
		d := to.Sub(s.Pos)
		return d[0]*d[0]+d[2]*d[2] <= betweenRadius*betweenRadius && math.Abs(d[1]) < 0.001 && (s.OnGround || s.InWater)
	}
	s := base
	s.Pos = from
	s.Vel = mgl64.Vec3{}
	ticks := int(math.Floor(5 * from.Sub(to).Len()))
	return reached(p.SimulateUntil(s, reached, Steer(to, false, true, 0), ticks))
}

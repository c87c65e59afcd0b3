package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	bt "github.com/joeycumines/go-behaviortree"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// gait is a locomotion choice for one tick.
type gait struct {
	name     string
	jump     bool
	sprint   bool
	fallback bool
}

// chooseGait picks how to move toward path[0]. The move type's preferred
// gaits are tried first, then the generic ladder from the plainest to the
// most aggressive; the move type's guaranteed gait is the last resort.
func (s *Session) chooseGait(st model.AgentState, next move.Move) gait {
	target := next.Point()
	sprint := false
	switch next.Sprint {
	case move.SprintOptional:
		sprint = s.moves.AllowSprinting
	case move.SprintYes:
		sprint = true
	}

	var chosen gait
	leaf := func(g gait, ok func() bool) bt.Node {
		return bt.New(func([]bt.Node) (bt.Status, error) {
			if !ok() {
				return bt.Failure, nil
			}
			chosen = g
			return bt.Success, nil
		})
	}
	predict := func(g gait) func() bool {
		if g.jump {
			return func() bool { return s.predictor.CanJump(st, target, g.sprint, 0) }
		}
		return func() bool { return s.predictor.CanStraightLine(st, target, g.sprint) }
	}

	var children []bt.Node
	switch next.Type {
	case move.Forward, move.Diagonal, move.DiagonalDown, move.DropDown, move.Down:
		g := gait{name: "straight", sprint: sprint}
		children = append(children, leaf(g, predict(g)))
	case move.Parkour:
		g1 := gait{name: "straight", sprint: sprint}
		g2 := gait{name: "jump", jump: true, sprint: sprint}
		children = append(children, leaf(g1, predict(g1)), leaf(g2, predict(g2)))
	case move.DiagonalUp, move.JumpUp:
		g := gait{name: "jump", jump: true, sprint: sprint}
		children = append(children, leaf(g, predict(g)))
	}
	preferred := len(children)
	for _, g := range fallbackGaits(s.moves.AllowSprinting) {
		children = append(children, leaf(g, predict(g)))
	}
	safe := safeGait(next.Type, sprint)
	children = append(children, leaf(safe, func() bool { return true }))

	root := bt.New(bt.Selector, children...)
	if _, err := root.Tick(); err != nil {
		s.logf("locomotion tick: %v", err)
		return safe
	}
	if preferred > 0 && chosen.fallback {
		s.logf("fallback type=%s sprint=%s gait=%q", next.Type, next.Sprint, chosen.name)
	}
	return chosen
}

// fallbackGaits is the generic ladder in order of increasing
// aggressiveness: walking before sprinting, straight before jumping.
func fallbackGaits(allowSprint bool) []gait {
	out := []gait{
		{name: "straight", fallback: true},
		{name: "jump", jump: true, fallback: true},
	}
	if allowSprint {
		out = append(out,
			gait{name: "straight-sprint", sprint: true, fallback: true},
			gait{name: "jump-sprint", jump: true, sprint: true, fallback: true},
		)
	}
	return out
}

// safeGait is used when no prediction succeeds. Moves that climb or
// cross a gap cannot be done without jumping.
func safeGait(t move.Type, sprint bool) gait {
	switch t {
	case move.JumpUp, move.DiagonalUp:
		return gait{name: "default", jump: true, fallback: true}
	case move.Parkour:
		return gait{name: "default", jump: true, sprint: sprint, fallback: true}
	}
	return gait{name: "default", fallback: true}
}

// goForward steers toward target. With lookAt the head turns and only
// forward is pressed; otherwise the current yaw is kept and the movement
// keys approximate the direction in 45 degree sectors.
func (s *Session) goForward(st model.AgentState, target mgl64.Vec3, lookAt bool) {
	d := target.Sub(st.Pos)
	yaw := math.Atan2(-d[0], -d[2])
	s.ctl.Forward, s.ctl.Back, s.ctl.Left, s.ctl.Right = false, false, false, false
	if lookAt {
		s.ctl.Forward = true
		s.body.Look(yaw, 0)
		return
	}
	diff := math.Round((yaw - st.Yaw) * 180 / math.Pi)
	for diff < -180 {
		diff += 360
	}
	for diff > 180 {
		diff -= 360
	}
	a := math.Abs(diff)
	switch {
	case a < 22.5:
		s.ctl.Forward = true
	case a > 157.5:
		s.ctl.Back = true
	case a < 67.5:
		s.ctl.Forward = true
	case a < 112.5:
	default:
		s.ctl.Back = true
	}
	if a >= 22.5 && a <= 157.5 {
		if diff > 0 {
			s.ctl.Left = true
		} else {
			s.ctl.Right = true
		}
	}
}

// swim keeps the agent surfacing in liquids, pushing off walls it touches.
func (s *Session) swim(st model.AgentState, next move.Move) {
	half := st.Width / 2
	if half <= 0 {
		half = 0.3
	}
	solid := func(dx, dz float64) bool {
		return s.moves.Block(model.Floor(st.Pos.Add(mgl64.Vec3{dx, 0, dz})), 0, 0, 0).Physical
	}
	var away *mgl64.Vec3
	push := func(v mgl64.Vec3) { away = &v }
	if solid(half, 0) {
		push(st.Pos.Add(mgl64.Vec3{-0.5, 0, 0}))
	} else if solid(-half, 0) {
		push(st.Pos.Add(mgl64.Vec3{0.5, 0, 0}))
	}
	if solid(0, half) {
		push(st.Pos.Add(mgl64.Vec3{0, 0, -0.5}))
	} else if solid(0, -half) {
		push(st.Pos.Add(mgl64.Vec3{0, 0, 0.5}))
	}
	if away != nil {
		s.goForward(st, *away, false)
	} else {
		s.goForward(st, next.Point(), s.ctlCfg.LookAtTarget)
	}
	s.ctl.Jump = true
	s.ctl.Sprint = false
}

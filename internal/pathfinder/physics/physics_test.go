package physics

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/pathtest"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

const feetY = pathtest.FloorY + 1

var facePlusX = -math.Pi / 2

func TestHeadingAndYaw(t *testing.T) {
	yaw := YawTo(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0})
	assert.InDelta(t, facePlusX, yaw, 1e-9)
	h := Heading(yaw)
	assert.InDelta(t, 1, h[0], 1e-9)
	assert.InDelta(t, 0, h[2], 1e-9)
	h = Heading(math.Pi)
	assert.InDelta(t, 1, h[2], 1e-9)
}

func TestClip(t *testing.T) {
	o := AABB{Max: mgl64.Vec3{1, 1, 1}}
	m := AABB{Min: mgl64.Vec3{-1, 0, 0}, Max: mgl64.Vec3{-0.4, 1, 1}}
	assert.InDelta(t, 0.4, o.clip(m, 0, 1), 1e-9)
	assert.InDelta(t, -1, o.clip(m, 0, -1), 1e-9, "moving away")
	above := m.Offset(mgl64.Vec3{0, 1, 0})
	assert.InDelta(t, 1, o.clip(above, 0, 1), 1e-9, "no overlap on y")
}

func walker(t *testing.T, x, z float64) (*SimBody, *Engine) {
	w := pathtest.Flat(t, 8)
	e := NewEngine(w)
	return NewSimBody(e, mgl64.Vec3{x, feetY, z}), e
}

func TestEngine_WalkAndSprintSpeed(t *testing.T) {
	speed := func(sprint bool) float64 {
		b, _ := walker(t, -7.5, 0.5)
		require.True(t, b.State().OnGround)
		b.Look(facePlusX, 0)
		b.SetControls(model.ControlState{Forward: true, Sprint: sprint})
		for i := 0; i < 30; i++ {
			b.Step()
		}
		before := b.State().Pos[0]
		b.Step()
		return b.State().Pos[0] - before
	}
	assert.InDelta(t, 0.2159, speed(false), 0.005)
	assert.InDelta(t, 0.2807, speed(true), 0.005)
}

func TestEngine_SneakStopsAtEdge(t *testing.T) {
	b, _ := walker(t, 7.5, 0.5)
	b.Look(facePlusX, 0)
	b.SetControls(model.ControlState{Forward: true, Sneak: true})
	for i := 0; i < 80; i++ {
		b.Step()
	}
	st := b.State()
	assert.True(t, st.OnGround)
	assert.InDelta(t, feetY, st.Pos[1], 1e-9)
	assert.Greater(t, st.Pos[0], 9.0, "overhangs the edge")
	assert.LessOrEqual(t, st.Pos[0], 9.3)
}

func TestEngine_FallsOntoFloor(t *testing.T) {
	b, _ := walker(t, 0.5, 0.5)
	b.Teleport(mgl64.Vec3{0.5, 70, 0.5})
	assert.False(t, b.State().OnGround)
	for i := 0; i < 60; i++ {
		b.Step()
	}
	assert.InDelta(t, feetY, b.State().Pos[1], 1e-9)
	assert.True(t, b.State().OnGround)
}

func TestEngine_ClimbsLadder(t *testing.T) {
	w := pathtest.Flat(t, 4)
	pathtest.Fill(t, w, model.V(0, feetY, 0), model.V(0, feetY+3, 0), "ladder")
	b := NewSimBody(NewEngine(w), mgl64.Vec3{0.5, feetY, 0.5})
	b.Look(math.Pi, 0)
	b.SetControls(model.ControlState{Forward: true})
	for i := 0; i < 20; i++ {
		b.Step()
	}
	assert.Greater(t, b.State().Pos[1], feetY+1.5)
}

func TestEngine_SwimsUp(t *testing.T) {
	w := pathtest.Flat(t, 4)
	pathtest.Fill(t, w, model.V(0, feetY, 0), model.V(0, feetY+2, 0), "water")
	b := NewSimBody(NewEngine(w), mgl64.Vec3{0.5, feetY, 0.5})
	b.SetControls(model.ControlState{Jump: true})
	for i := 0; i < 10; i++ {
		b.Step()
	}
	assert.True(t, b.State().InWater)
	assert.Greater(t, b.State().Pos[1], feetY+0.5)
}

func TestSimBody_HaltRecenters(t *testing.T) {
	b, _ := walker(t, 0.95, 0.6)
	b.Halt()
	assert.Equal(t, 0.5, b.State().Pos[0])
	assert.Equal(t, 0.6, b.State().Pos[2])
}

func TestPredictor_FlatStraightLine(t *testing.T) {
	b, e := walker(t, 0.5, 0.5)
	p := NewPredictor(e, 0.35)
	assert.True(t, p.CanStraightLine(b.State(), mgl64.Vec3{1.5, feetY, 0.5}, false))
	assert.True(t, p.CanStraightLine(b.State(), mgl64.Vec3{3.5, feetY, 0.5}, true))
	assert.Equal(t, mgl64.Vec3{0.5, feetY, 0.5}, b.State().Pos, "prediction does not move the body")
}

func TestPredictor_StepNeedsJump(t *testing.T) {
	w := pathtest.Flat(t, 4)
	pathtest.Set(t, w, model.V(1, feetY, 0), "stone")
	e := NewEngine(w)
	s := NewSimBody(e, mgl64.Vec3{0.5, feetY, 0.5}).State()
	p := NewPredictor(e, 0.35)
	target := mgl64.Vec3{1.5, feetY + 1, 0.5}

	assert.True(t, p.CanJump(s, target, false, 0))
	assert.False(t, p.CanStraightLine(s, target, false))
}

func TestPredictor_LavaAborts(t *testing.T) {
	w := pathtest.Flat(t, 4)
	pathtest.Set(t, w, model.V(1, pathtest.FloorY, 0), "lava")
	e := NewEngine(w)
	s := NewSimBody(e, mgl64.Vec3{0.5, feetY, 0.5}).State()
	p := NewPredictor(e, 0.35)
	target := mgl64.Vec3{3.5, feetY, 0.5}

	end := p.SimulateUntil(s, func(model.AgentState) bool { return false }, Steer(target, false, false, 0), 100)
	assert.True(t, end.InLava)
	assert.Less(t, end.Pos[0], 2.0)
}

func TestPredictor_StraightLineBetween(t *testing.T) {
	w := pathtest.Flat(t, 6)
	pathtest.Fill(t, w, model.V(2, feetY, 2), model.V(2, feetY+1, 2), "stone")
	e := NewEngine(w)
	p := NewPredictor(e, 0.35)
	base := NewSimBody(e, mgl64.Vec3{0.5, feetY, 0.5}).State()

	assert.True(t, p.CanStraightLineBetween(base, mgl64.Vec3{0.5, feetY, 0.5}, mgl64.Vec3{3.5, feetY, 0.5}))
	assert.False(t, p.CanStraightLineBetween(base, mgl64.Vec3{0.5, feetY, 2.5}, mgl64.Vec3{4.5, feetY, 2.5}), "wall in the way")
	assert.False(t, p.CanStraightLineBetween(base, mgl64.Vec3{0.5, feetY, 0.5}, mgl64.Vec3{3.5, feetY + 1, 0.5}))
}

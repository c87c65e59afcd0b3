package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// SimBody is a model.Body driven by the Engine, one Step per tick.
type SimBody struct {
	Engine *Engine
	state  model.AgentState
}

// NewSimBody places a default-sized body with its feet at pos.
func NewSimBody(e *Engine, pos mgl64.Vec3) *SimBody {
	b := &SimBody{Engine: e, state: model.AgentState{Pos: pos, Width: DefaultWidth, Height: DefaultHeight}}
	b.state.OnGround = e.Grounded(b.state)
	return b
}

func (b *SimBody) State() model.AgentState { return b.state }

func (b *SimBody) SetControls(c model.ControlState) { b.state.Control = c }

func (b *SimBody) Look(yaw, pitch float64) {
	b.state.Yaw = yaw
	b.state.Pitch = pitch
}

func (b *SimBody) Halt() {
	b.state.Vel[0] = 0
	b.state.Vel[2] = 0
	for _, i := range [2]int{0, 2} {
		c := math.Floor(b.state.Pos[i]) + 0.5
		if math.Abs(b.state.Pos[i]-c) > 0.2 {
			b.state.Pos[i] = c
		}
	}
}

// Step advances the body one tick.
func (b *SimBody) Step() { b.Engine.Tick(&b.state) }

// Teleport moves the body and clears its velocity.
func (b *SimBody) Teleport(pos mgl64.Vec3) {
	b.state.Pos = pos
	b.state.Vel = mgl64.Vec3{}
	b.state.OnGround = b.Engine.Grounded(b.state)
}

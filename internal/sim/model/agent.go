package model

import "github.com/go-gl/mathgl/mgl64"

type Entity struct {
	ID       int
	Name     string
	Position mgl64.Vec3
	Width    float64
	Height   float64
}

// EntitySource enumerates the entities currently tracked near the agent.
type EntitySource interface {
	Entities() []Entity
	Self() int
}

type EquipSlot string

const (
	SlotHand EquipSlot = "hand"
	SlotFeet EquipSlot = "feet"
)

type Item struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Slot       int    `json:"slot"`
	Efficiency int    `json:"efficiency,omitempty"`
}

type Inventory interface {
	Items() []Item
	Equipped(slot EquipSlot) (Item, bool)
}

// Actions are the world-mutating executors. Every call completes
// asynchronously by invoking done exactly once; failures are reported
// through the error, never by panicking.
type Actions interface {
	Dig(pos Vec3i, done func(error))
	StopDigging()
	Place(ref Vec3i, face Vec3i, done func(error))
	Activate(pos Vec3i, done func(error))
	Equip(item Item, slot EquipSlot, done func(error))
}

type ControlState struct {
	Forward bool `json:"forward,omitempty"`
	Back    bool `json:"back,omitempty"`
	Left    bool `json:"left,omitempty"`
	Right   bool `json:"right,omitempty"`
	Jump    bool `json:"jump,omitempty"`
	Sprint  bool `json:"sprint,omitempty"`
	Sneak   bool `json:"sneak,omitempty"`
}

// AgentState is the kinematic state of the agent's body.
type AgentState struct {
	Pos mgl64.Vec3
	Vel mgl64.Vec3

	Yaw   float64
	Pitch float64

	OnGround  bool
	InWater   bool
	InLava    bool
	CollidedH bool
	JumpTicks int

	Width  float64
	Height float64

	Control ControlState
}

// Body is the agent the controller steers.
type Body interface {
	State() AgentState
	SetControls(c ControlState)
	Look(yaw, pitch float64)
	// Halt zeroes horizontal velocity and recenters the body on its block
	// when it overhangs by more than 0.2.
	Halt()
}

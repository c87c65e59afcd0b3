// Package move holds the edge type produced by the movement model and
// consumed by the search engine and the controller.
package move

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

type Type string

const (
	Start        Type = "start"
	Forward      Type = "forward"
	Diagonal     Type = "diagonal"
	DiagonalUp   Type = "diagonal-up"
	DiagonalDown Type = "diagonal-down"
	JumpUp       Type = "jump-up"
	DropDown     Type = "drop-down"
	Up           Type = "up"
	Down         Type = "down"
	Parkour      Type = "parkour"
)

type Sprint uint8

const (
	SprintNo Sprint = iota
	SprintOptional
	SprintYes
)

func (s Sprint) String() string {
	switch s {
	case SprintOptional:
		return "optional"
	case SprintYes:
		return "yes"
	}
	return "no"
}

func (s Sprint) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Sprint) UnmarshalText(b []byte) error {
	switch string(b) {
	case "optional":
		*s = SprintOptional
	case "yes":
		*s = SprintYes
	default:
		*s = SprintNo
	}
	return nil
}

// Placement places a block against Ref on the face pointing along Dir.
// With UseOne the block at Ref is activated instead (gates, doors).
type Placement struct {
	Ref    model.Vec3i  `json:"ref"`
	Dir    model.Vec3i  `json:"dir"`
	Jump   bool         `json:"jump,omitempty"`
	UseOne bool         `json:"use_one,omitempty"`
	Return *model.Vec3i `json:"return,omitempty"`
}

// Target is the voxel that ends up occupied.
func (p Placement) Target() model.Vec3i { return p.Ref.Add(p.Dir) }

// Move is one edge of the movement graph: the foot voxel reached plus the
// work needed to get there. Moves are shared between the search arena and
// the controller; use Clone before mutating side-action lists.
type Move struct {
	Pos                  model.Vec3i   `json:"pos"`
	Cost                 float64       `json:"cost"`
	RemainingScaffolding int           `json:"remaining"`
	ToBreak              []model.Vec3i `json:"to_break,omitempty"`
	ToPlace              []Placement   `json:"to_place,omitempty"`
	Type                 Type          `json:"type"`
	Sprint               Sprint        `json:"sprint"`
	DontOptimize         bool          `json:"dont_optimize,omitempty"`

	// Target is the refined waypoint set by post-processing.
	Target    mgl64.Vec3 `json:"target"`
	HasTarget bool       `json:"has_target,omitempty"`
}

func New(pos model.Vec3i, remaining int, cost float64, toBreak []model.Vec3i, toPlace []Placement, t Type, sprint Sprint, dontOptimize bool) Move {
	return Move{
		Pos:                  pos,
		Cost:                 cost,
		RemainingScaffolding: remaining,
		ToBreak:              toBreak,
		ToPlace:              toPlace,
		Type:                 t,
		Sprint:               sprint,
		DontOptimize:         dontOptimize,
	}
}

func StartAt(pos model.Vec3i, scaffolding int) Move {
	return Move{Pos: pos, RemainingScaffolding: scaffolding, Type: Start}
}

// Hash is the identity key used by search sets.
func (m Move) Hash() string { return m.Pos.String() }

func (m Move) HasSideActions() bool { return len(m.ToBreak) > 0 || len(m.ToPlace) > 0 }

// Point is where the controller steers: the refined target, or the centre
// of the foot voxel.
func (m Move) Point() mgl64.Vec3 {
	if m.HasTarget {
		return m.Target
	}
	return m.Pos.Center()
}

func (m Move) WithTarget(p mgl64.Vec3) Move {
	m.Target = p
	m.HasTarget = true
	return m
}

func (m Move) Clone() Move {
	c := m
	if m.ToBreak != nil {
		c.ToBreak = append([]model.Vec3i(nil), m.ToBreak...)
	}
	if m.ToPlace != nil {
		c.ToPlace = append([]Placement(nil), m.ToPlace...)
	}
	return c
}

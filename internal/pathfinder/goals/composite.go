package goals

import (
	"math"
	"strings"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// Any is satisfied by any child; it routes to the cheapest one.
type Any struct {
	Goals []Goal
}

func (g *Any) Push(c Goal) { g.Goals = append(g.Goals, c) }

func (g *Any) Heuristic(n model.Vec3i) float64 {
	min := math.MaxFloat64
	for _, c := range g.Goals {
		min = math.Min(min, c.Heuristic(n))
	}
	return min
}

func (g *Any) IsEnd(n model.Vec3i) bool {
	for _, c := range g.Goals {
		if c.IsEnd(n) {
			return true
		}
	}
	return false
}

func (g *Any) HasChanged() bool { return anyChanged(g.Goals) }
func (g *Any) IsValid() bool    { return allValid(g.Goals) }
func (g *Any) String() string   { return "any(" + join(g.Goals) + ")" }

// All requires every child at once.
type All struct {
	Goals []Goal
}

func (g *All) Push(c Goal) { g.Goals = append(g.Goals, c) }

func (g *All) Heuristic(n model.Vec3i) float64 {
	if len(g.Goals) == 0 {
		return 0
	}
	max := -math.MaxFloat64
	for _, c := range g.Goals {
		max = math.Max(max, c.Heuristic(n))
	}
	return max
}

func (g *All) IsEnd(n model.Vec3i) bool {
	for _, c := range g.Goals {
		if !c.IsEnd(n) {
			return false
		}
	}
	return true
}

func (g *All) HasChanged() bool { return anyChanged(g.Goals) }
func (g *All) IsValid() bool    { return allValid(g.Goals) }
func (g *All) String() string   { return "all(" + join(g.Goals) + ")" }

type Invert struct {
	Goal Goal
}

func (g Invert) Heuristic(n model.Vec3i) float64 { return -g.Goal.Heuristic(n) }
func (g Invert) IsEnd(n model.Vec3i) bool        { return !g.Goal.IsEnd(n) }
func (g Invert) HasChanged() bool                { return g.Goal.HasChanged() }
func (g Invert) IsValid() bool                   { return g.Goal.IsValid() }
func (g Invert) String() string                  { return "invert(" + join([]Goal{g.Goal}) + ")" }

// anyChanged polls every child so each gets to refresh its state.
func anyChanged(gs []Goal) bool {
	changed := false
	for _, c := range gs {
		if c.HasChanged() {
			changed = true
		}
	}
	return changed
}

func allValid(gs []Goal) bool {
	for _, c := range gs {
		if !c.IsValid() {
			return false
		}
	}
	return true
}

func join(gs []Goal) string {
	parts := make([]string, 0, len(gs))
	for _, g := range gs {
		parts = append(parts, Describe(g))
	}
	return strings.Join(parts, ",")
}

package movements

import (
	"math"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

var sides = [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// dangerCost penalises standing in or next to hazards.
func (m *Movements) dangerCost(p model.Vec3i) float64 {
	cost := 0.0
	switch m.Block(p, 0, 0, 0).Name {
	case "fire":
		cost += 30
	case "campfire":
		cost += 20
	}
	if m.Block(p, 0, -1, 0).Name == "campfire" {
		cost += 20
	}
	for _, s := range sides {
		switch m.Block(p, s[0], 0, s[1]).Name {
		case "campfire":
			cost += 2
		case "cobweb":
			cost += 1
		case "fire":
			cost += 10
		}
		switch m.Block(p, s[0], -1, s[1]).Name {
		case "water":
			cost += 2
		case "fire":
			cost += 10
		case "lava":
			cost += 50
		}
	}
	return cost
}

func (m *Movements) landingCost(ground SafeBlock) float64 {
	if ground.Name == "farmland" {
		return 100
	}
	return 0
}

// EntitiesAt returns the obstruction weight recorded for p+(dx,dy,dz).
func (m *Movements) EntitiesAt(p model.Vec3i, dx, dy, dz int) float64 {
	if !m.AllowEntityDetection {
		return 0
	}
	return m.entityIntersections[p.Offset(dx, dy, dz)]
}

// SafeToBreak applies the digging policy and break exclusions.
func (m *Movements) SafeToBreak(b SafeBlock) bool {
	if !b.Loaded {
		return false
	}
	if !m.CanDig && !m.BlocksCanBreakAnyway.Has(b.Name) {
		return false
	}
	if m.DontCreateFlow {
		if m.Block(b.Pos, 0, 1, 0).Liquid {
			return false
		}
		for _, s := range sides {
			if m.Block(b.Pos, s[0], 0, s[1]).Liquid {
				return false
			}
		}
	}
	if m.DontMineUnderFalling {
		if m.Block(b.Pos, 0, 1, 0).CanFall || m.EntitiesAt(b.Pos, 0, 1, 0) > 0 {
			return false
		}
	}
	return !m.BlocksCantBreak.Has(b.Name) && m.exclusionBreak(b) < inf
}

// safeOrBreak returns the cost of occupying b, scheduling a break into
// toBreak when b is in the way. +Inf means b cannot be cleared.
func (m *Movements) safeOrBreak(b SafeBlock, toBreak *[]model.Vec3i) float64 {
	cost := m.exclusionStep(b)
	cost += m.EntitiesAt(b.Pos, 0, 0, 0) * m.EntityCost
	if b.Liquid {
		cost += m.LiquidCost
	}
	if b.Safe {
		return cost
	}
	if !m.SafeToBreak(b) {
		return inf
	}
	*toBreak = append(*toBreak, b.Pos)
	if b.Physical {
		// Whatever stands on top will drop into the gap.
		cost += m.EntitiesAt(b.Pos, 0, 1, 0) * m.EntityCost
	}
	tool := m.BestHarvestTool(b.Block)
	digTime := m.Cat.DigTimeMS(b.Block, tool)
	if math.IsInf(digTime, 1) {
		return inf
	}
	return cost + (1+3*digTime/1000)*m.DigCost
}

// landingBlock scans down the column at node+dir, starting two below the
// feet, for somewhere to land. It returns the foot voxel of the landing.
func (m *Movements) landingBlock(node model.Vec3i, dx, dz int) (SafeBlock, bool) {
	b := m.Block(node, dx, -2, dz)
	for b.Pos.Y > m.World.MinY() {
		if b.Liquid && b.Safe {
			return b, true
		}
		if b.Physical {
			if node.Y-b.Pos.Y <= m.MaxDropDown {
				return m.Block(b.Pos, 0, 1, 0), true
			}
			return SafeBlock{}, false
		}
		if !b.Safe {
			return SafeBlock{}, false
		}
		b = m.Block(b.Pos, 0, -1, 0)
	}
	return SafeBlock{}, false
}

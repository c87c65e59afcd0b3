package movements

import (
	"math"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

type dirXZ struct{ X, Z int }

var (
	cardinalDirections = [4]dirXZ{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
	diagonalDirections = [4]dirXZ{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
)

func isDoor(name string) bool {
	return len(name) > 5 && name[len(name)-5:] == "_door"
}

// Neighbors enumerates every move out of node. Order is stable: cardinal
// moves per direction, free parkour vectors, diagonals, then vertical.
func (m *Movements) Neighbors(node move.Move) []move.Move {
	var out []move.Move
	for _, d := range cardinalDirections {
		m.moveForward(node, d, &out)
		m.moveJumpUp(node, d, &out)
		m.moveDropDown(node, d, &out)
		if m.AllowParkour {
			m.moveParkourForward(node, d, &out)
		}
	}
	if m.AllowParkour {
		for _, pd := range parkourDirections {
			m.moveParkourAny(node, pd, &out)
		}
	}
	for _, d := range diagonalDirections {
		m.moveDiagonal(node, d, &out)
	}
	m.moveDown(node, &out)
	m.moveUp(node, &out)
	return out
}

func (m *Movements) moveForward(node move.Move, dir dirXZ, out *[]move.Move) {
	p := node.Pos
	headAfter := m.Block(p, dir.X, 1, dir.Z)
	footAfter := m.Block(p, dir.X, 0, dir.Z)
	groundAfter := m.Block(p, dir.X, -1, dir.Z)

	cost := 1 + m.exclusionStep(footAfter)
	var toBreak []model.Vec3i
	var toPlace []move.Placement

	if isDoor(groundAfter.Name) {
		return
	}

	if !groundAfter.Physical && !footAfter.Liquid && groundAfter.Name != "end_portal" {
		if node.RemainingScaffolding == 0 {
			return
		}
		if m.EntitiesAt(groundAfter.Pos, 0, 0, 0) > 0 {
			return
		}
		if !groundAfter.Replaceable {
			if !m.SafeToBreak(groundAfter) {
				return
			}
			cost += m.exclusionBreak(groundAfter)
			toBreak = append(toBreak, groundAfter.Pos)
		}
		cost += m.exclusionPlace(groundAfter)
		toPlace = append(toPlace, move.Placement{Ref: p.Offset(0, -1, 0), Dir: model.V(dir.X, 0, dir.Z)})
		cost += m.PlaceCost
	} else if !groundAfter.CanWalkOn {
		return
	}

	gate := false
	if m.CanOpenDoors && footAfter.Openable && !footAfter.IsOpen() {
		toPlace = append(toPlace, move.Placement{Ref: footAfter.Pos, UseOne: true})
		gate = true
	}
	if !gate {
		if cost += m.safeOrBreak(footAfter, &toBreak); math.IsInf(cost, 1) {
			return
		}
		if cost += m.safeOrBreak(headAfter, &toBreak); math.IsInf(cost, 1) {
			return
		}
	}
	if m.Block(p, 0, 0, 0).Liquid {
		cost += m.LiquidCost
	}
	if groundAfter.Liquid {
		cost += m.LiquidCost
	}
	if cost += m.dangerCost(footAfter.Pos); math.IsInf(cost, 1) {
		return
	}
	*out = append(*out, move.New(footAfter.Pos, node.RemainingScaffolding-placements(toPlace), cost, toBreak, toPlace, move.Forward, move.SprintOptional, false))
}

func (m *Movements) moveJumpUp(node move.Move, dir dirXZ, out *[]move.Move) {
	p := node.Pos
	ground := m.Block(p, 0, -1, 0)
	foot := m.Block(p, 0, 0, 0)
	aboveHead := m.Block(p, 0, 2, 0)
	headAfter := m.Block(p, dir.X, 2, dir.Z)
	footAfter := m.Block(p, dir.X, 1, dir.Z)
	groundAfter := m.Block(p, dir.X, 0, dir.Z)
	belowGroundAfter := m.Block(p, dir.X, -1, dir.Z)

	if !foot.CanJumpFrom {
		return
	}
	cost := 2.0
	var toBreak []model.Vec3i
	var toPlace []move.Placement

	if isDoor(groundAfter.Name) {
		return
	}
	// Clearing these would drop whatever stands on them into the work area.
	if aboveHead.Physical && m.EntitiesAt(aboveHead.Pos, 0, 1, 0) > 0 {
		return
	}
	if headAfter.Physical && m.EntitiesAt(headAfter.Pos, 0, 1, 0) > 0 {
		return
	}
	if footAfter.Physical && !headAfter.Physical && !groundAfter.Physical && m.EntitiesAt(footAfter.Pos, 0, 1, 0) > 0 {
		return
	}

	carpetOnFence := m.Fences.Has(groundAfter.Name) && m.Carpets.Has(footAfter.Name)

	if !carpetOnFence && !groundAfter.Physical && groundAfter.Name != "end_portal" {
		if node.RemainingScaffolding == 0 {
			return
		}
		if m.EntitiesAt(groundAfter.Pos, 0, 0, 0) > 0 {
			return
		}
		if !belowGroundAfter.Physical {
			if node.RemainingScaffolding == 1 {
				return
			}
			if m.EntitiesAt(belowGroundAfter.Pos, 0, 0, 0) > 0 {
				return
			}
			if !belowGroundAfter.Replaceable {
				if !m.SafeToBreak(belowGroundAfter) {
					return
				}
				cost += m.exclusionBreak(belowGroundAfter)
				toBreak = append(toBreak, belowGroundAfter.Pos)
			}
			cost += m.exclusionPlace(belowGroundAfter)
			ret := p
			toPlace = append(toPlace, move.Placement{Ref: p.Offset(0, -1, 0), Dir: model.V(dir.X, 0, dir.Z), Return: &ret})
			cost += m.PlaceCost
		}
		if !groundAfter.Replaceable {
			if !m.SafeToBreak(groundAfter) {
				return
			}
			cost += m.exclusionBreak(groundAfter)
			toBreak = append(toBreak, groundAfter.Pos)
		}
		cost += m.exclusionPlace(groundAfter)
		toPlace = append(toPlace, move.Placement{Ref: p.Offset(dir.X, -1, dir.Z), Dir: model.V(0, 1, 0)})
		cost += m.PlaceCost
		groundAfter.Height++
	}

	if !carpetOnFence {
		fromLiquid := groundAfter.Pos.Y-ground.Pos.Y <= 1 && groundAfter.Physical && ground.Liquid
		if !fromLiquid && groundAfter.Height-ground.Height > 1.2 && ground.Name != "air" {
			return
		}
	}

	cost += m.landingCost(groundAfter)
	if cost += m.safeOrBreak(aboveHead, &toBreak); math.IsInf(cost, 1) {
		return
	}
	if cost += m.safeOrBreak(headAfter, &toBreak); math.IsInf(cost, 1) {
		return
	}
	if cost += m.safeOrBreak(footAfter, &toBreak); math.IsInf(cost, 1) {
		return
	}
	cost += m.dangerCost(footAfter.Pos)
	if groundAfter.Liquid {
		cost += m.LiquidCost
	}
	if math.IsInf(cost, 1) {
		return
	}
	*out = append(*out, move.New(footAfter.Pos, node.RemainingScaffolding-len(toPlace), cost, toBreak, toPlace, move.JumpUp, move.SprintNo, true))
}

func (m *Movements) moveDiagonal(node move.Move, dir dirXZ, out *[]move.Move) {
	p := node.Pos
	cost := math.Sqrt2
	var toBreak []model.Vec3i

	footAfter := m.Block(p, dir.X, 0, dir.Z)
	groundAfter := m.Block(p, dir.X, -1, dir.Z)
	ground := m.Block(p, 0, -1, 0)
	y := 0
	if footAfter.CanWalkOn {
		y = 1
	}

	// Only the cheaper of the two corners needs to be clear.
	corner := func(dx, dz int) (float64, []model.Vec3i) {
		var br []model.Vec3i
		c := m.safeOrBreak(m.Block(p, dx, y+1, dz), &br)
		c += m.safeOrBreak(m.Block(p, dx, y, dz), &br)
		if g := m.Block(p, dx, y-1, dz); g.Height-ground.Height > 1.2 {
			c += m.safeOrBreak(g, &br)
		}
		return c, br
	}
	cost1, break1 := corner(0, dir.Z)
	cost2, break2 := corner(dir.X, 0)
	if cost1 < cost2 {
		cost += cost1
		toBreak = append(toBreak, break1...)
	} else {
		cost += cost2
		toBreak = append(toBreak, break2...)
	}
	if math.IsInf(cost, 1) {
		return
	}
	if cost += m.safeOrBreak(m.Block(p, dir.X, y, dir.Z), &toBreak); math.IsInf(cost, 1) {
		return
	}
	if cost += m.safeOrBreak(m.Block(p, dir.X, y+1, dir.Z), &toBreak); math.IsInf(cost, 1) {
		return
	}
	if m.Block(p, 0, 0, 0).Liquid {
		cost += m.LiquidCost
	}
	if m.Block(p, dir.X, y-1, dir.Z).Liquid {
		cost += m.LiquidCost
	}
	if cost += m.dangerCost(footAfter.Pos); math.IsInf(cost, 1) {
		return
	}

	switch {
	case y == 1:
		if footAfter.Height-ground.Height > 1.2 {
			return
		}
		if cost += m.safeOrBreak(m.Block(p, 0, 2, 0), &toBreak); math.IsInf(cost, 1) {
			return
		}
		cost++
		*out = append(*out, move.New(footAfter.Pos.Offset(0, 1, 0), node.RemainingScaffolding, cost, toBreak, nil, move.DiagonalUp, move.SprintNo, true))
	case groundAfter.CanWalkOn || footAfter.Liquid:
		*out = append(*out, move.New(footAfter.Pos, node.RemainingScaffolding, cost, toBreak, nil, move.Diagonal, move.SprintOptional, false))
	case m.Block(p, dir.X, -2, dir.Z).CanWalkOn || groundAfter.Liquid:
		if !groundAfter.Safe {
			return
		}
		cost += m.EntitiesAt(footAfter.Pos, 0, -1, 0) * m.EntityCost
		*out = append(*out, move.New(footAfter.Pos.Offset(0, -1, 0), node.RemainingScaffolding, cost, toBreak, nil, move.DiagonalDown, move.SprintNo, true))
	}
}

func (m *Movements) moveDropDown(node move.Move, dir dirXZ, out *[]move.Move) {
	p := node.Pos
	headAfter := m.Block(p, dir.X, 1, dir.Z)
	footAfter := m.Block(p, dir.X, 0, dir.Z)
	groundAfter := m.Block(p, dir.X, -1, dir.Z)

	cost := 1.0
	var toBreak []model.Vec3i

	land, ok := m.landingBlock(p, dir.X, dir.Z)
	if !ok {
		return
	}
	drop := p.Y - land.Pos.Y
	if !m.InfiniteLiquidDropdownDistance && drop > m.MaxDropDown {
		return
	}
	cost += m.landingCost(m.Block(land.Pos, 0, -1, 0))
	if cost += m.safeOrBreak(headAfter, &toBreak); math.IsInf(cost, 1) {
		return
	}
	if cost += m.safeOrBreak(footAfter, &toBreak); math.IsInf(cost, 1) {
		return
	}
	if cost += m.safeOrBreak(groundAfter, &toBreak); math.IsInf(cost, 1) {
		return
	}
	if footAfter.Liquid || groundAfter.Liquid {
		return
	}
	if headAfter.Liquid {
		cost += m.LiquidCost
	}
	if drop <= 3 && land.Liquid {
		cost += m.LiquidCost
	}
	cost += m.EntitiesAt(land.Pos, 0, 0, 0) * m.EntityCost
	if cost += m.dangerCost(land.Pos); math.IsInf(cost, 1) {
		return
	}
	*out = append(*out, move.New(land.Pos, node.RemainingScaffolding, cost, toBreak, nil, move.DropDown, move.SprintNo, true))
}

func (m *Movements) moveDown(node move.Move, out *[]move.Move) {
	p := node.Pos
	ground := m.Block(p, 0, -1, 0)
	cost := 1.0
	var toBreak []model.Vec3i

	land, ok := m.landingBlock(p, 0, 0)
	if !ok {
		return
	}
	cost += m.landingCost(m.Block(land.Pos, 0, -1, 0))
	if cost += m.safeOrBreak(ground, &toBreak); math.IsInf(cost, 1) {
		return
	}
	if m.Block(p, 0, 0, 0).Liquid || ground.Liquid {
		return
	}
	if cost += m.EntitiesAt(land.Pos, 0, 0, 0) * m.EntityCost; math.IsInf(cost, 1) {
		return
	}
	*out = append(*out, move.New(land.Pos, node.RemainingScaffolding, cost, toBreak, nil, move.Down, move.SprintNo, true))
}

func (m *Movements) moveUp(node move.Move, out *[]move.Move) {
	p := node.Pos
	foot := m.Block(p, 0, 0, 0)
	head := m.Block(p, 0, 1, 0)
	above := m.Block(p, 0, 2, 0)
	if foot.Liquid || head.Liquid {
		if above.Safe {
			*out = append(*out, move.New(p.Offset(0, 1, 0), node.RemainingScaffolding, 1, nil, nil, move.Up, move.SprintNo, true))
		}
		return
	}
	if m.EntitiesAt(p, 0, 0, 0) > 0 {
		return
	}

	cost := 1.0
	var toBreak []model.Vec3i
	var toPlace []move.Placement
	if cost += m.safeOrBreak(above, &toBreak); math.IsInf(cost, 1) {
		return
	}
	if !foot.Climbable {
		if !m.Allow1by1Towers || node.RemainingScaffolding == 0 {
			return
		}
		if !foot.Replaceable {
			if !m.SafeToBreak(foot) {
				return
			}
			toBreak = append(toBreak, foot.Pos)
		}
		// Cannot jump-place off a half block.
		if g := m.Block(p, 0, -1, 0); g.Physical && g.Height-float64(p.Y) < -0.2 {
			return
		}
		cost += m.exclusionPlace(foot)
		toPlace = append(toPlace, move.Placement{Ref: p.Offset(0, -1, 0), Dir: model.V(0, 1, 0), Jump: true})
		cost += m.PlaceCost
	}
	if math.IsInf(cost, 1) {
		return
	}
	*out = append(*out, move.New(p.Offset(0, 1, 0), node.RemainingScaffolding-len(toPlace), cost, toBreak, toPlace, move.Up, move.SprintNo, true))
}

// placements counts the entries that consume scaffolding.
func placements(ps []move.Placement) int {
	n := 0
	for _, pl := range ps {
		if !pl.UseOne {
			n++
		}
	}
	return n
}

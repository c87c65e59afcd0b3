package movements

import (
	"math"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
)

const maxParkourDist = 4

// parkourDirection is a jump vector plus the cells a 0.6 wide body sweeps
// across on the way, nearest first.
type parkourDirection struct {
	X, Z  int
	Cells []dirXZ
}

// parkourDirections covers every non-cardinal vector within the parkour
// radius. Cardinal jumps are handled by moveParkourForward.
var parkourDirections = buildParkourDirections()

func buildParkourDirections() []parkourDirection {
	var out []parkourDirection
	for dx := -maxParkourDist; dx <= maxParkourDist; dx++ {
		for dz := -maxParkourDist; dz <= maxParkourDist; dz++ {
			if dx == 0 || dz == 0 {
				continue
			}
			if math.Hypot(float64(dx), float64(dz)) <= 1 {
				continue
			}
			out = append(out, parkourDirection{X: dx, Z: dz, Cells: touchingCells(dx, dz)})
		}
	}
	return out
}

// touchingCells samples the straight line from the origin voxel centre to
// the target voxel centre every 0.01 blocks and collects the voxels the
// body footprint overlaps, in order of first contact.
func touchingCells(dx, dz int) []dirXZ {
	const half = 0.3
	length := math.Hypot(float64(dx), float64(dz))
	steps := int(math.Ceil(length * 100))
	seen := map[dirXZ]bool{}
	var cells []dirXZ
	for i := 0; i <= steps; i++ {
		t := float64(i) / float64(steps)
		cx := 0.5 + float64(dx)*t
		cz := 0.5 + float64(dz)*t
		x0, x1 := int(math.Floor(cx-half)), int(math.Floor(cx+half))
		z0, z1 := int(math.Floor(cz-half)), int(math.Floor(cz+half))
		for x := x0; x <= x1; x++ {
			for z := z0; z <= z1; z++ {
				c := dirXZ{x, z}
				if c == (dirXZ{}) || seen[c] {
					continue
				}
				seen[c] = true
				cells = append(cells, c)
			}
		}
	}
	return cells
}

func parkourSprint(d float64, up bool) move.Sprint {
	limit := 3.0
	if up {
		limit = 2
	}
	if d > limit {
		return move.SprintYes
	}
	return move.SprintNo
}

// parkourScan carries the running state of one jump direction.
type parkourScan struct {
	m            *Movements
	node         move.Move
	ground       SafeBlock
	cost         float64
	ceilingClear bool
	floorCleared bool
}

// step tries the level, up and down landings at offset (dx,dz) and reports
// whether scanning in this direction should stop.
func (s *parkourScan) step(dx, dz int, d float64, first bool, out *[]move.Move) (stop bool) {
	m, p := s.m, s.node.Pos
	aboveAfter := m.Block(p, dx, 2, dz)
	headAfter := m.Block(p, dx, 1, dz)
	footAfter := m.Block(p, dx, 0, dz)
	groundAfter := m.Block(p, dx, -1, dz)

	if footAfter.Safe {
		s.cost += m.EntitiesAt(footAfter.Pos, 0, 0, 0) * m.EntityCost
	}

	switch {
	case s.ceilingClear && headAfter.Safe && footAfter.Safe && groundAfter.CanWalkOn:
		c := s.cost + m.exclusionStep(headAfter) + m.landingCost(groundAfter) + m.dangerCost(footAfter.Pos)
		if !math.IsInf(c, 1) {
			*out = append(*out, move.New(footAfter.Pos, s.node.RemainingScaffolding, c, nil, nil, move.Parkour, parkourSprint(d, false), true))
		}
		return true
	case s.ceilingClear && headAfter.Safe && footAfter.CanWalkOn:
		// Four out and one up fails too often to be worth trying.
		if !aboveAfter.Safe || d >= maxParkourDist {
			break
		}
		if footAfter.Height-s.ground.Height > 1.2 {
			return true
		}
		c := s.cost + m.exclusionStep(headAfter) + m.landingCost(footAfter) +
			m.EntitiesAt(headAfter.Pos, 0, 0, 0)*m.EntityCost + m.dangerCost(headAfter.Pos)
		if !math.IsInf(c, 1) {
			*out = append(*out, move.New(headAfter.Pos, s.node.RemainingScaffolding, c, nil, nil, move.Parkour, parkourSprint(d, true), true))
		}
		return true
	case (s.ceilingClear || first) && headAfter.Safe && footAfter.Safe && groundAfter.Safe && s.floorCleared:
		groundAfter2 := m.Block(p, dx, -2, dz)
		if groundAfter2.CanWalkOn {
			c := s.cost + m.exclusionStep(groundAfter) + m.landingCost(groundAfter2) +
				m.EntitiesAt(groundAfter.Pos, 0, 0, 0)*m.EntityCost + m.dangerCost(groundAfter.Pos)
			if !math.IsInf(c, 1) {
				*out = append(*out, move.New(groundAfter.Pos, s.node.RemainingScaffolding, c, nil, nil, move.Parkour, parkourSprint(d, false), true))
			}
			return true
		}
		s.floorCleared = s.floorCleared && !groundAfter2.Physical
	case !headAfter.Safe || !footAfter.Safe:
		return true
	}
	s.ceilingClear = s.ceilingClear && aboveAfter.Safe
	return false
}

// beginParkour checks the take-off: the first cell must be a clear gap, no higher
// than where we stand, and we cannot jump out of liquid.
func (m *Movements) beginParkour(node move.Move, gap dirXZ, dist float64) (*parkourScan, bool) {
	p := node.Pos
	ground := m.Block(p, 0, -1, 0)
	groundAfter := m.Block(p, gap.X, -1, gap.Z)
	if (groundAfter.Physical && groundAfter.Height >= ground.Height) ||
		!m.Block(p, gap.X, 0, gap.Z).Safe ||
		!m.Block(p, gap.X, 1, gap.Z).Safe {
		return nil, false
	}
	if !m.Block(p, 0, 0, 0).CanJumpFrom {
		return nil, false
	}
	s := &parkourScan{
		m:            m,
		node:         node,
		ground:       ground,
		cost:         1 + dist*0.1 + m.EntitiesAt(p, gap.X, 0, gap.Z)*m.EntityCost,
		ceilingClear: m.Block(p, 0, 2, 0).Safe && m.Block(p, gap.X, 2, gap.Z).Safe,
		floorCleared: !m.Block(p, gap.X, -2, gap.Z).Physical,
	}
	return s, true
}

// moveParkourForward jumps over one or more gaps along a cardinal axis,
// landing level, one up, or one down.
func (m *Movements) moveParkourForward(node move.Move, dir dirXZ, out *[]move.Move) {
	s, ok := m.beginParkour(node, dir, 1)
	if !ok {
		return
	}
	for d := 2; d <= maxParkourDist; d++ {
		if s.step(dir.X*d, dir.Z*d, float64(d), d == 2, out) {
			return
		}
	}
}

// moveParkourAny jumps along a non-cardinal vector, scanning the swept
// cells for the first landing.
func (m *Movements) moveParkourAny(node move.Move, pd parkourDirection, out *[]move.Move) {
	if len(pd.Cells) == 0 {
		return
	}
	// Every cell the body brushes before leaving jumping range must be clear
	// at foot and head height; the first must be a gap.
	var gap dirXZ
	found := false
	for _, c := range pd.Cells {
		if math.Hypot(float64(c.X), float64(c.Z)) > 1.5 {
			break
		}
		if !m.Block(node.Pos, c.X, 0, c.Z).Safe || !m.Block(node.Pos, c.X, 1, c.Z).Safe {
			return
		}
		if !found {
			gap, found = c, true
		}
	}
	if !found {
		return
	}
	s, ok := m.beginParkour(node, gap, math.Hypot(float64(pd.X), float64(pd.Z)))
	if !ok {
		return
	}
	for _, c := range pd.Cells {
		d := math.Hypot(float64(c.X), float64(c.Z))
		if d <= 1.5 {
			continue
		}
		if s.step(c.X, c.Z, d, false, out) {
			return
		}
	}
}

// ParkourDirectionCount is the number of free jump vectors considered.
func ParkourDirectionCount() int { return len(parkourDirections) }

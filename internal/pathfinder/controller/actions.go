package controller

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

const (
	edgePitch       = -1.421
	edgeDistance    = 0.4
	centredDistance = 0.2
)

// dig breaks the next block of path[0] once the agent stands on the
// ground. The equip and the dig run asynchronously; the digging flag stays
// up until the dig completes, even across resets.
func (s *Session) dig(st model.AgentState) {
	if s.digging || !st.OnGround {
		return
	}
	head := &s.path[0]
	pos := head.ToBreak[0]
	head.ToBreak = head.ToBreak[1:]

	b, ok := s.world.BlockAt(pos)
	if !ok {
		s.resetPath(ResetDigError, true)
		return
	}
	s.digging = true
	tool := s.moves.BestHarvestTool(b)
	s.fullStop()

	epoch := s.epoch
	dig := func() {
		s.actions.Dig(pos, s.done(func(err error) {
			s.digging = false
			if s.epoch != epoch {
				return
			}
			if err != nil {
				s.logf("dig %s: %v", pos, err)
				s.resetPath(ResetDigError, true)
				return
			}
			s.lastNodeTime = s.now()
		}))
	}
	if tool == nil {
		dig()
		return
	}
	s.actions.Equip(*tool, model.SlotHand, s.done(func(err error) {
		if err != nil {
			s.logf("equip %s: %v", tool.Name, err)
		}
		if s.epoch != epoch {
			s.digging = false
			return
		}
		dig()
	}))
}

// place works on the placements of path[0]. It reports true when the tick
// must end here; otherwise locomotion continues toward the node.
func (s *Session) place(st model.AgentState) bool {
	head := &s.path[0]
	if !s.placing && head.ToPlace[0].UseOne {
		s.openGate(head)
		return true
	}
	if !s.placing {
		s.placing = true
		s.placingBlock = head.ToPlace[0]
		head.ToPlace = head.ToPlace[1:]
		s.fullStop()
	}

	item, ok := s.moves.ScaffoldingItem()
	if !ok {
		s.resetPath(ResetNoScaffolding, true)
		return true
	}

	pb := s.placingBlock
	if s.ctlCfg.LOSWhenPlacing && pb.Ref.Y == model.Floor(st.Pos).Y-1 && pb.Dir.Y == 0 {
		if !s.moveToEdge(st, pb.Ref, pb.Dir) {
			return true
		}
	}

	canPlace := true
	if pb.Jump {
		s.ctl.Jump = true
		s.apply()
		canPlace = float64(pb.Ref.Y+2) < st.Pos[1]
	}
	if !canPlace {
		return false
	}
	if !s.equipLock.TryAcquire() {
		return true
	}

	epoch := s.epoch
	placeNow := func() {
		s.equipLock.Release()
		if !s.placeLock.TryAcquire() {
			return
		}
		if ref, ok := s.world.BlockAt(pb.Ref); ok && s.moves.Interactable.Has(ref.Name) {
			s.ctl.Sneak = true
		}
		s.ctl.Jump = false
		s.apply()
		s.actions.Place(pb.Ref, pb.Dir, s.done(func(err error) {
			if s.epoch != epoch {
				return
			}
			if err != nil {
				s.logf("place %s: %v", pb.Target(), err)
				s.resetPath(ResetPlaceError, true)
			} else {
				s.ctl.Sneak = s.moves.Sneak
				s.apply()
				if s.ctlCfg.LOSWhenPlacing && pb.Return != nil {
					rp := *pb.Return
					s.returningPos = &rp
				}
			}
			s.placeLock.Release()
			s.placing = false
			s.lastNodeTime = s.now()
		}))
	}

	if s.holding(item.Name) {
		placeNow()
		return false
	}
	s.actions.Equip(item, model.SlotHand, s.done(func(err error) {
		if s.epoch != epoch {
			return
		}
		if err != nil {
			s.logf("equip %s: %v", item.Name, err)
			s.equipLock.Release()
			return
		}
		placeNow()
	}))
	return false
}

// openGate opens the gate or door of a UseOne placement and records it for
// closing later. An already open gate is just recorded.
func (s *Session) openGate(head *move.Move) {
	gate := head.ToPlace[0].Ref
	b, ok := s.world.BlockAt(gate)
	if ok && !b.IsOpen() {
		if !s.useLock.TryAcquire() {
			return
		}
		s.rememberGate(gate)
		epoch := s.epoch
		s.actions.Activate(gate, s.done(func(err error) {
			if s.epoch != epoch {
				return
			}
			s.useLock.Release()
			if err != nil {
				s.logf("open gate %s: %v", gate, err)
				return
			}
			s.shiftPlacement(gate)
		}))
		return
	}
	s.rememberGate(gate)
	s.shiftPlacement(gate)
}

func (s *Session) holding(name string) bool {
	if s.moves.Inventory == nil {
		return false
	}
	held, ok := s.moves.Inventory.Equipped(model.SlotHand)
	return ok && held.Name == name
}

func (s *Session) rememberGate(p model.Vec3i) {
	for _, g := range s.openedGates {
		if g == p {
			return
		}
	}
	s.openedGates = append(s.openedGates, p)
}

func (s *Session) shiftPlacement(ref model.Vec3i) {
	if len(s.path) == 0 || len(s.path[0].ToPlace) == 0 || s.path[0].ToPlace[0].Ref != ref {
		return
	}
	s.path[0].ToPlace = s.path[0].ToPlace[1:]
}

// moveToEdge backs the agent, sneaking and looking down, toward the edge of
// ref on the side of edge until it can see the face it will place on.
func (s *Session) moveToEdge(st model.AgentState, ref, edge model.Vec3i) bool {
	target := ref.Vec3().Add(mgl64.Vec3{float64(edge.X) + 0.5, float64(edge.Y), float64(edge.Z) + 0.5})
	d := st.Pos.Sub(target)
	yaw := math.Atan2(-d[0], -d[2])
	stand := ref.Vec3().Add(mgl64.Vec3{float64(edge.X) + 0.5, 1, float64(edge.Z) + 0.5})
	if st.Pos.Sub(stand).Len() > edgeDistance {
		s.body.Look(yaw, edgePitch)
		s.ctl.Sneak = true
		s.ctl.Back = true
		s.apply()
		return false
	}
	s.ctl.Back = false
	if s.moves.Sneak {
		s.ctl.Sneak = true
	}
	s.apply()
	return true
}

// moveToBlock walks onto the centre of pos.
func (s *Session) moveToBlock(st model.AgentState, pos model.Vec3i) bool {
	target := pos.Center()
	if st.Pos.Sub(target).LenSqr() > centredDistance*centredDistance {
		s.lookAt(st, target)
		s.ctl.Forward = true
		if s.moves.Sneak {
			s.ctl.Sneak = true
		}
		s.apply()
		return false
	}
	s.ctl.Forward = false
	if s.moves.Sneak {
		s.ctl.Sneak = true
	}
	s.apply()
	return true
}

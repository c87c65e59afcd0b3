package controller

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/astar"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/goals"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/mathx"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// Tick runs one controller step. Call it once per world tick, after the
// body's physics for that tick has been applied.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick++
	s.drain()
	s.monitor()
}

func (s *Session) monitor() {
	st := s.body.State()

	if s.closeGate() {
		return
	}
	if s.freeMotion(st) {
		return
	}

	if s.goal != nil {
		if !s.goal.IsValid() {
			s.stop()
		} else if s.goal.HasChanged() {
			s.resetPath(ResetGoalMoved, false)
		}
	}

	if s.planner != nil && s.searchPartial {
		r, _ := s.planner.Next()
		r.Path = s.fromPlayer(r.Path, st.Pos)
		s.publish(r)
	}

	if s.ctlCfg.LOSWhenPlacing && s.returningPos != nil {
		if !s.moveToBlock(st, *s.returningPos) {
			return
		}
		s.returningPos = nil
	}

	if len(s.path) == 0 && s.stopPathing {
		s.stop()
		return
	}
	if len(s.path) == 0 {
		s.lastNodeTime = s.now()
		if s.goal != nil {
			if s.goal.IsEnd(model.Floor(st.Pos)) {
				if !s.dynamic {
					s.reach()
					s.fullStop()
				}
			} else if !s.pathUpdated {
				r, pl, err := s.getPathTo(s.goal)
				if err != nil {
					s.logf("plan: %v", err)
				}
				s.planner = pl
				s.publish(r)
				s.pathUpdated = true
			}
		}
	}
	if len(s.path) == 0 {
		return
	}

	if s.digging || len(s.path[0].ToBreak) > 0 {
		s.dig(st)
		return
	}
	if s.placing || len(s.path[0].ToPlace) > 0 {
		if s.place(st) {
			return
		}
	}

	next := s.path[0]
	// A node is not left while a placement on it is in flight.
	if s.placing {
		s.steer(st, next)
		return
	}
	for i := 1; i < len(s.path) && i < 4; i++ {
		n := s.path[i]
		if n.HasSideActions() {
			break
		}
		if s.reached(n.Point(), st.Pos) {
			next = n
		}
	}
	if s.reached(next.Point(), st.Pos) {
		s.lastNodeTime = s.now()
		if s.stopPathing {
			s.stop()
			return
		}
		s.path = s.path[1:]
		if len(s.path) == 0 {
			// On a partial block the floored position can sit one below the goal.
			foot := model.Floor(st.Pos)
			if !s.dynamic && s.goal != nil && (s.goal.IsEnd(foot) || s.goal.IsEnd(foot.Offset(0, 1, 0))) {
				s.reach()
			} else if s.bestEffort && s.goal != nil {
				// Plan again from the best node the last search found.
				s.bestEffort = false
				s.pathUpdated = false
			}
			s.fullStop()
			return
		}
		next = s.path[0]
		if next.HasSideActions() {
			s.fullStop()
			return
		}
	}

	s.steer(st, next)
}

// steer drives toward next for this tick and watches for a stall.
func (s *Session) steer(st model.AgentState, next move.Move) {
	if st.InWater || st.InLava {
		s.swim(st, next)
	} else {
		g := s.chooseGait(st, s.path[0])
		s.goForward(st, next.Point(), s.ctlCfg.LookAtTarget)
		s.ctl.Jump = g.jump
		s.ctl.Sprint = g.sprint
	}
	if s.moves.Sneak {
		s.ctl.Sneak = true
	}
	s.apply()

	s.checkProgress(st.Pos)
}

// checkProgress resets the path once the agent has not moved a block for
// longer than the stuck threshold. The reset restarts the timer, so one
// continuous stall fires once before the fresh search takes over.
func (s *Session) checkProgress(pos mgl64.Vec3) {
	if !s.hasLastPos || pos.Sub(s.lastPos).LenSqr() >= s.ctlCfg.StuckDistSq {
		s.lastPos = pos
		s.hasLastPos = true
		s.lastNodeTime = s.now()
		return
	}
	if s.now().Sub(s.lastNodeTime) > time.Duration(s.ctlCfg.StuckMs)*time.Millisecond {
		s.resetPath(ResetStuck, true)
	}
}

// publish installs a search result as the current path.
func (s *Session) publish(r astar.Result) {
	id := ""
	if s.planner != nil {
		id = s.planner.ID
	}
	res := r
	s.emit(Event{Type: EventPathUpdate, SearchID: id, Result: &res})
	s.path = r.Path
	s.searchPartial = r.Status == astar.StatusPartial
	// A failed search still yields the path to its best node.
	s.bestEffort = r.Status.Terminal() && r.Status != astar.StatusSuccess && len(r.Path) > 0
}

func (s *Session) reach() {
	s.emit(Event{Type: EventGoalReached, Goal: goals.Describe(s.goal), GoalSeq: s.goalSeq, GoalRef: s.goal})
	s.goal = nil
}

// closeGate closes the oldest gate opened on the way once the path has
// moved on from it. It reports whether the tick was spent doing so.
func (s *Session) closeGate() bool {
	if len(s.openedGates) == 0 || len(s.path) == 0 {
		return false
	}
	gate := s.openedGates[0]
	d := s.path[0].Pos.Sub(gate)
	if mathx.AbsInt(d.X) <= 1 && mathx.AbsInt(d.Y) <= 1 && mathx.AbsInt(d.Z) <= 1 {
		return false
	}
	b, ok := s.world.BlockAt(gate)
	if !ok || !b.IsOpen() {
		s.openedGates = s.openedGates[1:]
		return false
	}
	if !s.useLock.TryAcquire() {
		return false
	}
	epoch := s.epoch
	s.actions.Activate(gate, s.done(func(err error) {
		if err != nil {
			s.logf("close gate %s: %v", gate, err)
		} else if len(s.openedGates) > 0 && s.openedGates[0] == gate {
			s.openedGates = s.openedGates[1:]
		}
		if s.epoch == epoch {
			s.useLock.Release()
		}
	}))
	return true
}

// freeMotion steers straight at a followed entity when nothing blocks the
// way, bypassing the path.
func (s *Session) freeMotion(st model.AgentState) bool {
	if !s.moves.AllowFreeMotion || s.goal == nil {
		return false
	}
	f, ok := s.goal.(*goals.Follow)
	if !ok {
		return false
	}
	target, ok := f.Target()
	if !ok || !s.predictor.CanStraightLine(st, target, false) {
		return false
	}
	s.lookAt(st, target.Add(mgl64.Vec3{0, 1.6, 0}))
	if target.Sub(st.Pos).LenSqr() > f.RangeSq {
		s.ctl.Forward = true
		if s.moves.Sneak {
			s.ctl.Sneak = true
		}
		s.apply()
	} else {
		s.clearControls()
	}
	return true
}

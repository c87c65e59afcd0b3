package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/astar"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/goals"
)

var (
	ErrNoPath      = errors.New("no path to the goal")
	ErrTimeout     = errors.New("took too long to decide a path to the goal")
	ErrGoalChanged = errors.New("goal was changed before it could be completed")
	ErrPathStopped = errors.New("path was stopped before it could be completed")
)

// GotoError wraps one of the sentinel errors with the goal and, for search
// failures, the result that ended the attempt.
type GotoError struct {
	Err    error
	Goal   string
	Result *astar.Result
}

func (e *GotoError) Error() string {
	if e.Result != nil {
		return fmt.Sprintf("goto %s: %v (status=%s visited=%d)", e.Goal, e.Err, e.Result.Status, e.Result.VisitedNodes)
	}
	return fmt.Sprintf("goto %s: %v", e.Goal, e.Err)
}

func (e *GotoError) Unwrap() error { return e.Err }

// Goto sets g as a static goal and blocks until it is reached or the
// attempt fails. Tick must keep being called from another goroutine.
// Cancelling ctx stops the session and returns ctx.Err().
func (s *Session) Goto(ctx context.Context, g goals.Goal) error {
	if g == nil {
		return fmt.Errorf("goto: nil goal")
	}
	s.mu.Lock()
	res, cancel := s.watch(g)
	s.setGoal(g, false)
	s.mu.Unlock()

	select {
	case err := <-res:
		s.mu.Lock()
		cancel()
		s.mu.Unlock()
		return err
	case <-ctx.Done():
		s.mu.Lock()
		cancel()
		s.stopPathing = true
		s.mu.Unlock()
		return ctx.Err()
	}
}

// watch listens for the outcome of the goal about to be set. It must be
// called with s.mu held, right before setGoal.
func (s *Session) watch(g goals.Goal) (<-chan error, func()) {
	seq := s.goalSeq + 1
	desc := goals.Describe(g)
	out := make(chan error, 1)
	settled := false
	settle := func(err error) {
		if settled {
			return
		}
		settled = true
		out <- err
	}
	fail := func(err error, r *astar.Result) {
		settle(&GotoError{Err: err, Goal: desc, Result: r})
	}
	remove := s.listen(func(ev Event) {
		switch ev.Type {
		case EventGoalUpdated:
			if ev.GoalSeq != seq {
				fail(ErrGoalChanged, nil)
			}
		case EventPathUpdate:
			r := ev.Result
			if r == nil {
				return
			}
			switch r.Status {
			case astar.StatusNoPath, astar.StatusRadiusExhausted:
				fail(ErrNoPath, r)
			case astar.StatusTimeout:
				fail(ErrTimeout, r)
			case astar.StatusSuccess:
				// The agent already stands on the goal.
				if len(r.Path) == 0 {
					settle(nil)
				}
			}
		case EventPathStop:
			fail(ErrPathStopped, nil)
		case EventGoalReached:
			if ev.GoalSeq == seq {
				settle(nil)
			}
		}
	})
	return out, remove
}

package controller

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/astar"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/goals"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/movements"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/tuning"
)

// PlanOptions adjust one GetPathFromTo call. The zero value uses the
// session tuning, post-processes every result and rebuilds the collision
// index from scratch.
type PlanOptions struct {
	Raw                bool
	KeepCollisionIndex bool
	// Search overrides the session's search tuning.
	Search *tuning.Search
	// StartMove replaces the start derived from the position.
	StartMove *move.Move
}

// Planner yields the results of one search, resuming the same context
// while results are partial. It must be stepped from a single goroutine.
type Planner struct {
	ID string

	ctx    *astar.Context
	budget astar.Budget
	post   func([]move.Move) []move.Move
	last   *astar.Result
}

// Next steps the search once. ok is false when the previous result was
// terminal; the returned result is then that same result again.
func (p *Planner) Next() (astar.Result, bool) {
	if p.last != nil && p.last.Status.Terminal() {
		return *p.last, false
	}
	r := p.ctx.Step(p.budget)
	if p.post != nil {
		r.Path = p.post(r.Path)
	}
	p.last = &r
	return r, true
}

// Context exposes the underlying search, mainly for its visited chunks.
func (p *Planner) Context() *astar.Context { return p.ctx }

// GetPathFromTo prepares a search from the body standing at start.
func (s *Session) GetPathFromTo(m *movements.Movements, start mgl64.Vec3, g goals.Goal, opts PlanOptions) (*Planner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getPathFromTo(m, start, g, opts)
}

func (s *Session) getPathFromTo(m *movements.Movements, start mgl64.Vec3, g goals.Goal, opts PlanOptions) (*Planner, error) {
	search := s.search
	if opts.Search != nil {
		search = *opts.Search
	}
	var from move.Move
	if opts.StartMove != nil {
		from = opts.StartMove.Clone()
	} else {
		p := model.Floor(start)
		dy := start[1] - float64(p.Y)
		// Standing on top of a partial block inside the floored voxel.
		if b, ok := m.World.BlockAt(p); ok && dy > 0.001 && s.body.State().OnGround && !m.EmptyBlocks.Has(b.Name) {
			p = p.Offset(0, 1, 0)
		}
		from = move.StartAt(p, m.CountScaffoldingItems())
	}
	if m.AllowEntityDetection {
		if !opts.KeepCollisionIndex {
			m.ClearCollisionIndex()
		}
		m.UpdateCollisionIndex(s.entities)
	}
	aopts := astar.OptionsFrom(search)
	aopts.Now = s.now
	ctx, err := astar.New(from, m, g, aopts)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", goals.Describe(g), err)
	}
	pl := &Planner{ID: uuid.NewString(), ctx: ctx, budget: astar.BudgetFrom(search)}
	if !opts.Raw {
		keepAll := m.HasExclusionStep()
		pl.post = func(path []move.Move) []move.Move {
			return s.refiner.Refine(path, s.body.State(), keepAll)
		}
	}
	return pl, nil
}

// GetPathTo runs the first slice of a search from the body's position
// with the session's movements.
func (s *Session) GetPathTo(g goals.Goal) (astar.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, _, err := s.getPathTo(g)
	return r, err
}

func (s *Session) getPathTo(g goals.Goal) (astar.Result, *Planner, error) {
	pl, err := s.getPathFromTo(s.moves, s.body.State().Pos, g, PlanOptions{})
	if err != nil {
		return astar.Result{Status: astar.StatusNoPath}, nil, err
	}
	r, _ := pl.Next()
	return r, pl, nil
}

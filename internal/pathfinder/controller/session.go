// Package controller executes paths. A Session is driven by Tick once per
// world tick: it asks the search engine for paths, steers the body along
// them, digs and places on the way, and replans when the world, the goal
// or the agent's progress invalidates the current path.
package controller

import (
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/goals"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/movements"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/physics"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/refine"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/tuning"
)

// Deps are the collaborators a session steers and reads.
type Deps struct {
	Body      model.Body
	Movements *movements.Movements
	Actions   model.Actions
	// Entities feeds the collision index; nil disables it.
	Entities model.EntitySource
	// Engine simulates the body for the predictor; defaults to one over
	// the movement model's world.
	Engine *physics.Engine
	Logger *log.Logger
	Now    func() time.Time
	Sinks  []Sink
}

// Session is the execution state of one agent. All exported methods are
// safe to call from any goroutine; the work itself happens in Tick.
type Session struct {
	ID string

	ctlCfg tuning.Controller
	search tuning.Search

	body      model.Body
	world     model.World
	actions   model.Actions
	entities  model.EntitySource
	predictor *physics.Predictor
	log       *log.Logger
	now       func() time.Time

	mu sync.Mutex

	moves   *movements.Movements
	refiner *refine.Refiner
	sinks   []Sink

	goal    goals.Goal
	goalSeq uint64
	dynamic bool

	path          []move.Move
	pathUpdated   bool
	planner       *Planner
	searchPartial bool
	bestEffort    bool

	digging      bool
	placing      bool
	placingBlock move.Placement
	returningPos *model.Vec3i
	stopPathing  bool
	openedGates  []model.Vec3i

	equipLock lock
	placeLock lock
	useLock   lock
	// epoch changes on every reset; completions from an older epoch are
	// stale and must not touch the path.
	epoch uint64

	lastNodeTime time.Time
	lastPos      mgl64.Vec3
	hasLastPos   bool

	ctl  model.ControlState
	tick uint64

	listeners  map[int]func(Event)
	listenerID int

	qmu   sync.Mutex
	queue []func()
}

// New validates the tuning and builds an idle session.
func New(t tuning.Tuning, d Deps) (*Session, error) {
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("controller: %w", err)
	}
	if d.Body == nil || d.Movements == nil || d.Actions == nil {
		return nil, fmt.Errorf("controller: body, movements and actions are required")
	}
	if d.Engine == nil {
		d.Engine = physics.NewEngine(d.Movements.World)
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Logger == nil {
		d.Logger = log.New(io.Discard, "", 0)
	}
	pred := physics.NewPredictor(d.Engine, t.Controller.Error)
	s := &Session{
		ID:        uuid.NewString(),
		ctlCfg:    t.Controller,
		search:    t.Search,
		body:      d.Body,
		world:     d.Movements.World,
		actions:   d.Actions,
		entities:  d.Entities,
		predictor: pred,
		log:       d.Logger,
		now:       d.Now,
		moves:     d.Movements,
		refiner:   refine.New(d.Movements.World, pred, t.Controller.EnablePathShortcut),
		sinks:     append([]Sink(nil), d.Sinks...),
		listeners: map[int]func(Event){},
	}
	s.lastNodeTime = s.now()
	return s, nil
}

// AddSink attaches another event consumer.
func (s *Session) AddSink(k Sink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sinks = append(s.sinks, k)
}

// SetGoal replaces the goal and discards the current path. A nil goal
// leaves the session idle. Dynamic goals are never reported as reached.
func (s *Session) SetGoal(g goals.Goal, dynamic bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setGoal(g, dynamic)
}

func (s *Session) setGoal(g goals.Goal, dynamic bool) {
	s.goal = g
	s.dynamic = dynamic
	s.goalSeq++
	ev := Event{Type: EventGoalUpdated, Dynamic: dynamic, GoalSeq: s.goalSeq, GoalRef: g}
	if g != nil {
		ev.Goal = goals.Describe(g)
	}
	s.emit(ev)
	s.resetPath(ResetGoalUpdated, true)
}

func (s *Session) SetMovements(m *movements.Movements) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves = m
	s.world = m.World
	s.refiner.World = m.World
	s.resetPath(ResetMovementsUpdated, true)
}

// Stop requests a stop at the next safe point: the next node arrival, or
// the next reset when there is no path to follow.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopPathing = true
}

func (s *Session) Goal() goals.Goal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.goal
}

func (s *Session) Movements() *movements.Movements {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.moves
}

// Path returns a copy of the remaining path.
func (s *Session) Path() []move.Move {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]move.Move, len(s.path))
	for i, m := range s.path {
		out[i] = m.Clone()
	}
	return out
}

func (s *Session) IsMoving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.path) > 0
}

func (s *Session) IsMining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digging
}

func (s *Session) IsBuilding() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.placing
}

// IsThinking reports whether a partial search is still being resumed.
func (s *Session) IsThinking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.planner != nil && s.searchPartial
}

// Controls is the control state last sent to the body.
func (s *Session) Controls() model.ControlState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctl
}

func (s *Session) resetPath(reason Reason, clearStates bool) {
	if !s.stopPathing && len(s.path) > 0 {
		s.emit(Event{Type: EventPathReset, Reason: reason})
	}
	s.path = nil
	if s.digging {
		// The dig completion arrives later and clears the flag.
		s.actions.StopDigging()
	}
	s.epoch++
	s.placing = false
	s.pathUpdated = false
	s.planner = nil
	s.searchPartial = false
	s.bestEffort = false
	s.equipLock.Release()
	s.placeLock.Release()
	s.useLock.Release()
	s.moves.ClearCollisionIndex()
	if clearStates {
		s.clearControls()
	}
	if s.stopPathing {
		s.stop()
	}
}

func (s *Session) stop() {
	s.stopPathing = false
	s.goal = nil
	s.path = nil
	s.emit(Event{Type: EventPathStop})
	s.fullStop()
}

func (s *Session) emit(ev Event) {
	ev.Session = s.ID
	ev.Tick = s.tick
	ev.At = s.now()
	for _, k := range s.sinks {
		k.Emit(ev)
	}
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := s.listeners[id]; ok {
			fn(ev)
		}
	}
}

// listen registers fn for every event; the returned func removes it.
// Both must be called with s.mu held.
func (s *Session) listen(fn func(Event)) func() {
	s.listenerID++
	id := s.listenerID
	s.listeners[id] = fn
	return func() { delete(s.listeners, id) }
}

// post queues fn to run at the start of the next tick. Action completions
// go through here so path state is only mutated inside Tick.
func (s *Session) post(fn func()) {
	s.qmu.Lock()
	s.queue = append(s.queue, fn)
	s.qmu.Unlock()
}

func (s *Session) done(fn func(err error)) func(error) {
	return func(err error) { s.post(func() { fn(err) }) }
}

func (s *Session) drain() {
	for {
		s.qmu.Lock()
		q := s.queue
		s.queue = nil
		s.qmu.Unlock()
		if len(q) == 0 {
			return
		}
		for _, fn := range q {
			fn()
		}
	}
}

func (s *Session) apply() { s.body.SetControls(s.ctl) }

func (s *Session) clearControls() {
	s.ctl = model.ControlState{Sneak: s.moves.Sneak}
	s.apply()
}

// fullStop releases every control and kills horizontal momentum.
func (s *Session) fullStop() {
	s.clearControls()
	s.body.Halt()
}

// lookAt turns the head toward p from eye height.
func (s *Session) lookAt(st model.AgentState, p mgl64.Vec3) {
	eye := st.Pos.Add(mgl64.Vec3{0, eyeHeight(st), 0})
	d := p.Sub(eye)
	yaw := math.Atan2(-d[0], -d[2])
	pitch := math.Atan2(d[1], math.Hypot(d[0], d[2]))
	s.body.Look(yaw, pitch)
}

func eyeHeight(st model.AgentState) float64 {
	h := st.Height
	if h <= 0 {
		h = physics.DefaultHeight
	}
	return h * 0.9
}

func (s *Session) logf(format string, args ...any) {
	s.log.Printf("session=%s "+format, append([]any{s.ID[:8]}, args...)...)
}

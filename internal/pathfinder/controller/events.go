package controller

import (
	"time"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/astar"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/goals"
)

type EventType string

const (
	EventGoalUpdated EventType = "goal_updated"
	EventPathUpdate  EventType = "path_update"
	EventPathReset   EventType = "path_reset"
	EventPathStop    EventType = "path_stop"
	EventGoalReached EventType = "goal_reached"
)

// Reason tags a path reset.
type Reason string

const (
	ResetGoalUpdated      Reason = "goal_updated"
	ResetMovementsUpdated Reason = "movements_updated"
	ResetBlockUpdated     Reason = "block_updated"
	ResetChunkLoaded      Reason = "chunk_loaded"
	ResetGoalMoved        Reason = "goal_moved"
	ResetDigError         Reason = "dig_error"
	ResetNoScaffolding    Reason = "no_scaffolding_blocks"
	ResetPlaceError       Reason = "place_error"
	ResetStuck            Reason = "stuck"
)

var knownReasons = map[Reason]bool{
	ResetGoalUpdated:      true,
	ResetMovementsUpdated: true,
	ResetBlockUpdated:     true,
	ResetChunkLoaded:      true,
	ResetGoalMoved:        true,
	ResetDigError:         true,
	ResetNoScaffolding:    true,
	ResetPlaceError:       true,
	ResetStuck:            true,
}

func IsKnownReason(r Reason) bool { return knownReasons[r] }

// Event is one controller notification. Only the fields relevant to Type
// are set.
type Event struct {
	Type    EventType `json:"type"`
	Session string    `json:"session"`
	Tick    uint64    `json:"tick"`
	At      time.Time `json:"at"`

	// goal_updated, goal_reached
	Goal    string `json:"goal,omitempty"`
	GoalSeq uint64 `json:"goal_seq,omitempty"`
	Dynamic bool   `json:"dynamic,omitempty"`
	// path_reset
	Reason Reason `json:"reason,omitempty"`
	// path_update
	SearchID string        `json:"search_id,omitempty"`
	Result   *astar.Result `json:"result,omitempty"`

	// GoalRef is the goal instance, for listeners comparing identity.
	GoalRef goals.Goal `json:"-"`
}

// Sink receives every event the controller emits, in order, on the tick
// goroutine. Implementations must not call back into the session.
type Sink interface {
	Emit(Event)
}

type SinkFunc func(Event)

func (f SinkFunc) Emit(ev Event) { f(ev) }

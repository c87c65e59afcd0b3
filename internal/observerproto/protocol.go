package observerproto

import (
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/tuning"
)

// Version is the observer protocol version.
const Version = "1"

// Client -> Server. First message on the observer WS connection, and can be
// re-sent to change the filter.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`

	// Sessions limits events to these session ids; empty means all.
	Sessions []string `json:"sessions,omitempty"`
	// Events limits events to these types; empty means all.
	Events []string `json:"events,omitempty"`
	// States asks for per-tick agent states as well.
	States bool `json:"states,omitempty"`
}

// HTTP response for GET /observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string        `json:"protocol_version"`
	Tick            uint64        `json:"tick"`
	Sessions        []SessionInfo `json:"sessions"`
	BlockPalette    []string      `json:"block_palette"`
	PaletteDigest   string        `json:"palette_digest"`
	Tuning          tuning.Tuning `json:"tuning"`
}

type SessionInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Server -> Client. One controller event.
type EventMsg struct {
	Type            string           `json:"type"`
	ProtocolVersion string           `json:"protocol_version"`
	Event           controller.Event `json:"event"`
}

// Server -> Client. Agent state after a tick.
type StateMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Session         string `json:"session"`
	Tick            uint64 `json:"tick"`

	Pos   [3]float64 `json:"pos"`
	Yaw   float64    `json:"yaw"`
	Pitch float64    `json:"pitch"`

	Goal     string   `json:"goal,omitempty"`
	Path     [][3]int `json:"path,omitempty"`
	Moving   bool     `json:"moving"`
	Mining   bool     `json:"mining"`
	Building bool     `json:"building"`
	Thinking bool     `json:"thinking"`
}

package main

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
)

// tally keeps run totals for the closing summary.
type tally struct {
	mu       sync.Mutex
	searches map[string]int
	visited  int
	thinking time.Duration
	resets   map[string]int
	reached  int
}

func newTally() *tally {
	return &tally{searches: map[string]int{}, resets: map[string]int{}}
}

func (t *tally) Emit(ev controller.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch ev.Type {
	case controller.EventPathUpdate:
		if ev.Result == nil {
			return
		}
		t.searches[string(ev.Result.Status)]++
		t.thinking += ev.Result.Time
		if ev.Result.Status.Terminal() {
			t.visited += ev.Result.VisitedNodes
		}
	case controller.EventPathReset:
		t.resets[string(ev.Reason)]++
	case controller.EventGoalReached:
		t.reached++
	}
}

func (t *tally) report(logger *log.Logger, ticks int, wall time.Duration, travelled float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	logger.Printf("%s ticks in %s, travelled %s blocks", humanize.Comma(int64(ticks)), wall.Round(time.Millisecond), humanize.FormatFloat("#,###.#", travelled))
	logger.Printf("searches: %s; %s nodes visited; %s thinking", joinCounts(t.searches), humanize.Comma(int64(t.visited)), t.thinking.Round(time.Microsecond))
	if len(t.resets) > 0 {
		logger.Printf("resets: %s", joinCounts(t.resets))
	}
}

func joinCounts(m map[string]int) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+humanize.Comma(int64(m[k])))
	}
	return strings.Join(parts, " ")
}

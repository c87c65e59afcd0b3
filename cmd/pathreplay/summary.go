package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/astar"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
)

// sessionSummary accumulates one session's events and checks their order.
type sessionSummary struct {
	ID         string
	First      time.Time
	Last       time.Time
	FirstTick  uint64
	LastTick   uint64
	Events     int
	GoalsSet   int
	Reached    int
	Stopped    int
	Searches   map[astar.Status]int
	Abandoned  int
	Visited    int
	Thinking   time.Duration
	MaxPathLen int
	Resets     map[controller.Reason]int
	Problems   []string

	goalSeq    uint64
	openSearch string
}

type summary struct {
	sessions map[string]*sessionSummary
	order    []string
}

func newSummary() *summary {
	return &summary{sessions: map[string]*sessionSummary{}}
}

func (s *summary) add(ev controller.Event) {
	ss, ok := s.sessions[ev.Session]
	if !ok {
		ss = &sessionSummary{
			ID:        ev.Session,
			First:     ev.At,
			FirstTick: ev.Tick,
			Searches:  map[astar.Status]int{},
			Resets:    map[controller.Reason]int{},
		}
		s.sessions[ev.Session] = ss
		s.order = append(s.order, ev.Session)
	}
	ss.add(ev)
}

func (ss *sessionSummary) problem(ev controller.Event, format string, args ...any) {
	ss.Problems = append(ss.Problems, fmt.Sprintf("tick %d %s: ", ev.Tick, ev.Type)+fmt.Sprintf(format, args...))
}

func (ss *sessionSummary) add(ev controller.Event) {
	ss.Events++
	if ev.Tick < ss.LastTick {
		ss.problem(ev, "tick went backwards from %d", ss.LastTick)
	}
	ss.Last = ev.At
	ss.LastTick = ev.Tick

	switch ev.Type {
	case controller.EventGoalUpdated:
		if ev.GoalSeq <= ss.goalSeq && ev.GoalSeq != 0 {
			ss.problem(ev, "goal seq %d after %d", ev.GoalSeq, ss.goalSeq)
		}
		if ev.GoalSeq != 0 {
			ss.goalSeq = ev.GoalSeq
		}
		if ev.Goal != "" {
			ss.GoalsSet++
		}
	case controller.EventGoalReached:
		ss.Reached++
		if ev.GoalSeq != ss.goalSeq {
			ss.problem(ev, "reached goal seq %d, current is %d", ev.GoalSeq, ss.goalSeq)
		}
	case controller.EventPathStop:
		ss.Stopped++
	case controller.EventPathReset:
		if !controller.IsKnownReason(ev.Reason) {
			ss.problem(ev, "unknown reason %q", ev.Reason)
		}
		ss.Resets[ev.Reason]++
	case controller.EventPathUpdate:
		r := ev.Result
		if r == nil {
			ss.problem(ev, "missing result")
			return
		}
		ss.Searches[r.Status]++
		ss.Thinking += r.Time
		if len(r.Path) > ss.MaxPathLen {
			ss.MaxPathLen = len(r.Path)
		}
		if ss.openSearch != "" && ss.openSearch != ev.SearchID {
			ss.Abandoned++
		}
		if r.Status == astar.StatusPartial {
			ss.openSearch = ev.SearchID
		} else {
			ss.Visited += r.VisitedNodes
			ss.openSearch = ""
		}
	}
}

func (s *summary) problems() int {
	n := 0
	for _, ss := range s.sessions {
		n += len(ss.Problems)
	}
	return n
}

func (s *summary) write(w io.Writer) {
	for _, id := range s.order {
		ss := s.sessions[id]
		fmt.Fprintf(w, "session %s: %s events over %s ticks (%s)\n", ss.ID,
			humanize.Comma(int64(ss.Events)), humanize.Comma(int64(ss.LastTick-ss.FirstTick)),
			ss.Last.Sub(ss.First).Round(time.Millisecond))
		fmt.Fprintf(w, "  goals: set=%d reached=%d stopped=%d\n", ss.GoalsSet, ss.Reached, ss.Stopped)
		fmt.Fprintf(w, "  searches: %s; %d abandoned; %s nodes visited; %s thinking; longest path %d\n",
			joinCounts(ss.Searches), ss.Abandoned, humanize.Comma(int64(ss.Visited)), ss.Thinking.Round(time.Microsecond), ss.MaxPathLen)
		if len(ss.Resets) > 0 {
			fmt.Fprintf(w, "  resets: %s\n", joinCounts(ss.Resets))
		}
		for _, p := range ss.Problems {
			fmt.Fprintf(w, "  problem: %s\n", p)
		}
	}
}

func joinCounts[K ~string](m map[K]int) string {
	if len(m) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+humanize.Comma(int64(m[K(k)])))
	}
	return strings.Join(parts, " ")
}

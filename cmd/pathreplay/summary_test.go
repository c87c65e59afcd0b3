package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/astar"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
)

func TestSummary_CountsAndChecksOrder(t *testing.T) {
	s := newSummary()
	evs := []controller.Event{
		{Type: controller.EventGoalUpdated, Tick: 1, Goal: "xz(5,5)", GoalSeq: 1},
		{Type: controller.EventPathUpdate, Tick: 1, SearchID: "a", Result: &astar.Result{Status: astar.StatusPartial, VisitedNodes: 40}},
		{Type: controller.EventPathReset, Tick: 2, Reason: controller.ResetChunkLoaded},
		{Type: controller.EventPathUpdate, Tick: 3, SearchID: "b", Result: &astar.Result{Status: astar.StatusSuccess, VisitedNodes: 90, Path: make([]move.Move, 7)}},
		{Type: controller.EventGoalReached, Tick: 30, Goal: "xz(5,5)", GoalSeq: 1},
		{Type: controller.EventPathStop, Tick: 31},
	}
	for _, ev := range evs {
		ev.Session = "s1"
		s.add(ev)
	}

	ss := s.sessions["s1"]
	if ss.Events != 6 || ss.GoalsSet != 1 || ss.Reached != 1 || ss.Stopped != 1 {
		t.Fatalf("counts=%+v", ss)
	}
	if ss.Abandoned != 1 || ss.Visited != 90 || ss.MaxPathLen != 7 {
		t.Fatalf("search stats abandoned=%d visited=%d max=%d", ss.Abandoned, ss.Visited, ss.MaxPathLen)
	}
	if ss.Resets[controller.ResetChunkLoaded] != 1 {
		t.Fatalf("resets=%v", ss.Resets)
	}
	if s.problems() != 0 {
		t.Fatalf("problems=%v", ss.Problems)
	}

	var buf bytes.Buffer
	s.write(&buf)
	if out := buf.String(); !strings.Contains(out, "partial=1 success=1") || !strings.Contains(out, "chunk_loaded=1") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestSummary_FlagsProblems(t *testing.T) {
	s := newSummary()
	s.add(controller.Event{Type: controller.EventGoalUpdated, Session: "s", Tick: 5, Goal: "y(70)", GoalSeq: 2})
	s.add(controller.Event{Type: controller.EventGoalReached, Session: "s", Tick: 4, GoalSeq: 1})
	s.add(controller.Event{Type: controller.EventPathReset, Session: "s", Tick: 6, Reason: "bogus"})
	s.add(controller.Event{Type: controller.EventPathUpdate, Session: "s", Tick: 7})

	if got := s.problems(); got != 4 {
		t.Fatalf("problems=%d want 4: %v", got, s.sessions["s"].Problems)
	}
}

package log

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/astar"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/move"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

func TestEventLogger_RotatesHourlyAndReadsBack(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir)
	now := time.Date(2024, 5, 1, 10, 59, 0, 0, time.UTC)
	l.w.now = func() time.Time { return now }

	l.Emit(controller.Event{Type: controller.EventGoalUpdated, Goal: "block(1,64,0)", GoalSeq: 1})
	l.Emit(controller.Event{Type: controller.EventPathUpdate, SearchID: "s1", Result: &astar.Result{
		Status: astar.StatusSuccess,
		Cost:   1,
		Path:   []move.Move{{Pos: model.V(1, 64, 0), Type: move.Forward, Sprint: move.SprintOptional}},
	}})
	now = now.Add(2 * time.Minute)
	l.Emit(controller.Event{Type: controller.EventPathReset, Reason: controller.ResetStuck})
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if got := l.Written(); got != 3 {
		t.Fatalf("written=%d want 3", got)
	}

	files, err := ListFiles(dir, EventsPrefix)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{
		filepath.Join(dir, "events-2024-05-01-10.jsonl.zst"),
		filepath.Join(dir, "events-2024-05-01-11.jsonl.zst"),
	}
	if len(files) != len(want) || files[0] != want[0] || files[1] != want[1] {
		t.Fatalf("files=%v want %v", files, want)
	}

	var got []controller.Event
	for _, f := range files {
		if err := ReadEvents(f, func(ev controller.Event) error {
			got = append(got, ev)
			return nil
		}); err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
	}
	if len(got) != 3 {
		t.Fatalf("read %d events, want 3", len(got))
	}
	if got[1].Result == nil || got[1].Result.Status != astar.StatusSuccess || len(got[1].Result.Path) != 1 {
		t.Fatalf("path update not preserved: %+v", got[1])
	}
	if got[1].Result.Path[0].Sprint != move.SprintOptional {
		t.Fatalf("sprint=%v", got[1].Result.Path[0].Sprint)
	}
	if got[2].Reason != controller.ResetStuck {
		t.Fatalf("reason=%q", got[2].Reason)
	}
}

func TestReadEvents_StopsOnCallbackError(t *testing.T) {
	dir := t.TempDir()
	l := NewEventLogger(dir)
	for i := 0; i < 3; i++ {
		l.Emit(controller.Event{Type: controller.EventPathStop})
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	files, err := ListFiles(dir, EventsPrefix)
	if err != nil || len(files) != 1 {
		t.Fatalf("files=%v err=%v", files, err)
	}
	stop := errors.New("stop")
	n := 0
	err = ReadEvents(files[0], func(controller.Event) error {
		n++
		return stop
	})
	if !errors.Is(err, stop) || n != 1 {
		t.Fatalf("err=%v n=%d", err, n)
	}
}

func TestListFiles_IgnoresOtherPrefixes(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "audit")
	if err := w.Write(map[string]int{"a": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = w.Close()
	files, err := ListFiles(dir, EventsPrefix)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("files=%v want none", files)
	}
}

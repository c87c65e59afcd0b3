package indexdb

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/astar"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/controller"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/catalogs"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/tuning"
)

func openTemp(t *testing.T) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index", "pathfinder.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSQLiteIndex_RecordsSearchesResetsAndGoals(t *testing.T) {
	idx := openTemp(t)
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ev := func(e controller.Event) {
		e.Session = "bot-1"
		e.At = at
		idx.Emit(e)
	}

	ev(controller.Event{Type: controller.EventGoalUpdated, Tick: 1, Goal: "block(4,64,0)", GoalSeq: 1})
	ev(controller.Event{Type: controller.EventPathUpdate, Tick: 1, SearchID: "a", Result: &astar.Result{Status: astar.StatusPartial, VisitedNodes: 10}})
	ev(controller.Event{Type: controller.EventPathUpdate, Tick: 2, SearchID: "a", Result: &astar.Result{Status: astar.StatusSuccess, VisitedNodes: 25, Time: 3 * time.Millisecond}})
	ev(controller.Event{Type: controller.EventPathReset, Tick: 5, Reason: controller.ResetBlockUpdated})
	ev(controller.Event{Type: controller.EventPathReset, Tick: 5, Reason: controller.ResetStuck})
	ev(controller.Event{Type: controller.EventPathUpdate, Tick: 6, SearchID: "b", Result: &astar.Result{Status: astar.StatusNoPath}})
	ev(controller.Event{Type: controller.EventGoalReached, Tick: 9, Goal: "block(4,64,0)", GoalSeq: 1})
	ev(controller.Event{Type: controller.EventGoalUpdated, Tick: 10, Goal: "xz(9,9)", GoalSeq: 2, Dynamic: true})
	ev(controller.Event{Type: controller.EventPathStop, Tick: 11})

	ctx := context.Background()
	if err := idx.Sync(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}

	statuses, err := idx.StatusCounts(ctx)
	if err != nil {
		t.Fatalf("status counts: %v", err)
	}
	if statuses["partial"] != 1 || statuses["success"] != 1 || statuses["noPath"] != 1 {
		t.Fatalf("statuses=%v", statuses)
	}

	resets, err := idx.ResetCounts(ctx)
	if err != nil {
		t.Fatalf("reset counts: %v", err)
	}
	if resets["block_updated"] != 1 || resets["stuck"] != 1 || len(resets) != 2 {
		t.Fatalf("resets=%v", resets)
	}

	goals, err := idx.Goals(ctx, "bot-1")
	if err != nil {
		t.Fatalf("goals: %v", err)
	}
	if len(goals) != 2 {
		t.Fatalf("goals=%+v", goals)
	}
	if !goals[0].Reached || goals[0].ReachedTick != 9 || goals[0].Goal != "block(4,64,0)" {
		t.Fatalf("first goal=%+v", goals[0])
	}
	if goals[1].Reached || !goals[1].Dynamic {
		t.Fatalf("second goal=%+v", goals[1])
	}

	if st := idx.Stats(); st.DropSearchTotal+st.DropResetTotal+st.DropGoalTotal != 0 {
		t.Fatalf("unexpected drops: %+v", st)
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	idx := openTemp(t)
	cats, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	if err := idx.UpsertCatalogs(cats, tuning.Defaults()); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	// Idempotent.
	if err := idx.UpsertCatalogs(cats, tuning.Defaults()); err != nil {
		t.Fatalf("upsert again: %v", err)
	}

	var digest string
	if err := idx.db.QueryRow(`SELECT digest FROM catalogs WHERE name='blocks_palette'`).Scan(&digest); err != nil {
		t.Fatalf("query: %v", err)
	}
	if digest != cats.Blocks.PaletteDigest {
		t.Fatalf("digest=%q want %q", digest, cats.Blocks.PaletteDigest)
	}
	var n int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("catalog rows=%d want 3", n)
	}
	var tune string
	if err := idx.db.QueryRow(`SELECT json FROM catalogs WHERE name='tuning'`).Scan(&tune); err != nil {
		t.Fatalf("query tuning: %v", err)
	}
	if !strings.Contains(tune, `"search_radius":"inf"`) {
		t.Fatalf("tuning row lacks the unbounded radius: %s", tune)
	}
}

func TestSQLiteIndex_EmitAfterCloseIsIgnored(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "x.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	idx.Emit(controller.Event{Type: controller.EventPathReset, Reason: controller.ResetStuck})
	if err := idx.Sync(context.Background()); err != nil {
		t.Fatalf("sync after close: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

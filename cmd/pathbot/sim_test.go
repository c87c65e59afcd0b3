package main

import (
	"io"
	"log"
	"testing"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/catalogs"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/terrain/store"
)

func testWorld(t *testing.T) *store.ChunkStore {
	t.Helper()
	cat, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	w := store.NewChunkStore(cat, 0, 128, nil)
	if err := w.Fill(model.V(-2, 63, -2), model.V(2, 63, 2), "stone"); err != nil {
		t.Fatalf("fill: %v", err)
	}
	return w
}

func TestExecutor_DigTakesBreakTime(t *testing.T) {
	w := testWorld(t)
	inv := newInventory(model.Item{Name: "iron_pickaxe", Count: 1})
	e := newExecutor(w, inv, log.New(io.Discard, "", 0))
	inv.held[model.SlotHand] = inv.items[0]

	b, _ := w.BlockAt(model.V(0, 63, 0))
	tool := inv.items[0]
	want := int(w.Cat.DigTimeMS(b, &tool) / tickMS)
	if want < 1 {
		want = 1
	}

	var done []error
	e.Dig(model.V(0, 63, 0), func(err error) { done = append(done, err) })
	for i := 0; i < want-1; i++ {
		e.Step()
	}
	if len(done) != 0 {
		t.Fatalf("dig finished early after %d ticks", want-1)
	}
	for i := 0; i < 2 && len(done) == 0; i++ {
		e.Step()
	}
	if len(done) != 1 || done[0] != nil {
		t.Fatalf("done=%v", done)
	}
	if got, _ := w.BlockAt(model.V(0, 63, 0)); got.Name != "air" {
		t.Fatalf("block after dig=%s", got.Name)
	}
	if inv.count("stone") != 1 {
		t.Fatalf("stone not collected: %+v", inv.items)
	}
}

func TestExecutor_StopDiggingAborts(t *testing.T) {
	w := testWorld(t)
	e := newExecutor(w, newInventory(), log.New(io.Discard, "", 0))
	var got error
	e.Dig(model.V(1, 63, 1), func(err error) { got = err })
	e.StopDigging()
	e.Step()
	if got != errDigAborted {
		t.Fatalf("err=%v want aborted", got)
	}
	if b, _ := w.BlockAt(model.V(1, 63, 1)); b.Name != "stone" {
		t.Fatalf("block=%s", b.Name)
	}
}

func TestExecutor_PlaceConsumesHeldItem(t *testing.T) {
	w := testWorld(t)
	inv := newInventory(model.Item{Name: "dirt", Count: 1})
	e := newExecutor(w, inv, log.New(io.Discard, "", 0))

	var errs []error
	e.Equip(inv.items[0], model.SlotHand, func(err error) { errs = append(errs, err) })
	e.Step()
	e.Place(model.V(0, 63, 0), model.V(0, 1, 0), func(err error) { errs = append(errs, err) })
	e.Step()
	e.Place(model.V(1, 63, 0), model.V(0, 1, 0), func(err error) { errs = append(errs, err) })
	e.Step()

	if len(errs) != 3 || errs[0] != nil || errs[1] != nil || errs[2] == nil {
		t.Fatalf("errs=%v", errs)
	}
	if b, _ := w.BlockAt(model.V(0, 64, 0)); b.Name != "dirt" {
		t.Fatalf("placed=%s", b.Name)
	}
	if inv.count("dirt") != 0 {
		t.Fatalf("dirt left: %d", inv.count("dirt"))
	}
	if _, ok := inv.Equipped(model.SlotHand); ok {
		t.Fatalf("hand should be empty")
	}
}

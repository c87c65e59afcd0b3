// Package pathtest builds small worlds and fake collaborators for pathfinder
// tests.
package pathtest

import (
	"testing"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/catalogs"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/terrain/store"
)

const FloorY = 63

// Catalogs returns the built-in catalog or fails the test.
func Catalogs(t testing.TB) *catalogs.Catalogs {
	t.Helper()
	cat, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	return cat
}

// World is an empty, ungenerated store: only chunks touched by Set are loaded.
func World(t testing.TB) *store.ChunkStore {
	t.Helper()
	return store.NewChunkStore(Catalogs(t), 0, 128, nil)
}

// Flat returns a world with a stone floor at FloorY covering [-r, r] in x and z,
// so agents stand at y = FloorY+1.
func Flat(t testing.TB, r int) *store.ChunkStore {
	t.Helper()
	w := World(t)
	Fill(t, w, model.V(-r, FloorY, -r), model.V(r, FloorY, r), "stone")
	return w
}

func Set(t testing.TB, w *store.ChunkStore, p model.Vec3i, name string) {
	t.Helper()
	if err := w.SetBlock(p, name, nil); err != nil {
		t.Fatalf("set %s: %v", p, err)
	}
}

func Fill(t testing.TB, w *store.ChunkStore, from, to model.Vec3i, name string) {
	t.Helper()
	if err := w.Fill(from, to, name); err != nil {
		t.Fatalf("fill %s..%s: %v", from, to, err)
	}
}

// Inventory is a fixed item list. Equip records the hand item.
type Inventory struct {
	List []model.Item
	Held map[model.EquipSlot]model.Item
}

func NewInventory(items ...model.Item) *Inventory {
	return &Inventory{List: items, Held: map[model.EquipSlot]model.Item{}}
}

func (i *Inventory) Items() []model.Item { return i.List }

func (i *Inventory) Equipped(slot model.EquipSlot) (model.Item, bool) {
	it, ok := i.Held[slot]
	return it, ok
}

// Remove takes one of the named item; it reports false when none is left.
func (i *Inventory) Remove(name string) bool {
	for k := range i.List {
		if i.List[k].Name == name && i.List[k].Count > 0 {
			i.List[k].Count--
			if i.List[k].Count == 0 {
				i.List = append(i.List[:k], i.List[k+1:]...)
			}
			return true
		}
	}
	return false
}

// Entities is a static entity list.
type Entities struct {
	List   []model.Entity
	SelfID int
}

func (e *Entities) Entities() []model.Entity { return e.List }
func (e *Entities) Self() int                { return e.SelfID }

// Call records an action invocation.
type Call struct {
	Kind string
	Pos  model.Vec3i
	Face model.Vec3i
	Item string
}

// Actions applies world mutations to a store. Completions are queued until
// Flush so tests control when async results arrive.
type Actions struct {
	World *store.ChunkStore
	Inv   *Inventory

	Calls []Call
	// Fail makes the next matching kind fail.
	Fail map[string]error

	pending []func()
	// Immediate completes every action synchronously.
	Immediate bool
}

func NewActions(w *store.ChunkStore, inv *Inventory) *Actions {
	return &Actions{World: w, Inv: inv, Fail: map[string]error{}}
}

func (a *Actions) finish(kind string, apply func() error, done func(error)) {
	run := func() {
		if err, ok := a.Fail[kind]; ok {
			delete(a.Fail, kind)
			done(err)
			return
		}
		if apply != nil {
			if err := apply(); err != nil {
				done(err)
				return
			}
		}
		done(nil)
	}
	if a.Immediate {
		run()
		return
	}
	a.pending = append(a.pending, run)
}

// Flush runs queued completions in order and reports how many ran.
func (a *Actions) Flush() int {
	n := 0
	for len(a.pending) > 0 {
		p := a.pending
		a.pending = nil
		for _, fn := range p {
			fn()
			n++
		}
	}
	return n
}

func (a *Actions) Dig(pos model.Vec3i, done func(error)) {
	a.Calls = append(a.Calls, Call{Kind: "dig", Pos: pos})
	a.finish("dig", func() error { return a.World.SetBlock(pos, "air", nil) }, done)
}

func (a *Actions) StopDigging() {
	a.Calls = append(a.Calls, Call{Kind: "stop_digging"})
}

func (a *Actions) Place(ref, face model.Vec3i, done func(error)) {
	a.Calls = append(a.Calls, Call{Kind: "place", Pos: ref, Face: face})
	a.finish("place", func() error {
		held, _ := a.Inv.Equipped(model.SlotHand)
		name, ok := a.World.Cat.PlaceableBlock(held.Name)
		if !ok {
			name = "dirt"
		}
		a.Inv.Remove(held.Name)
		return a.World.SetBlock(ref.Add(face), name, nil)
	}, done)
}

func (a *Actions) Activate(pos model.Vec3i, done func(error)) {
	a.Calls = append(a.Calls, Call{Kind: "activate", Pos: pos})
	a.finish("activate", func() error {
		b, ok := a.World.BlockAt(pos)
		if !ok {
			return nil
		}
		open := "true"
		if b.IsOpen() {
			open = "false"
		}
		return a.World.SetProp(pos, "open", open)
	}, done)
}

func (a *Actions) Equip(item model.Item, slot model.EquipSlot, done func(error)) {
	a.Calls = append(a.Calls, Call{Kind: "equip", Item: item.Name})
	a.finish("equip", func() error {
		a.Inv.Held[slot] = item
		return nil
	}, done)
}

// Kinds lists recorded call kinds in order.
func (a *Actions) Kinds() []string {
	out := make([]string, 0, len(a.Calls))
	for _, c := range a.Calls {
		out = append(out, c.Kind)
	}
	return out
}

package main

import (
	"errors"
	"fmt"
	"log"
	"math"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/terrain/store"
)

const tickMS = 50

var errDigAborted = errors.New("digging aborted")

// inventory is the simulated agent's item list.
type inventory struct {
	items []model.Item
	held  map[model.EquipSlot]model.Item
}

func newInventory(items ...model.Item) *inventory {
	return &inventory{items: items, held: map[model.EquipSlot]model.Item{}}
}

func (i *inventory) Items() []model.Item { return i.items }

func (i *inventory) Equipped(slot model.EquipSlot) (model.Item, bool) {
	it, ok := i.held[slot]
	return it, ok
}

func (i *inventory) count(name string) int {
	n := 0
	for _, it := range i.items {
		if it.Name == name {
			n += it.Count
		}
	}
	return n
}

func (i *inventory) take(name string) bool {
	for k := range i.items {
		if i.items[k].Name != name || i.items[k].Count <= 0 {
			continue
		}
		i.items[k].Count--
		if i.items[k].Count == 0 {
			i.items = append(i.items[:k], i.items[k+1:]...)
			for slot, h := range i.held {
				if h.Name == name && i.count(name) == 0 {
					delete(i.held, slot)
				}
			}
		}
		return true
	}
	return false
}

func (i *inventory) add(name string) {
	for k := range i.items {
		if i.items[k].Name == name {
			i.items[k].Count++
			return
		}
	}
	i.items = append(i.items, model.Item{Name: name, Count: 1, Slot: len(i.items)})
}

type pendingAction struct {
	due  uint64
	kind string
	run  func() error
	done func(error)
}

// executor carries out model.Actions against the store. Each action
// completes on a later Step, digs after the time the block takes to break.
type executor struct {
	world *store.ChunkStore
	inv   *inventory
	log   *log.Logger

	tick    uint64
	pending []pendingAction

	counts map[string]int
}

func newExecutor(w *store.ChunkStore, inv *inventory, logger *log.Logger) *executor {
	return &executor{world: w, inv: inv, log: logger, counts: map[string]int{}}
}

func (e *executor) schedule(kind string, ticks uint64, run func() error, done func(error)) {
	if ticks == 0 {
		ticks = 1
	}
	e.counts[kind]++
	e.pending = append(e.pending, pendingAction{due: e.tick + ticks, kind: kind, run: run, done: done})
}

// Step advances one tick and completes every action that is due.
func (e *executor) Step() {
	e.tick++
	keep := e.pending[:0]
	var due []pendingAction
	for _, p := range e.pending {
		if p.due <= e.tick {
			due = append(due, p)
		} else {
			keep = append(keep, p)
		}
	}
	e.pending = keep
	for _, p := range due {
		err := p.run()
		if err != nil {
			e.log.Printf("%s failed: %v", p.kind, err)
		}
		p.done(err)
	}
}

func (e *executor) Dig(pos model.Vec3i, done func(error)) {
	b, ok := e.world.BlockAt(pos)
	if !ok {
		e.schedule("dig", 1, func() error { return fmt.Errorf("dig %s: not loaded", pos) }, done)
		return
	}
	var tool *model.Item
	if h, ok := e.inv.Equipped(model.SlotHand); ok {
		tool = &h
	}
	ms := e.world.Cat.DigTimeMS(b, tool)
	if math.IsInf(ms, 1) {
		e.schedule("dig", 1, func() error { return fmt.Errorf("dig %s: %s cannot be broken", pos, b.Name) }, done)
		return
	}
	ticks := uint64(math.Ceil(ms / tickMS))
	e.schedule("dig", ticks, func() error {
		if err := e.world.SetBlock(pos, "air", nil); err != nil {
			return err
		}
		if _, ok := e.world.Cat.Items.Defs[b.Name]; ok {
			e.inv.add(b.Name)
		}
		return nil
	}, done)
}

func (e *executor) StopDigging() {
	for i, p := range e.pending {
		if p.kind != "dig" {
			continue
		}
		e.pending[i].due = e.tick + 1
		e.pending[i].run = func() error { return errDigAborted }
	}
}

func (e *executor) Place(ref, face model.Vec3i, done func(error)) {
	e.schedule("place", 1, func() error {
		held, ok := e.inv.Equipped(model.SlotHand)
		if !ok {
			return errors.New("place: empty hand")
		}
		name, ok := e.world.Cat.PlaceableBlock(held.Name)
		if !ok {
			return fmt.Errorf("place: %s is not a block", held.Name)
		}
		target := ref.Add(face)
		if cur, ok := e.world.BlockAt(target); !ok || !cur.Replaceable {
			return fmt.Errorf("place %s: occupied", target)
		}
		if !e.inv.take(held.Name) {
			return fmt.Errorf("place: out of %s", held.Name)
		}
		return e.world.SetBlock(target, name, nil)
	}, done)
}

func (e *executor) Activate(pos model.Vec3i, done func(error)) {
	e.schedule("activate", 1, func() error {
		b, ok := e.world.BlockAt(pos)
		if !ok || !b.Openable {
			return fmt.Errorf("activate %s: nothing to use", pos)
		}
		open := "true"
		if b.IsOpen() {
			open = "false"
		}
		return e.world.SetProp(pos, "open", open)
	}, done)
}

func (e *executor) Equip(item model.Item, slot model.EquipSlot, done func(error)) {
	e.schedule("equip", 1, func() error {
		if e.inv.count(item.Name) == 0 {
			return fmt.Errorf("equip: no %s", item.Name)
		}
		e.inv.held[slot] = item
		return nil
	}, done)
}

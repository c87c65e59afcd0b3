// Package movements generates the edges of the movement graph: for a foot
// position it enumerates every reachable neighbour with its cost and the
// blocks that must be broken or placed on the way. It only reads the world.
package movements

import (
	"fmt"
	"math"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/catalogs"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/tuning"
)

var inf = math.Inf(1)

// NameSet is a set of block or entity names.
type NameSet map[string]struct{}

func (s NameSet) Has(n string) bool { _, ok := s[n]; return ok }
func (s NameSet) Add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

// Movements is the movement model. Configuration fields may be changed
// between searches; a controller must be told through SetMovements.
type Movements struct {
	World     model.World
	Cat       *catalogs.Catalogs
	Inventory model.Inventory

	CanDig               bool
	CanOpenDoors         bool
	DontCreateFlow       bool
	DontMineUnderFalling bool
	Allow1by1Towers      bool
	AllowFreeMotion      bool
	AllowParkour         bool
	AllowSprinting       bool
	AllowEntityDetection bool
	Sneak                bool

	DigCost    float64
	PlaceCost  float64
	LiquidCost float64
	EntityCost float64

	MaxDropDown                    int
	InfiniteLiquidDropdownDistance bool

	// Scaffolding lists placeable item names in priority order.
	Scaffolding []string

	BlocksCantBreak      NameSet
	BlocksCanBreakAnyway NameSet
	BlocksToAvoid        NameSet
	Liquids              NameSet
	GravityBlocks        NameSet
	Climbables           NameSet
	EmptyBlocks          NameSet
	Replaceables         NameSet
	Fences               NameSet
	Carpets              NameSet
	Openable             NameSet
	Interactable         NameSet

	EntitiesToAvoid  NameSet
	PassableEntities NameSet

	ExclusionStep  []Exclusion
	ExclusionBreak []Exclusion
	ExclusionPlace []Exclusion

	// entityIntersections counts obstructing entities per voxel.
	entityIntersections map[model.Vec3i]float64
}

// New derives the block categories from the catalog and applies the tuning.
func New(w model.World, cat *catalogs.Catalogs, inv model.Inventory, cfg tuning.Tuning) (*Movements, error) {
	mc := cfg.Movements
	if mc.MaxDropDown < 0 {
		return nil, fmt.Errorf("movements: max_drop_down=%d must not be negative", mc.MaxDropDown)
	}
	m := &Movements{
		World:     w,
		Cat:       cat,
		Inventory: inv,

		CanDig:               mc.CanDig,
		CanOpenDoors:         mc.CanOpenDoors,
		DontCreateFlow:       mc.DontCreateFlow,
		DontMineUnderFalling: mc.DontMineUnderFalling,
		Allow1by1Towers:      mc.Allow1by1Towers,
		AllowFreeMotion:      mc.AllowFreeMotion,
		AllowParkour:         mc.AllowParkour,
		AllowSprinting:       mc.AllowSprinting,
		AllowEntityDetection: mc.AllowEntityDetection,
		Sneak:                mc.Sneak,

		DigCost:    mc.DigCost,
		PlaceCost:  mc.PlaceCost,
		LiquidCost: mc.LiquidCost,
		EntityCost: mc.EntityCost,

		MaxDropDown:                    mc.MaxDropDown,
		InfiniteLiquidDropdownDistance: mc.InfiniteLiquidDropdownDistance,

		Scaffolding: append([]string(nil), mc.Scaffolding...),

		BlocksCantBreak:      NameSet{},
		BlocksCanBreakAnyway: NameSet{},
		BlocksToAvoid:        NameSet{},
		Liquids:              NameSet{},
		GravityBlocks:        NameSet{},
		Climbables:           NameSet{},
		EmptyBlocks:          NameSet{},
		Replaceables:         NameSet{},
		Fences:               NameSet{},
		Carpets:              NameSet{},
		Openable:             NameSet{},
		Interactable:         NameSet{},
		EntitiesToAvoid:      NameSet{},
		PassableEntities:     NameSet{},

		entityIntersections: map[model.Vec3i]float64{},
	}

	for name, d := range cat.Blocks.Defs {
		if !d.Diggable || d.Hardness < 0 {
			m.BlocksCantBreak.Add(name)
		}
		if d.Liquid {
			m.Liquids.Add(name)
		}
		if d.Gravity {
			m.GravityBlocks.Add(name)
		}
		if d.Climbable {
			m.Climbables.Add(name)
		}
		if d.Replaceable {
			m.Replaceables.Add(name)
		}
		if d.Openable {
			m.Openable.Add(name)
		}
		if d.Interactable {
			m.Interactable.Add(name)
		}
		switch {
		case name == "end_portal" || name == "nether_portal":
			m.EmptyBlocks.Add(name)
		case len(d.Shapes) == 0:
			m.EmptyBlocks.Add(name)
		default:
			// Taller than a block: never walked on. Thinner than a tenth: walked through.
			if d.Shapes[0].MaxY() > 1 {
				m.Fences.Add(name)
			}
			if d.Shapes[0].MaxY() < 0.1 {
				m.Carpets.Add(name)
			}
		}
	}
	m.BlocksCantBreak.Add(mc.BlocksCantBreak...)
	m.BlocksCanBreakAnyway.Add(mc.BlocksCanBreakAnyway...)
	m.BlocksToAvoid.Add(mc.BlocksToAvoid...)
	m.EntitiesToAvoid.Add(mc.EntitiesToAvoid...)
	m.PassableEntities.Add(mc.PassableEntities...)

	var err error
	if m.ExclusionStep, err = CompileExclusions(cfg.Exclusion.Step); err != nil {
		return nil, fmt.Errorf("exclusion.step: %w", err)
	}
	if m.ExclusionBreak, err = CompileExclusions(cfg.Exclusion.Break); err != nil {
		return nil, fmt.Errorf("exclusion.break: %w", err)
	}
	if m.ExclusionPlace, err = CompileExclusions(cfg.Exclusion.Place); err != nil {
		return nil, fmt.Errorf("exclusion.place: %w", err)
	}
	return m, nil
}

// Copy returns an independent model sharing the world and catalog, with an
// empty collision index.
func (m *Movements) Copy() *Movements {
	c := *m
	c.Scaffolding = append([]string(nil), m.Scaffolding...)
	c.ExclusionStep = append([]Exclusion(nil), m.ExclusionStep...)
	c.ExclusionBreak = append([]Exclusion(nil), m.ExclusionBreak...)
	c.ExclusionPlace = append([]Exclusion(nil), m.ExclusionPlace...)
	for _, p := range []*NameSet{&c.BlocksCantBreak, &c.BlocksCanBreakAnyway, &c.BlocksToAvoid, &c.Liquids,
		&c.GravityBlocks, &c.Climbables, &c.EmptyBlocks, &c.Replaceables, &c.Fences, &c.Carpets,
		&c.Openable, &c.Interactable, &c.EntitiesToAvoid, &c.PassableEntities} {
		cp := make(NameSet, len(*p))
		for k := range *p {
			cp[k] = struct{}{}
		}
		*p = cp
	}
	c.entityIntersections = map[model.Vec3i]float64{}
	return &c
}

// HasExclusionStep reports whether step exclusions are configured; the
// post-processor refuses to merge moves when they are.
func (m *Movements) HasExclusionStep() bool { return len(m.ExclusionStep) > 0 }

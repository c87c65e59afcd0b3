package movements

import (
	"math"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// SafeBlock is a block annotated with the traversal properties the move
// generators need.
type SafeBlock struct {
	model.Block
	Loaded bool

	Safe        bool
	Physical    bool
	Liquid      bool
	Replaceable bool
	Climbable   bool
	Openable    bool
	CanFall     bool
	CanWalkOn   bool
	CanJumpFrom bool
	// Height is the absolute y of the top of the collision shapes.
	Height float64
}

var notPhysical = map[string]bool{
	"composter":            true,
	"cauldron":             true,
	"water_cauldron":       true,
	"lava_cauldron":        true,
	"powder_snow_cauldron": true,
}

// Block returns the annotated block at p+(dx,dy,dz). Unloaded positions are
// neither safe nor physical, which keeps the search out of unknown terrain.
func (m *Movements) Block(p model.Vec3i, dx, dy, dz int) SafeBlock {
	pos := p.Offset(dx, dy, dz)
	b, ok := m.World.BlockAt(pos)
	if !ok {
		return SafeBlock{Block: model.Block{Pos: pos}, Height: float64(pos.Y)}
	}
	empty := m.EmptyBlocks.Has(b.Name) || len(b.Shapes) == 0
	sb := SafeBlock{
		Block:     b,
		Loaded:    true,
		Climbable: m.Climbables.Has(b.Name),
		Physical: b.BoundingBox == "block" &&
			!m.Fences.Has(b.Name) &&
			!empty &&
			!notPhysical[b.Name],
		Liquid:   m.Liquids.Has(b.Name),
		CanFall:  m.GravityBlocks.Has(b.Name),
		Openable: m.Openable.Has(b.Name),
		Height:   float64(pos.Y),
	}
	sb.Safe = (empty || b.BoundingBox == "empty" || sb.Climbable || m.Carpets.Has(b.Name)) && !m.BlocksToAvoid.Has(b.Name)
	sb.Replaceable = m.Replaceables.Has(b.Name) && !sb.Physical
	sb.CanWalkOn = sb.Physical
	sb.CanJumpFrom = !sb.Liquid

	if b.Name == "powder_snow" {
		boots := m.wearing(model.SlotFeet, "leather_boots")
		sb.CanWalkOn = boots
		sb.CanJumpFrom = boots
	}
	for _, s := range b.Shapes {
		sb.Height = math.Max(sb.Height, float64(pos.Y)+s.MaxY())
	}
	return sb
}

func (m *Movements) wearing(slot model.EquipSlot, name string) bool {
	if m.Inventory == nil {
		return false
	}
	it, ok := m.Inventory.Equipped(slot)
	return ok && it.Name == name
}

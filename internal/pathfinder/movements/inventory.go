package movements

import (
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// BestHarvestTool picks the inventory item that digs b fastest. It returns
// nil when bare hands are at least as fast.
func (m *Movements) BestHarvestTool(b model.Block) *model.Item {
	if m.Inventory == nil {
		return nil
	}
	best := m.Cat.DigTimeMS(b, nil)
	var tool *model.Item
	items := m.Inventory.Items()
	for i := range items {
		if t := m.Cat.DigTimeMS(b, &items[i]); t < best {
			best = t
			it := items[i]
			tool = &it
		}
	}
	return tool
}

// CountScaffoldingItems sums every configured scaffolding item carried.
func (m *Movements) CountScaffoldingItems() int {
	if m.Inventory == nil {
		return 0
	}
	n := 0
	items := m.Inventory.Items()
	for _, name := range m.Scaffolding {
		for _, it := range items {
			if it.Name == name {
				n += it.Count
			}
		}
	}
	return n
}

// ScaffoldingItem returns the highest priority scaffolding item carried.
func (m *Movements) ScaffoldingItem() (model.Item, bool) {
	if m.Inventory == nil {
		return model.Item{}, false
	}
	items := m.Inventory.Items()
	for _, name := range m.Scaffolding {
		for _, it := range items {
			if it.Name == name && it.Count > 0 {
				return it, true
			}
		}
	}
	return model.Item{}, false
}

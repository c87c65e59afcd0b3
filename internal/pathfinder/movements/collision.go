package movements

import (
	"math"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

func (m *Movements) ClearCollisionIndex() {
	m.entityIntersections = map[model.Vec3i]float64{}
}

// UpdateCollisionIndex adds every obstructing entity's voxels to the index.
// Avoided entities make their voxels impassable; others weigh 1 each.
func (m *Movements) UpdateCollisionIndex(src model.EntitySource) {
	if src == nil {
		return
	}
	self := src.Self()
	for _, e := range src.Entities() {
		if e.ID == self || e.Name == "" {
			continue
		}
		avoided := m.EntitiesToAvoid.Has(e.Name)
		if !avoided && m.PassableEntities.Has(e.Name) {
			continue
		}
		r := e.Width / 2
		minY := int(math.Floor(e.Position[1]))
		maxY := int(math.Ceil(e.Position[1] + e.Height))
		minX := int(math.Floor(e.Position[0] - r))
		maxX := int(math.Ceil(e.Position[0] + r))
		minZ := int(math.Floor(e.Position[2] - r))
		maxZ := int(math.Ceil(e.Position[2] + r))
		w := 1.0
		if avoided {
			w = inf
		}
		for y := minY; y < maxY; y++ {
			for x := minX; x < maxX; x++ {
				for z := minZ; z < maxZ; z++ {
					m.entityIntersections[model.V(x, y, z)] += w
				}
			}
		}
	}
}

// SetEntityWeight overrides the index at one voxel.
func (m *Movements) SetEntityWeight(p model.Vec3i, w float64) {
	if w == 0 {
		delete(m.entityIntersections, p)
		return
	}
	m.entityIntersections[p] = w
}

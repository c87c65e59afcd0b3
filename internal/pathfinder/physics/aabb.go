package physics

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AABB is an axis aligned box in world coordinates.
type AABB struct {
	Min, Max mgl64.Vec3
}

// BodyBox is the collision box of a body whose feet are at pos.
func BodyBox(pos mgl64.Vec3, width, height float64) AABB {
	r := width / 2
	return AABB{
		Min: mgl64.Vec3{pos[0] - r, pos[1], pos[2] - r},
		Max: mgl64.Vec3{pos[0] + r, pos[1] + height, pos[2] + r},
	}
}

func (a AABB) Offset(d mgl64.Vec3) AABB { return AABB{Min: a.Min.Add(d), Max: a.Max.Add(d)} }

// Sweep grows the box in the direction of d.
func (a AABB) Sweep(d mgl64.Vec3) AABB {
	out := a
	for i := 0; i < 3; i++ {
		if d[i] < 0 {
			out.Min[i] += d[i]
		} else {
			out.Max[i] += d[i]
		}
	}
	return out
}

// Contract shrinks the box on every side.
func (a AABB) Contract(x, y, z float64) AABB {
	return AABB{
		Min: mgl64.Vec3{a.Min[0] + x, a.Min[1] + y, a.Min[2] + z},
		Max: mgl64.Vec3{a.Max[0] - x, a.Max[1] - y, a.Max[2] - z},
	}
}

func (a AABB) Intersects(b AABB) bool {
	return a.Min[0] < b.Max[0] && a.Max[0] > b.Min[0] &&
		a.Min[1] < b.Max[1] && a.Max[1] > b.Min[1] &&
		a.Min[2] < b.Max[2] && a.Max[2] > b.Min[2]
}

// clip shortens movement d of box m along axis so it stops at obstacle o.
// Boxes that do not overlap on the other two axes never clip.
func (o AABB) clip(m AABB, axis int, d float64) float64 {
	for i := 0; i < 3; i++ {
		if i == axis {
			continue
		}
		if o.Max[i] <= m.Min[i] || o.Min[i] >= m.Max[i] {
			return d
		}
	}
	switch {
	case d > 0 && m.Max[axis] <= o.Min[axis]:
		d = math.Min(d, o.Min[axis]-m.Max[axis])
	case d < 0 && m.Min[axis] >= o.Max[axis]:
		d = math.Max(d, o.Max[axis]-m.Min[axis])
	}
	return d
}

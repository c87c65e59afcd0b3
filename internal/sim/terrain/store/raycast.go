package store

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// Raycast walks the voxels crossed by the ray and returns the first shape
// hit within maxDist. dir need not be normalized.
func (s *ChunkStore) Raycast(from, dir mgl64.Vec3, maxDist float64) (model.RaycastHit, bool) {
	if dir.Len() == 0 || maxDist <= 0 {
		return model.RaycastHit{}, false
	}
	dir = dir.Normalize()
	cur := model.Floor(from)

	var step [3]int
	var tMax, tDelta [3]float64
	cell := [3]int{cur.X, cur.Y, cur.Z}
	for a := 0; a < 3; a++ {
		switch {
		case dir[a] > 0:
			step[a] = 1
			tMax[a] = (float64(cell[a]+1) - from[a]) / dir[a]
			tDelta[a] = 1 / dir[a]
		case dir[a] < 0:
			step[a] = -1
			tMax[a] = (float64(cell[a]) - from[a]) / dir[a]
			tDelta[a] = -1 / dir[a]
		default:
			tMax[a] = math.Inf(1)
			tDelta[a] = math.Inf(1)
		}
	}

	for t := 0.0; t <= maxDist; {
		p := model.V(cell[0], cell[1], cell[2])
		if b, ok := s.BlockAt(p); ok && len(b.Shapes) > 0 {
			if hit, ok := intersectBlock(b, from, dir, maxDist); ok {
				return hit, true
			}
		}
		a := 0
		if tMax[1] < tMax[a] {
			a = 1
		}
		if tMax[2] < tMax[a] {
			a = 2
		}
		t = tMax[a]
		cell[a] += step[a]
		tMax[a] += tDelta[a]
	}
	return model.RaycastHit{}, false
}

func intersectBlock(b model.Block, from, dir mgl64.Vec3, maxDist float64) (model.RaycastHit, bool) {
	origin := b.Pos.Vec3()
	best := math.Inf(1)
	var bestFace model.Face
	for _, sh := range b.Shapes {
		lo := origin.Add(mgl64.Vec3{sh[0], sh[1], sh[2]})
		hi := origin.Add(mgl64.Vec3{sh[3], sh[4], sh[5]})
		t, face, ok := slab(from, dir, lo, hi)
		if ok && t < best {
			best, bestFace = t, face
		}
	}
	if math.IsInf(best, 1) || best > maxDist {
		return model.RaycastHit{}, false
	}
	return model.RaycastHit{Pos: b.Pos, Face: bestFace, Intersect: from.Add(dir.Mul(best))}, true
}

// slab returns the entry distance into the box and the face crossed.
func slab(from, dir, lo, hi mgl64.Vec3) (float64, model.Face, bool) {
	tNear, tFar := math.Inf(-1), math.Inf(1)
	var face model.Face
	for a := 0; a < 3; a++ {
		if dir[a] == 0 {
			if from[a] < lo[a] || from[a] > hi[a] {
				return 0, 0, false
			}
			continue
		}
		t1 := (lo[a] - from[a]) / dir[a]
		t2 := (hi[a] - from[a]) / dir[a]
		entryFace := axisFace(a, dir[a] > 0)
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tNear {
			tNear = t1
			face = entryFace
		}
		if t2 < tFar {
			tFar = t2
		}
		if tNear > tFar || tFar < 0 {
			return 0, 0, false
		}
	}
	if tNear < 0 {
		tNear = 0
	}
	return tNear, face, true
}

// axisFace is the face a ray moving along axis a enters through.
func axisFace(a int, positive bool) model.Face {
	switch a {
	case 0:
		if positive {
			return model.FaceWest
		}
		return model.FaceEast
	case 1:
		if positive {
			return model.FaceDown
		}
		return model.FaceUp
	default:
		if positive {
			return model.FaceNorth
		}
		return model.FaceSouth
	}
}

package model

import "github.com/go-gl/mathgl/mgl64"

// Shape is an axis aligned box in block-local coordinates:
// minX, minY, minZ, maxX, maxY, maxZ.
type Shape [6]float64

func (s Shape) MaxY() float64 { return s[4] }

// Block is a read-only view of one voxel.
type Block struct {
	Pos  Vec3i
	ID   uint16
	Name string

	// BoundingBox is "block" for solid collision boxes and "empty" otherwise.
	BoundingBox string
	Shapes      []Shape

	Hardness float64
	Diggable bool
	Material string

	Liquid      bool
	Climbable   bool
	Replaceable bool
	CanFall     bool
	Openable    bool

	Properties map[string]string
}

func (b Block) Prop(name string) string {
	if b.Properties == nil {
		return ""
	}
	return b.Properties[name]
}

func (b Block) IsOpen() bool { return b.Prop("open") == "true" }

// Top returns the highest point of the collision shapes relative to the
// block origin, or 0 when the block has no shapes.
func (b Block) Top() float64 {
	top := 0.0
	for _, s := range b.Shapes {
		if s.MaxY() > top {
			top = s.MaxY()
		}
	}
	return top
}

// RaycastHit is the first block intersected by a ray.
type RaycastHit struct {
	Pos       Vec3i
	Face      Face
	Intersect mgl64.Vec3
}

// World is the queryable voxel store the pathfinder reads from.
// BlockAt reports false for unloaded positions.
type World interface {
	BlockAt(p Vec3i) (Block, bool)
	Raycast(from, dir mgl64.Vec3, maxDist float64) (RaycastHit, bool)
	MinY() int
}

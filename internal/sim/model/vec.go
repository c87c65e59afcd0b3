package model

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/mathx"
)

// Vec3i is an integer voxel coordinate.
type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func V(x, y, z int) Vec3i { return Vec3i{X: x, Y: y, Z: z} }

func (v Vec3i) Offset(dx, dy, dz int) Vec3i { return Vec3i{v.X + dx, v.Y + dy, v.Z + dz} }
func (v Vec3i) Add(o Vec3i) Vec3i           { return Vec3i{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3i) Sub(o Vec3i) Vec3i           { return Vec3i{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3i) Neg() Vec3i                  { return Vec3i{-v.X, -v.Y, -v.Z} }
func (v Vec3i) IsZero() bool                { return v == Vec3i{} }

// Sign reduces every axis to -1, 0 or 1.
func (v Vec3i) Sign() Vec3i {
	return Vec3i{mathx.SignInt(v.X), mathx.SignInt(v.Y), mathx.SignInt(v.Z)}
}

func (v Vec3i) DistanceSq(o Vec3i) int {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return dx*dx + dy*dy + dz*dz
}

// Vec3 returns the block origin corner as a float vector.
func (v Vec3i) Vec3() mgl64.Vec3 { return mgl64.Vec3{float64(v.X), float64(v.Y), float64(v.Z)} }

// Center returns the middle of the bottom face, which is where an agent
// standing in this voxel has its feet.
func (v Vec3i) Center() mgl64.Vec3 {
	return mgl64.Vec3{float64(v.X) + 0.5, float64(v.Y), float64(v.Z) + 0.5}
}

// Chunk returns the 16x16 column containing the voxel.
func (v Vec3i) Chunk() ChunkPos {
	return ChunkPos{CX: v.X >> 4, CZ: v.Z >> 4}
}

func (v Vec3i) String() string { return fmt.Sprintf("%d,%d,%d", v.X, v.Y, v.Z) }

func Floor(p mgl64.Vec3) Vec3i {
	return Vec3i{int(math.Floor(p[0])), int(math.Floor(p[1])), int(math.Floor(p[2]))}
}

type ChunkPos struct {
	CX int `json:"cx"`
	CZ int `json:"cz"`
}

func (c ChunkPos) String() string { return fmt.Sprintf("%d,%d", c.CX, c.CZ) }

// Face identifies a block side. The numbering matches the order used on the
// wire by most voxel protocols: down, up, north, south, west, east.
type Face int

const (
	FaceDown Face = iota
	FaceUp
	FaceNorth
	FaceSouth
	FaceWest
	FaceEast
)

var faceVecs = [...]Vec3i{
	FaceDown:  {0, -1, 0},
	FaceUp:    {0, 1, 0},
	FaceNorth: {0, 0, -1},
	FaceSouth: {0, 0, 1},
	FaceWest:  {-1, 0, 0},
	FaceEast:  {1, 0, 0},
}

func (f Face) Vec() Vec3i {
	if f < 0 || int(f) >= len(faceVecs) {
		return Vec3i{}
	}
	return faceVecs[f]
}

// FaceOf maps a unit axis vector to a face. Y wins over Z, Z over X.
func FaceOf(v Vec3i) (Face, bool) {
	switch {
	case v.Y < 0:
		return FaceDown, true
	case v.Y > 0:
		return FaceUp, true
	case v.Z < 0:
		return FaceNorth, true
	case v.Z > 0:
		return FaceSouth, true
	case v.X < 0:
		return FaceWest, true
	case v.X > 0:
		return FaceEast, true
	}
	return 0, false
}

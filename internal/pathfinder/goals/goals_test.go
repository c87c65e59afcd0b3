package goals

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/pathfinder/pathtest"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

func TestBlock_OctileHeuristic(t *testing.T) {
	g := NewBlock(5, 64, 0)
	assert.InDelta(t, 5.0, g.Heuristic(model.V(0, 64, 0)), 1e-9)
	assert.InDelta(t, 3*math.Sqrt2+1, g.Heuristic(model.V(2, 65, 3)), 1e-9)
	assert.True(t, g.IsEnd(model.V(5, 64, 0)))
	assert.False(t, g.IsEnd(model.V(5, 65, 0)))
	assert.True(t, g.IsValid())
	assert.False(t, g.HasChanged())
}

func TestNear_Range(t *testing.T) {
	g := NewNear(0, 64, 0, 2)
	assert.True(t, g.IsEnd(model.V(2, 64, 0)))
	assert.True(t, g.IsEnd(model.V(1, 65, 1)))
	assert.False(t, g.IsEnd(model.V(2, 64, 1)))
}

func TestPlaneGoals(t *testing.T) {
	xz := XZ{X: 10, Z: -4}
	assert.True(t, xz.IsEnd(model.V(10, 3, -4)))
	assert.InDelta(t, 10.0, xz.Heuristic(model.V(0, 99, -4)), 1e-9)

	nxz := NewNearXZ(0, 0, 3)
	assert.True(t, nxz.IsEnd(model.V(3, 0, 0)))
	assert.False(t, nxz.IsEnd(model.V(3, 0, 1)))

	y := Y{Y: 12}
	assert.True(t, y.IsEnd(model.V(-40, 12, 7)))
	assert.Equal(t, 3.0, y.Heuristic(model.V(0, 9, 0)))
}

func TestGetToBlock_AdjacentOnly(t *testing.T) {
	g := GetToBlock{Pos: model.V(0, 64, 0)}
	assert.False(t, g.IsEnd(model.V(0, 64, 0)), "inside the block")
	assert.True(t, g.IsEnd(model.V(1, 64, 0)))
	assert.True(t, g.IsEnd(model.V(0, 65, 0)))
	// Standing one below and beside still counts: the head is level with the block.
	assert.True(t, g.IsEnd(model.V(1, 63, 0)))
	assert.False(t, g.IsEnd(model.V(1, 64, 1)))
	assert.Equal(t, 0.0, g.Heuristic(model.V(0, 63, 0)))
}

func TestComposites(t *testing.T) {
	a := NewBlock(0, 0, 0)
	b := NewBlock(10, 0, 0)
	n := model.V(3, 0, 0)

	anyG := &Any{Goals: []Goal{a, b}}
	assert.Equal(t, 3.0, anyG.Heuristic(n))
	assert.True(t, anyG.IsEnd(model.V(10, 0, 0)))
	assert.False(t, anyG.IsEnd(n))

	allG := &All{Goals: []Goal{NewNear(0, 0, 0, 5), NewNear(6, 0, 0, 5)}}
	assert.Equal(t, 3.0, allG.Heuristic(n))
	assert.True(t, allG.IsEnd(n))
	assert.False(t, allG.IsEnd(model.V(-1, 0, 0)))

	inv := Invert{Goal: a}
	assert.Equal(t, -3.0, inv.Heuristic(n))
	assert.True(t, inv.IsEnd(n))
	assert.False(t, inv.IsEnd(model.V(0, 0, 0)))
}

func TestFollow_RefreshesOutsideRange(t *testing.T) {
	e := model.Entity{ID: 7, Name: "player", Position: mgl64.Vec3{0.5, 64, 0.5}}
	alive := true
	g := NewFollow(func() (model.Entity, bool) { return e, alive }, 2, true)
	require.Equal(t, model.V(0, 64, 0), g.Pos())
	assert.True(t, IsDynamic(g))

	e.Position = mgl64.Vec3{1.5, 64, 0.5}
	assert.False(t, g.HasChanged(), "inside range")
	assert.Equal(t, model.V(0, 64, 0), g.Pos())

	e.Position = mgl64.Vec3{5.5, 64, 0.5}
	assert.True(t, g.HasChanged())
	assert.Equal(t, model.V(5, 64, 0), g.Pos())
	assert.False(t, g.HasChanged(), "refresh consumed")

	composite := &Any{Goals: []Goal{g}}
	alive = false
	assert.False(t, composite.IsValid())
}

func TestLookAt_VisibleFace(t *testing.T) {
	w := pathtest.Flat(t, 8)
	target := model.V(3, 64, 0)
	pathtest.Set(t, w, target, "stone")
	g := NewLookAt(target, w, 0, 0)

	assert.True(t, g.IsEnd(model.V(0, 64, 0)))
	assert.False(t, g.IsEnd(model.V(-6, 64, 0)), "out of reach")

	// A wall between the node and the target hides every face.
	pathtest.Fill(t, w, model.V(1, 64, -1), model.V(1, 67, 1), "stone")
	assert.False(t, g.IsEnd(model.V(0, 64, 0)))

	bb := NewBreakBlock(target, w, 0, 0)
	assert.True(t, bb.IsEnd(model.V(3, 65, 1)))
}

func TestPlaceBlock_RequiresReferenceFace(t *testing.T) {
	w := pathtest.Flat(t, 8)
	target := model.V(2, 64, 0) // resting on the floor at y=63
	g := NewPlaceBlock(target, w, PlaceOptions{Facing: FacingAny})

	assert.False(t, g.IsEnd(target), "standing in the target")
	assert.True(t, g.IsEnd(model.V(0, 64, 0)))

	click, ok := g.Click(mgl64.Vec3{0.5, 64 + DefaultEntityHeight, 0.5})
	require.True(t, ok)
	assert.Equal(t, model.V(2, 63, 0), click.Ref)
	assert.Equal(t, model.V(0, -1, 0), click.Face)

	far := NewPlaceBlock(target, w, PlaceOptions{Facing: FacingAny, Range: 1})
	assert.False(t, far.IsEnd(model.V(-3, 64, 0)))
}

func TestFaceCenters_Half(t *testing.T) {
	full := []model.Shape{{0, 0, 0, 1, 1, 1}}
	top := FaceCenters(full, model.V(1, 0, 0), "top")
	require.Len(t, top, 1)
	assert.InDelta(t, 0.75, top[0][1], 1e-9)
	assert.InDelta(t, 1.0, top[0][0], 1e-9)

	slab := []model.Shape{{0, 0, 0, 1, 0.5, 1}}
	assert.Empty(t, FaceCenters(slab, model.V(1, 0, 0), "top"))
	up := FaceCenters(slab, model.V(0, 1, 0), "")
	require.Len(t, up, 1)
	assert.InDelta(t, 0.5, up[0][1], 1e-9)
}

func TestParseFacing(t *testing.T) {
	assert.Equal(t, FacingEast, ParseFacing("east"))
	assert.Equal(t, FacingAny, ParseFacing(""))
}

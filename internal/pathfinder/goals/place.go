package goals

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/mathx"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

// Facing values for PlaceOptions.Facing, in the order the horizontal
// quadrant computation produces them.
const (
	FacingAny   = -1
	FacingNorth = 0
	FacingEast  = 1
	FacingSouth = 2
	FacingWest  = 3
	FacingUp    = 4
	FacingDown  = 5
)

var facingNames = map[string]int{"north": 0, "east": 1, "south": 2, "west": 3, "up": 4, "down": 5}

// ParseFacing maps a direction name to a Facing value; unknown names mean any.
func ParseFacing(name string) int {
	if f, ok := facingNames[name]; ok {
		return f
	}
	return FacingAny
}

type PlaceOptions struct {
	Range float64
	// Faces lists the neighbour offsets that may serve as the reference block.
	Faces    []model.Vec3i
	Facing   int
	Facing3D bool
	// Half restricts clicks on side faces to "top" or "bottom".
	Half string
	// NoLOS disables the raycast check against the clicked face.
	NoLOS bool
}

type placeCandidate struct {
	dir model.Vec3i
	to  mgl64.Vec3
	ref model.Vec3i
}

// PlaceBlock ends where the agent can click a neighbouring face to place a
// block at Pos without standing inside it.
type PlaceBlock struct {
	Static
	Pos   model.Vec3i
	World model.World
	Opts  PlaceOptions

	faces []placeCandidate
}

// PlaceClick is the resolved interaction for a placement.
type PlaceClick struct {
	Face model.Vec3i
	To   mgl64.Vec3
	Ref  model.Vec3i
}

func NewPlaceBlock(pos model.Vec3i, w model.World, opts PlaceOptions) *PlaceBlock {
	if opts.Range <= 0 {
		opts.Range = 5
	}
	if len(opts.Faces) == 0 {
		for f := model.FaceDown; f <= model.FaceEast; f++ {
			opts.Faces = append(opts.Faces, f.Vec())
		}
	}
	if opts.Facing < FacingAny || opts.Facing > FacingDown {
		opts.Facing = FacingAny
	}
	g := &PlaceBlock{Pos: pos, World: w, Opts: opts}
	for _, dir := range opts.Faces {
		ref := pos.Add(dir)
		b, ok := w.BlockAt(ref)
		if !ok {
			continue
		}
		for _, c := range FaceCenters(b.Shapes, dir.Neg(), opts.Half) {
			g.faces = append(g.faces, placeCandidate{dir: dir, to: c.Add(ref.Vec3()), ref: ref})
		}
	}
	return g
}

func (g *PlaceBlock) Heuristic(n model.Vec3i) float64 {
	d := n.Sub(g.Pos)
	return distanceXZ(d.X, d.Z) + math.Abs(float64(belowAdjusted(d.Y)))
}

func (g *PlaceBlock) IsEnd(n model.Vec3i) bool {
	if g.isStandingIn(n) {
		return false
	}
	_, ok := g.Click(n.Vec3().Add(mgl64.Vec3{0.5, DefaultEntityHeight, 0.5}))
	return ok
}

// Click finds the first reachable face from the given eye position.
func (g *PlaceBlock) Click(head mgl64.Vec3) (PlaceClick, bool) {
	for _, c := range g.faces {
		dir := c.to.Sub(head)
		if dir.Len() > g.Opts.Range || !g.checkFacing(dir) {
			continue
		}
		if g.Opts.NoLOS {
			return PlaceClick{Face: c.dir, To: c.to, Ref: c.ref}, true
		}
		want, _ := model.FaceOf(c.dir.Neg())
		hit, ok := g.World.Raycast(head, dir.Normalize(), g.Opts.Range)
		if ok && hit.Pos == c.ref && hit.Face == want {
			return PlaceClick{Face: c.dir, To: c.to, Ref: c.ref}, true
		}
	}
	return PlaceClick{}, false
}

func (g *PlaceBlock) checkFacing(dir mgl64.Vec3) bool {
	if g.Opts.Facing == FacingAny {
		return true
	}
	if g.Opts.Facing3D {
		dH := math.Hypot(dir[0], dir[2])
		v := math.Atan2(dir[1], dH) * 180 / math.Pi
		if v > 45 {
			return g.Opts.Facing == FacingUp
		}
		if v < -45 {
			return g.Opts.Facing == FacingDown
		}
	}
	angle := math.Atan2(dir[0], -dir[2])*180/math.Pi + 180
	return g.Opts.Facing == int(math.Floor(angle/90+0.5))&0x3
}

func (g *PlaceBlock) isStandingIn(n model.Vec3i) bool {
	d := n.Sub(g.Pos)
	return mathx.AbsInt(d.X)+mathx.AbsInt(belowAdjusted(d.Y))+mathx.AbsInt(d.Z) < 1
}

func (g *PlaceBlock) String() string { return fmt.Sprintf("place(%s)", g.Pos) }

// FaceCenters returns the centre of the given face of each shape, in
// block-local coordinates. For side faces half limits the point to the upper
// or lower half of the block; shapes entirely outside that half are skipped.
func FaceCenters(shapes []model.Shape, face model.Vec3i, half string) []mgl64.Vec3 {
	var out []mgl64.Vec3
	for _, s := range shapes {
		lo := mgl64.Vec3{s[0], s[1], s[2]}
		hi := mgl64.Vec3{s[3], s[4], s[5]}
		c := lo.Add(hi).Mul(0.5)
		size := hi.Sub(lo).Mul(0.5)
		c = c.Add(mgl64.Vec3{size[0] * float64(face.X), size[1] * float64(face.Y), size[2] * float64(face.Z)})
		if half != "" && face.Y == 0 {
			yLo, yHi := lo[1], hi[1]
			if half == "top" {
				yLo = math.Max(yLo, 0.5)
			} else {
				yHi = math.Min(yHi, 0.5)
			}
			if yLo >= yHi {
				continue
			}
			c[1] = (yLo + yHi) / 2
		}
		out = append(out, c)
	}
	return out
}

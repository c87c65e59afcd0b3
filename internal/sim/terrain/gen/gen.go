// Package gen produces deterministic height-mapped terrain columns.
package gen

import (
	"github.com/aquilax/go-perlin"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/catalogs"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/mathx"
)

type Biome string

const (
	BiomePlains Biome = "PLAINS"
	BiomeForest Biome = "FOREST"
	BiomeDesert Biome = "DESERT"
)

type Params struct {
	Seed int64

	BaseY      int
	Amplitude  int
	WaterLevel int
	NoiseScale float64

	BiomeRegionSize  int
	SpawnClearRadius int
	TreePermille     int
	GravelPermille   int
}

// Palette maps terrain roles to catalog ids.
type Palette struct {
	Air     uint16
	Bedrock uint16
	Stone   uint16
	Dirt    uint16
	Grass   uint16
	Sand    uint16
	Gravel  uint16
	Water   uint16
	Log     uint16
	Leaves  uint16
}

type Generator struct {
	p     Params
	pal   Palette
	noise *perlin.Perlin
}

func DefaultParams(seed int64) Params {
	return Params{
		Seed:             seed,
		BaseY:            64,
		Amplitude:        10,
		WaterLevel:       60,
		NoiseScale:       0.03,
		BiomeRegionSize:  64,
		SpawnClearRadius: 8,
		TreePermille:     20,
		GravelPermille:   200,
	}
}

func New(p Params, pal Palette) *Generator {
	if p.NoiseScale <= 0 {
		p.NoiseScale = 0.03
	}
	return &Generator{
		p:     p,
		pal:   pal,
		noise: perlin.NewPerlin(2, 2, 3, p.Seed),
	}
}

func (g *Generator) Params() Params { return g.p }

// SurfaceY is the y of the topmost solid block of the column.
func (g *Generator) SurfaceY(x, z int) int {
	if WithinSpawnClear(x, z, g.p.SpawnClearRadius) {
		return g.p.BaseY
	}
	n := g.noise.Noise2D(float64(x)*g.p.NoiseScale, float64(z)*g.p.NoiseScale)
	// Noise2D is roughly in [-1,1].
	return g.p.BaseY + int(n*float64(g.p.Amplitude))
}

func (g *Generator) BiomeAt(x, z int) Biome {
	size := g.p.BiomeRegionSize
	if size <= 0 {
		size = 1
	}
	switch mathx.Hash2(g.p.Seed, mathx.FloorDiv(x, size), mathx.FloorDiv(z, size)) % 3 {
	case 0:
		return BiomePlains
	case 1:
		return BiomeForest
	default:
		return BiomeDesert
	}
}

// Column fills out[i] with the block at y = minY+i.
func (g *Generator) Column(x, z, minY int, out []uint16) {
	surface := g.SurfaceY(x, z)
	biome := g.BiomeAt(x, z)
	top := g.pal.Grass
	filler := g.pal.Dirt
	if biome == BiomeDesert {
		top, filler = g.pal.Sand, g.pal.Sand
	}
	if surface < g.p.WaterLevel {
		top = g.pal.Sand
		if InCluster(g.p.Seed+204, x, z, 24, 3, uint64(mathx.Clamp(float64(g.p.GravelPermille), 0, 1000))) {
			top = g.pal.Gravel
		}
	}

	tree := biome != BiomeDesert && surface >= g.p.WaterLevel && !WithinSpawnClear(x, z, g.p.SpawnClearRadius) &&
		int(mathx.Hash2(g.p.Seed+999, x, z)%1000) < treePermille(g.p.TreePermille, biome)

	for i := range out {
		y := minY + i
		b := g.pal.Air
		switch {
		case y == minY:
			b = g.pal.Bedrock
		case y < surface-3:
			b = g.pal.Stone
		case y < surface:
			b = filler
		case y == surface:
			b = top
		case y <= g.p.WaterLevel:
			b = g.pal.Water
		case tree && y <= surface+4:
			b = g.pal.Log
		case tree && y == surface+5:
			b = g.pal.Leaves
		}
		out[i] = b
	}
}

func treePermille(base int, b Biome) int {
	if b == BiomeForest {
		return base * 4
	}
	return base
}

func WithinSpawnClear(x, z, radius int) bool {
	if radius <= 0 {
		return false
	}
	r := int64(radius)
	dx := int64(x)
	dz := int64(z)
	return dx*dx+dz*dz <= r*r
}

// InCluster reports whether (x,z) lies within radius of a cluster centre
// placed pseudo-randomly in each grid cell with the given probability.
func InCluster(seed int64, x, z, grid, radius int, probPermille uint64) bool {
	if grid <= 0 || radius <= 0 || probPermille == 0 {
		return false
	}
	gx := mathx.FloorDiv(x, grid)
	gz := mathx.FloorDiv(z, grid)
	r2 := radius * radius

	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			cgx := gx + dx
			cgz := gz + dz
			h := mathx.Hash2(seed, cgx, cgz)
			if h%1000 >= probPermille {
				continue
			}
			cx := cgx*grid + int((h>>10)%uint64(grid))
			cz := cgz*grid + int((h>>20)%uint64(grid))
			ddx := x - cx
			ddz := z - cz
			if ddx*ddx+ddz*ddz <= r2 {
				return true
			}
		}
	}
	return false
}

// CatalogPalette resolves the terrain roles against a block catalog.
func CatalogPalette(cat *catalogs.Catalogs) Palette {
	return Palette{
		Air:     cat.MustBlockID("air"),
		Bedrock: cat.MustBlockID("bedrock"),
		Stone:   cat.MustBlockID("stone"),
		Dirt:    cat.MustBlockID("dirt"),
		Grass:   cat.MustBlockID("grass_block"),
		Sand:    cat.MustBlockID("sand"),
		Gravel:  cat.MustBlockID("gravel"),
		Water:   cat.MustBlockID("water"),
		Log:     cat.MustBlockID("oak_log"),
		Leaves:  cat.MustBlockID("oak_leaves"),
	}
}

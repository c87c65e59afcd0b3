package store

import (
	"fmt"
	"sort"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/mathx"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

func (s *ChunkStore) MinY() int   { return s.minY }
func (s *ChunkStore) Height() int { return s.height }

func (s *ChunkStore) InBounds(y int) bool {
	return y >= s.minY && y < s.minY+s.height
}

func (s *ChunkStore) LoadedChunkKeys() []ChunkKey {
	keys := make([]ChunkKey, 0, len(s.Chunks))
	for k := range s.Chunks {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].CX != keys[j].CX {
			return keys[i].CX < keys[j].CX
		}
		return keys[i].CZ < keys[j].CZ
	})
	return keys
}

func (s *ChunkStore) IsLoaded(cx, cz int) bool {
	_, ok := s.Chunks[ChunkKey{CX: cx, CZ: cz}]
	return ok
}

// BlockAt implements model.World. Positions in unloaded chunks or outside the
// vertical range report false.
func (s *ChunkStore) BlockAt(p model.Vec3i) (model.Block, bool) {
	if !s.InBounds(p.Y) {
		return model.Block{}, false
	}
	ch := s.chunk(p.X, p.Z, s.Gen != nil && !s.Streaming)
	if ch == nil {
		return model.Block{}, false
	}
	i := ch.index(mathx.Mod(p.X, ChunkSize), p.Y-s.minY, mathx.Mod(p.Z, ChunkSize))
	return s.Cat.BlockView(ch.Blocks[i], p, ch.props[i])
}

// SetBlock places a named block, loading the chunk if needed.
func (s *ChunkStore) SetBlock(p model.Vec3i, name string, props map[string]string) error {
	id, ok := s.Cat.BlockID(name)
	if !ok {
		return fmt.Errorf("set block %s: unknown block %q", p, name)
	}
	return s.SetBlockID(p, id, props)
}

func (s *ChunkStore) SetBlockID(p model.Vec3i, id uint16, props map[string]string) error {
	if !s.InBounds(p.Y) {
		return fmt.Errorf("set block %s: y out of range [%d,%d)", p, s.minY, s.minY+s.height)
	}
	ch := s.chunk(p.X, p.Z, true)
	i := ch.index(mathx.Mod(p.X, ChunkSize), p.Y-s.minY, mathx.Mod(p.Z, ChunkSize))

	var old model.Block
	if s.OnBlockChange != nil {
		old, _ = s.Cat.BlockView(ch.Blocks[i], p, ch.props[i])
	}
	ch.Blocks[i] = id
	if len(props) > 0 {
		if ch.props == nil {
			ch.props = map[int]map[string]string{}
		}
		cp := make(map[string]string, len(props))
		for k, v := range props {
			cp[k] = v
		}
		ch.props[i] = cp
	} else {
		delete(ch.props, i)
	}
	ch.dirty = true
	if s.OnBlockChange != nil {
		nb, _ := s.Cat.BlockView(id, p, ch.props[i])
		s.OnBlockChange(old, nb)
	}
	return nil
}

// SetProp updates one property of an existing block, e.g. opening a gate.
func (s *ChunkStore) SetProp(p model.Vec3i, key, value string) error {
	b, ok := s.BlockAt(p)
	if !ok {
		return fmt.Errorf("set prop %s: not loaded", p)
	}
	props := map[string]string{}
	for k, v := range b.Properties {
		props[k] = v
	}
	props[key] = value
	return s.SetBlockID(p, b.ID, props)
}

// Fill sets every block in the inclusive box.
func (s *ChunkStore) Fill(from, to model.Vec3i, name string) error {
	lo := model.V(mathx.MinInt(from.X, to.X), mathx.MinInt(from.Y, to.Y), mathx.MinInt(from.Z, to.Z))
	hi := model.V(mathx.MaxInt(from.X, to.X), mathx.MaxInt(from.Y, to.Y), mathx.MaxInt(from.Z, to.Z))
	for y := lo.Y; y <= hi.Y; y++ {
		for z := lo.Z; z <= hi.Z; z++ {
			for x := lo.X; x <= hi.X; x++ {
				if err := s.SetBlock(model.V(x, y, z), name, nil); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// LoadChunk makes a chunk available and reports whether it was newly loaded.
func (s *ChunkStore) LoadChunk(cx, cz int) bool {
	if s.IsLoaded(cx, cz) {
		return false
	}
	s.chunk(cx*ChunkSize, cz*ChunkSize, true)
	return true
}

func (s *ChunkStore) UnloadChunk(cx, cz int) {
	delete(s.Chunks, ChunkKey{CX: cx, CZ: cz})
}

func (s *ChunkStore) chunk(x, z int, create bool) *Chunk {
	k := ChunkKey{CX: mathx.FloorDiv(x, ChunkSize), CZ: mathx.FloorDiv(z, ChunkSize)}
	if ch, ok := s.Chunks[k]; ok {
		return ch
	}
	if !create {
		return nil
	}
	ch := &Chunk{
		CX:     k.CX,
		CZ:     k.CZ,
		Blocks: make([]uint16, ChunkSize*ChunkSize*s.height),
	}
	s.generate(ch)
	ch.dirty = true
	_ = ch.Digest()
	s.Chunks[k] = ch
	if s.OnChunkLoad != nil {
		s.OnChunkLoad(k.CX, k.CZ)
	}
	return ch
}

func (s *ChunkStore) generate(ch *Chunk) {
	if s.Gen == nil {
		return
	}
	col := make([]uint16, s.height)
	for lz := 0; lz < ChunkSize; lz++ {
		for lx := 0; lx < ChunkSize; lx++ {
			s.Gen.Column(ch.CX*ChunkSize+lx, ch.CZ*ChunkSize+lz, s.minY, col)
			for ly, b := range col {
				ch.Blocks[ch.index(lx, ly, lz)] = b
			}
		}
	}
}

package store

import "fmt"

// Props returns a copy of the chunk's per-voxel properties keyed by block index.
func (c *Chunk) Props() map[int]map[string]string {
	out := make(map[int]map[string]string, len(c.props))
	for i, p := range c.props {
		cp := make(map[string]string, len(p))
		for k, v := range p {
			cp[k] = v
		}
		out[i] = cp
	}
	return out
}

// PutChunk installs a chunk's full content, replacing any loaded copy. It
// fires OnChunkLoad like any other load.
func (s *ChunkStore) PutChunk(cx, cz int, blocks []uint16, props map[int]map[string]string) error {
	if want := ChunkSize * ChunkSize * s.height; len(blocks) != want {
		return fmt.Errorf("put chunk %d,%d: %d blocks, want %d", cx, cz, len(blocks), want)
	}
	for i, id := range blocks {
		if int(id) >= len(s.Cat.Blocks.Palette) {
			return fmt.Errorf("put chunk %d,%d: block %d has unknown id %d", cx, cz, i, id)
		}
	}
	ch := &Chunk{
		CX:     cx,
		CZ:     cz,
		Blocks: append([]uint16(nil), blocks...),
		dirty:  true,
	}
	if len(props) > 0 {
		ch.props = map[int]map[string]string{}
		for i, p := range props {
			if i < 0 || i >= len(blocks) {
				return fmt.Errorf("put chunk %d,%d: prop index %d out of range", cx, cz, i)
			}
			cp := make(map[string]string, len(p))
			for k, v := range p {
				cp[k] = v
			}
			ch.props[i] = cp
		}
	}
	_ = ch.Digest()
	s.Chunks[ChunkKey{CX: cx, CZ: cz}] = ch
	if s.OnChunkLoad != nil {
		s.OnChunkLoad(cx, cz)
	}
	return nil
}

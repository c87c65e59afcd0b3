// Package store is an in-memory chunked voxel world. It implements
// model.World for the pathfinder and exposes mutation hooks so the
// controller can react to block changes and chunk loads.
package store

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"
	"strings"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/catalogs"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

const ChunkSize = 16

type ChunkKey struct {
	CX int
	CZ int
}

type Chunk struct {
	CX, CZ int
	Blocks []uint16 // len = 16*16*height, index x + z*16 + (y-minY)*256

	props map[int]map[string]string
	dirty bool
	hash  [32]byte
}

// ColumnGen fills chunks on demand.
type ColumnGen interface {
	Column(x, z, minY int, out []uint16)
}

type ChunkStore struct {
	Cat    *catalogs.Catalogs
	Gen    ColumnGen
	Chunks map[ChunkKey]*Chunk

	minY, height int

	// Streaming keeps reads from generating chunks; only LoadChunk and
	// writes bring them in, the way a client receives chunks from a server.
	Streaming bool

	// OnBlockChange fires after a block changes. OnChunkLoad fires after a
	// chunk becomes available, whether generated or set explicitly.
	OnBlockChange func(old, new model.Block)
	OnChunkLoad   func(cx, cz int)
}

// NewChunkStore creates a store spanning [minY, minY+height). With a nil gen
// chunks stay unloaded until a block is set in them or LoadChunk is called.
func NewChunkStore(cat *catalogs.Catalogs, minY, height int, gen ColumnGen) *ChunkStore {
	if height <= 0 {
		height = 256
	}
	return &ChunkStore{
		Cat:    cat,
		Gen:    gen,
		Chunks: map[ChunkKey]*Chunk{},
		minY:   minY,
		height: height,
	}
}

func (c *Chunk) index(lx, ly, lz int) int {
	return lx + lz*ChunkSize + ly*ChunkSize*ChunkSize
}

func (c *Chunk) Digest() [32]byte {
	if c.dirty || c.hash == ([32]byte{}) {
		h := sha256.New()
		var tmp [2]byte
		var tmp4 [4]byte
		for _, v := range c.Blocks {
			binary.LittleEndian.PutUint16(tmp[:], v)
			h.Write(tmp[:])
		}
		idx := make([]int, 0, len(c.props))
		for i := range c.props {
			idx = append(idx, i)
		}
		sort.Ints(idx)
		for _, i := range idx {
			binary.LittleEndian.PutUint32(tmp4[:], uint32(i))
			h.Write(tmp4[:])
			h.Write([]byte(encodeProps(c.props[i])))
		}
		copy(c.hash[:], h.Sum(nil))
		c.dirty = false
	}
	return c.hash
}

func encodeProps(p map[string]string) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		sb.WriteString(k)
		sb.WriteByte('=')
		sb.WriteString(p[k])
		sb.WriteByte(';')
	}
	return sb.String()
}

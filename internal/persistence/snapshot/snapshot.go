// Package snapshot saves and restores a simulated world: every loaded chunk
// plus the agent, so a run can resume with its edits in place.
package snapshot

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/klauspost/compress/zstd"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/encoding"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/terrain/store"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	Session string `json:"session"`
	Tick    uint64 `json:"tick"`
}

type SnapshotV1 struct {
	Header Header `json:"header"`

	Seed          int64  `json:"seed"`
	MinY          int    `json:"min_y"`
	Height        int    `json:"height"`
	PaletteDigest string `json:"palette_digest"`

	Chunks []ChunkV1 `json:"chunks"`
	Agent  AgentV1   `json:"agent"`
}

type ChunkV1 struct {
	CX int `json:"cx"`
	CZ int `json:"cz"`
	// Blocks is the RLE-packed palette id array.
	Blocks []byte                    `json:"blocks"`
	Props  map[int]map[string]string `json:"props,omitempty"`
}

type AgentV1 struct {
	Pos   [3]float64   `json:"pos"`
	Yaw   float64      `json:"yaw"`
	Pitch float64      `json:"pitch"`
	Items []model.Item `json:"items,omitempty"`
	Held  string       `json:"held,omitempty"`
}

// Capture copies every loaded chunk of w in key order.
func Capture(w *store.ChunkStore, hdr Header, seed int64, agent AgentV1) SnapshotV1 {
	hdr.Version = Version
	snap := SnapshotV1{
		Header:        hdr,
		Seed:          seed,
		MinY:          w.MinY(),
		Height:        w.Height(),
		PaletteDigest: w.Cat.Blocks.PaletteDigest,
		Agent:         agent,
	}
	for _, k := range w.LoadedChunkKeys() {
		ch := w.Chunks[k]
		c := ChunkV1{CX: k.CX, CZ: k.CZ, Blocks: encoding.EncodeRLE(ch.Blocks)}
		if p := ch.Props(); len(p) > 0 {
			c.Props = p
		}
		snap.Chunks = append(snap.Chunks, c)
	}
	return snap
}

// Restore installs the captured chunks into w. The store must use the same
// block palette and vertical range as the one captured.
func Restore(w *store.ChunkStore, snap SnapshotV1) error {
	if snap.Header.Version != Version {
		return fmt.Errorf("snapshot: version %d, want %d", snap.Header.Version, Version)
	}
	if snap.PaletteDigest != w.Cat.Blocks.PaletteDigest {
		return fmt.Errorf("snapshot: block palette %s does not match catalog %s", short(snap.PaletteDigest), short(w.Cat.Blocks.PaletteDigest))
	}
	if snap.MinY != w.MinY() || snap.Height != w.Height() {
		return fmt.Errorf("snapshot: range [%d,+%d) does not match store [%d,+%d)", snap.MinY, snap.Height, w.MinY(), w.Height())
	}
	n := store.ChunkSize * store.ChunkSize * snap.Height
	chunks := append([]ChunkV1(nil), snap.Chunks...)
	sort.Slice(chunks, func(i, j int) bool {
		if chunks[i].CX != chunks[j].CX {
			return chunks[i].CX < chunks[j].CX
		}
		return chunks[i].CZ < chunks[j].CZ
	})
	for _, c := range chunks {
		ids, err := encoding.DecodeRLE(c.Blocks, n)
		if err != nil {
			return fmt.Errorf("snapshot: chunk %d,%d: %w", c.CX, c.CZ, err)
		}
		if err := w.PutChunk(c.CX, c.CZ, ids, c.Props); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	return nil
}

func short(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

func WriteSnapshot(path string, snap SnapshotV1) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)
	hb, _ := json.Marshal(snap.Header)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if err := gob.NewEncoder(bw).Encode(&snap); err != nil {
		return fmt.Errorf("gob encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Sync()
}

// ReadHeader decodes only the leading JSON header line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("read header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("decode header: %w", err)
	}
	return h, nil
}

func ReadSnapshot(path string) (SnapshotV1, error) {
	var snap SnapshotV1
	f, err := os.Open(path)
	if err != nil {
		return snap, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return snap, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	// The gob body repeats the header.
	if _, err := br.ReadBytes('\n'); err != nil {
		return snap, fmt.Errorf("read header: %w", err)
	}
	if err := gob.NewDecoder(br).Decode(&snap); err != nil {
		return snap, fmt.Errorf("gob decode: %w", err)
	}
	return snap, nil
}

package snapshot

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/catalogs"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/terrain/store"
)

func newStore(t *testing.T) *store.ChunkStore {
	t.Helper()
	cat, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	return store.NewChunkStore(cat, 0, 128, nil)
}

func TestSnapshot_WriteReadRestore(t *testing.T) {
	src := newStore(t)
	if err := src.Fill(model.V(-3, 63, -3), model.V(20, 63, 3), "stone"); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if err := src.SetBlock(model.V(1, 64, 0), "dirt", nil); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := src.SetBlock(model.V(2, 64, 0), "oak_fence_gate", map[string]string{"open": "true"}); err != nil {
		t.Fatalf("set gate: %v", err)
	}

	agent := AgentV1{Pos: [3]float64{0.5, 64, 0.5}, Items: []model.Item{{Name: "dirt", Count: 12}}, Held: "dirt"}
	snap := Capture(src, Header{Session: "s1", Tick: 99}, 1337, agent)
	if snap.Header.Version != Version || len(snap.Chunks) != len(src.LoadedChunkKeys()) {
		t.Fatalf("captured header=%+v chunks=%d", snap.Header, len(snap.Chunks))
	}

	path := filepath.Join(t.TempDir(), "snapshots", "99.snap.zst")
	if err := WriteSnapshot(path, snap); err != nil {
		t.Fatalf("write: %v", err)
	}
	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if h.Session != "s1" || h.Tick != 99 {
		t.Fatalf("header=%+v", h)
	}
	got, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Seed != 1337 || got.Agent.Held != "dirt" || len(got.Agent.Items) != 1 {
		t.Fatalf("snapshot=%+v", got.Agent)
	}

	dst := newStore(t)
	var loads int
	dst.OnChunkLoad = func(cx, cz int) { loads++ }
	if err := Restore(dst, got); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if loads != len(got.Chunks) {
		t.Fatalf("loads=%d want %d", loads, len(got.Chunks))
	}
	for _, p := range []model.Vec3i{model.V(1, 64, 0), model.V(20, 63, 3), model.V(-3, 63, -3), model.V(5, 64, 2)} {
		a, _ := src.BlockAt(p)
		b, ok := dst.BlockAt(p)
		if !ok || a.Name != b.Name {
			t.Fatalf("%s: src=%s dst=%s ok=%v", p, a.Name, b.Name, ok)
		}
	}
	gate, _ := dst.BlockAt(model.V(2, 64, 0))
	if !gate.IsOpen() {
		t.Fatalf("gate props lost: %+v", gate.Properties)
	}
	for _, k := range src.LoadedChunkKeys() {
		if src.Chunks[k].Digest() != dst.Chunks[k].Digest() {
			t.Fatalf("chunk %v digest differs", k)
		}
	}
}

func TestRestore_RejectsMismatchedStore(t *testing.T) {
	src := newStore(t)
	if err := src.SetBlock(model.V(0, 63, 0), "stone", nil); err != nil {
		t.Fatalf("set: %v", err)
	}
	snap := Capture(src, Header{}, 1, AgentV1{})

	cat, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	taller := store.NewChunkStore(cat, 0, 256, nil)
	if err := Restore(taller, snap); err == nil || !strings.Contains(err.Error(), "range") {
		t.Fatalf("err=%v want range mismatch", err)
	}

	bad := snap
	bad.PaletteDigest = "deadbeef"
	if err := Restore(newStore(t), bad); err == nil || !strings.Contains(err.Error(), "palette") {
		t.Fatalf("err=%v want palette mismatch", err)
	}
}

package catalogs

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/BBpezsgo/mineflayer-pathfinder/internal/sim/model"
)

func TestDefault_AirFirstAndDigests(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.Blocks.Palette[0] != "air" {
		t.Fatalf("palette[0]=%q want air", c.Blocks.Palette[0])
	}
	if c.Blocks.PaletteDigest == "" || c.Blocks.DefsDigest == "" || c.Items.DefsDigest == "" {
		t.Fatalf("missing digests")
	}
	for _, name := range []string{"stone", "dirt", "water", "lava", "ladder", "oak_fence_gate", "chest", "bedrock"} {
		if _, ok := c.BlockID(name); !ok {
			t.Fatalf("missing block %s", name)
		}
	}
}

func TestDigTime(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	view := func(name string) model.Block {
		b, ok := c.BlockView(c.MustBlockID(name), model.V(0, 0, 0), nil)
		if !ok {
			t.Fatalf("BlockView(%s)", name)
		}
		return b
	}

	if got := c.DigTimeMS(view("bedrock"), nil); !math.IsInf(got, 1) {
		t.Fatalf("bedrock dig time=%v want +Inf", got)
	}
	if got := c.DigTimeMS(view("short_grass"), nil); got != 0 {
		t.Fatalf("grass dig time=%v want 0", got)
	}

	hand := c.DigTimeMS(view("stone"), nil)
	pick := c.DigTimeMS(view("stone"), &model.Item{Name: "iron_pickaxe", Count: 1})
	if !(pick < hand) {
		t.Fatalf("pickaxe %v should beat hand %v", pick, hand)
	}
	// 1.5 hardness, no harvest tool: ceil(1/(1/1.5/100)) = 150 ticks.
	if hand != 150*50 {
		t.Fatalf("stone by hand=%v want %v", hand, 150*50)
	}
	eff := c.DigTimeMS(view("stone"), &model.Item{Name: "iron_pickaxe", Count: 1, Efficiency: 3})
	if !(eff < pick) {
		t.Fatalf("efficiency %v should beat plain %v", eff, pick)
	}
}

func TestBlockView_OpenGateHasNoShapes(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	id := c.MustBlockID("oak_fence_gate")
	closed, _ := c.BlockView(id, model.V(1, 2, 3), nil)
	open, _ := c.BlockView(id, model.V(1, 2, 3), map[string]string{"open": "true"})
	if len(closed.Shapes) == 0 || len(open.Shapes) != 0 {
		t.Fatalf("closed=%v open=%v", closed.Shapes, open.Shapes)
	}
	if !open.IsOpen() || closed.IsOpen() {
		t.Fatalf("IsOpen mismatch")
	}
}

func TestLoad_RejectsInvalidCatalog(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "blocks.json"), []byte(`[{"name":"stone","bounding_box":"cube"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "items.json"), []byte(`[{"name":"dirt","kind":"block"}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestLoad_RequiresAir(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "blocks.json"), []byte(`[{"name":"stone","bounding_box":"block"}]`), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "items.json"), []byte(`[{"name":"dirt","kind":"block"}]`), 0o644)
	if _, err := Load(dir); err == nil {
		t.Fatalf("expected missing air error")
	}
}

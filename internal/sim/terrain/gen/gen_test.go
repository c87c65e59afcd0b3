package gen

import "testing"

func testPalette() Palette {
	return Palette{Air: 0, Bedrock: 1, Stone: 2, Dirt: 3, Grass: 4, Sand: 5, Gravel: 6, Water: 7, Log: 8, Leaves: 9}
}

func TestColumn_Deterministic(t *testing.T) {
	a := New(DefaultParams(42), testPalette())
	b := New(DefaultParams(42), testPalette())
	colA := make([]uint16, 128)
	colB := make([]uint16, 128)
	for _, xz := range [][2]int{{0, 0}, {100, -37}, {-250, 999}} {
		a.Column(xz[0], xz[1], 0, colA)
		b.Column(xz[0], xz[1], 0, colB)
		for i := range colA {
			if colA[i] != colB[i] {
				t.Fatalf("column %v differs at y=%d: %d vs %d", xz, i, colA[i], colB[i])
			}
		}
	}
}

func TestColumn_SpawnIsFlat(t *testing.T) {
	p := DefaultParams(7)
	g := New(p, testPalette())
	col := make([]uint16, 128)
	for x := -3; x <= 3; x++ {
		if got := g.SurfaceY(x, 0); got != p.BaseY {
			t.Fatalf("surface at %d,0 = %d want %d", x, got, p.BaseY)
		}
		g.Column(x, 0, 0, col)
		if col[0] != testPalette().Bedrock {
			t.Fatalf("expected bedrock floor, got %d", col[0])
		}
		if col[p.BaseY+1] != testPalette().Air {
			t.Fatalf("expected air above spawn surface, got %d", col[p.BaseY+1])
		}
		if col[p.BaseY] == testPalette().Air {
			t.Fatalf("expected solid surface at spawn")
		}
	}
}

func TestInCluster_ZeroProbability(t *testing.T) {
	for x := -50; x < 50; x += 7 {
		if InCluster(1, x, x, 16, 3, 0) {
			t.Fatalf("zero probability produced a cluster at %d", x)
		}
	}
}

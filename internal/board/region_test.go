package board

import (
	"encoding/json"
	"testing"
)

// stripedFull builds a full board whose largest region is exactly 3 for both
// colors: rows alternate between RRRBB and BBBRR, so every run is capped at 3
// and no vertical merge happens.
func stripedFull() Grid {
	var g Grid
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			lead, tail := Red, Blue
			if r%2 == 1 {
				lead, tail = Blue, Red
			}
			if c < 3 {
				g[r][c] = lead
			} else {
				g[r][c] = tail
			}
		}
	}
	return g
}

func TestLargestRegionEmptyGrid(t *testing.T) {
	var g Grid
	if got := LargestRegion(g, Red); got != 0 {
		t.Fatalf("empty grid red area = %d, want 0", got)
	}
	if got := LargestRegion(g, Blue); got != 0 {
		t.Fatalf("empty grid blue area = %d, want 0", got)
	}
}

func TestLargestRegionFullBoardDraw(t *testing.T) {
	g := stripedFull()
	if got := LargestRegion(g, Red); got != 3 {
		t.Fatalf("red area = %d, want 3", got)
	}
	if got := LargestRegion(g, Blue); got != 3 {
		t.Fatalf("blue area = %d, want 3", got)
	}
}

func TestLargestRegionIsolatedCellDoesNotMerge(t *testing.T) {
	var g Grid
	// 2x2 red block plus one isolated red cell.
	g[0][0], g[0][1], g[1][0], g[1][1] = Red, Red, Red, Red
	g[4][4] = Red
	// Straight blue line of 5.
	for c := 0; c < Size; c++ {
		g[3][c] = Blue
	}
	if got := LargestRegion(g, Red); got != 4 {
		t.Fatalf("red area = %d, want 4 (isolated cell must not merge)", got)
	}
	if got := LargestRegion(g, Blue); got != 5 {
		t.Fatalf("blue area = %d, want 5", got)
	}
}

func TestLargestRegionIdempotentAndPure(t *testing.T) {
	g := stripedFull()
	before := g
	first := LargestRegion(g, Red)
	for i := 0; i < 5; i++ {
		if got := LargestRegion(g, Red); got != first {
			t.Fatalf("call %d returned %d, first call returned %d", i, got, first)
		}
	}
	if g != before {
		t.Fatalf("grid mutated by LargestRegion")
	}
}

func TestAreaSumBounded(t *testing.T) {
	grids := []Grid{{}, stripedFull()}
	var partial Grid
	partial[0][0], partial[2][2], partial[2][3] = Red, Blue, Blue
	grids = append(grids, partial)

	for i, g := range grids {
		sum := LargestRegion(g, Red) + LargestRegion(g, Blue)
		if sum > Size*Size {
			t.Fatalf("grid %d: area sum %d exceeds %d", i, sum, Size*Size)
		}
		if g.Full() && sum > Size*Size-g.EmptyCount() {
			t.Fatalf("grid %d: area sum %d exceeds claimed cells", i, sum)
		}
	}
}

func TestGridJSONRoundTrip(t *testing.T) {
	var g Grid
	g[0][0] = Red
	g[4][4] = Blue
	raw, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	// Empty cells must serialize as nulls, not empty strings.
	var generic [][]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal generic: %v", err)
	}
	if generic[0][1] != nil {
		t.Fatalf("empty cell serialized as %v, want null", generic[0][1])
	}
	if generic[0][0] != "red" || generic[4][4] != "blue" {
		t.Fatalf("claimed cells serialized as %v / %v", generic[0][0], generic[4][4])
	}

	var back Grid
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal grid: %v", err)
	}
	if back != g {
		t.Fatalf("round trip mismatch: %v vs %v", back, g)
	}
}

func TestGridUnmarshalRejectsUnknownColor(t *testing.T) {
	raw := []byte(`[["green",null,null,null,null]]`)
	var g Grid
	if err := json.Unmarshal(raw, &g); err == nil {
		t.Fatalf("expected error for unknown color")
	}
}

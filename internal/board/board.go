package board

import (
	"encoding/json"
	"fmt"
)

// Size is the board edge length. The game is played on a fixed 5x5 grid.
const Size = 5

// Cell holds the claiming color of one grid cell, or Empty.
type Cell string

const (
	Empty Cell = ""
	Red   Cell = "red"
	Blue  Cell = "blue"
)

// Grid is the full board state, row-major.
type Grid [Size][Size]Cell

// InBounds reports whether (row, col) addresses a cell on the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// Full reports whether every cell has been claimed.
func (g *Grid) Full() bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g[r][c] == Empty {
				return false
			}
		}
	}
	return true
}

// EmptyCount returns the number of unclaimed cells.
func (g *Grid) EmptyCount() int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g[r][c] == Empty {
				n++
			}
		}
	}
	return n
}

// MarshalJSON serializes the grid as a 5x5 matrix of null | "red" | "blue",
// the shape clients consume.
func (g Grid) MarshalJSON() ([]byte, error) {
	out := make([][]*Cell, Size)
	for r := 0; r < Size; r++ {
		out[r] = make([]*Cell, Size)
		for c := 0; c < Size; c++ {
			if g[r][c] != Empty {
				cell := g[r][c]
				out[r][c] = &cell
			}
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts the wire shape produced by MarshalJSON. Missing rows
// or cells are treated as empty; oversized input is rejected.
func (g *Grid) UnmarshalJSON(data []byte) error {
	var in [][]*Cell
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if len(in) > Size {
		return fmt.Errorf("grid has %d rows, want at most %d", len(in), Size)
	}
	var out Grid
	for r := range in {
		if len(in[r]) > Size {
			return fmt.Errorf("grid row %d has %d cells, want at most %d", r, len(in[r]), Size)
		}
		for c := range in[r] {
			if in[r][c] == nil {
				continue
			}
			switch *in[r][c] {
			case Red, Blue:
				out[r][c] = *in[r][c]
			default:
				return fmt.Errorf("grid cell (%d,%d) has unknown color %q", r, c, *in[r][c])
			}
		}
	}
	*g = out
	return nil
}

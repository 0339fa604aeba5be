package board

// LargestRegion returns the size of the largest 4-connected region of cells
// claimed by color, or 0 when the color holds no cells. Each cell is visited
// at most once per call; the grid is never mutated.
func LargestRegion(g Grid, color Cell) int {
	if color == Empty {
		return 0
	}
	var visited [Size][Size]bool
	best := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if g[r][c] != color || visited[r][c] {
				continue
			}
			if area := fill(&g, &visited, color, r, c); area > best {
				best = area
			}
		}
	}
	return best
}

type point struct{ r, c int }

// fill flood-fills the region containing (r, c) and returns its size.
func fill(g *Grid, visited *[Size][Size]bool, color Cell, r, c int) int {
	stack := []point{{r, c}}
	visited[r][c] = true
	area := 0
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		area++
		for _, n := range [4]point{{p.r + 1, p.c}, {p.r - 1, p.c}, {p.r, p.c + 1}, {p.r, p.c - 1}} {
			if !InBounds(n.r, n.c) || visited[n.r][n.c] || g[n.r][n.c] != color {
				continue
			}
			visited[n.r][n.c] = true
			stack = append(stack, n)
		}
	}
	return area
}

package mesh

import (
	"endless-chess/internal/board"
)

// VoidRect is an axis-aligned run of void squares, bounds inclusive.
type VoidRect struct {
	Left, Right, Bottom, Top int64
}

// Squares returns the number of board squares the rectangle covers.
func (r VoidRect) Squares() int64 {
	return (r.Right - r.Left + 1) * (r.Top - r.Bottom + 1)
}

// Contains reports whether the square lies inside the rectangle.
func (r VoidRect) Contains(c board.Coord) bool {
	return c.X >= r.Left && c.X <= r.Right && c.Y >= r.Bottom && c.Y <= r.Top
}

// MergeVoidSquares converts void squares into disjoint rectangles whose
// union equals the input exactly, each square covered once. Each unmerged
// square seeds a 1x1 rectangle that greedily grows one full column or row at
// a time, trying directions in the fixed order left, right, bottom, top and
// rescanning until none grows. Greedy, not minimal: the minimum rectangle
// cover is NP-hard. Output is deterministic for a given input order.
func MergeVoidSquares(squares []board.Coord) []VoidRect {
	if len(squares) == 0 {
		return nil
	}
	present := make(map[board.Coord]struct{}, len(squares))
	for _, c := range squares {
		present[c] = struct{}{}
	}
	merged := make(map[board.Coord]struct{}, len(squares))

	spanFree := func(x0, x1, y0, y1 int64) bool {
		for x := x0; x <= x1; x++ {
			for y := y0; y <= y1; y++ {
				c := board.Coord{X: x, Y: y}
				if _, ok := present[c]; !ok {
					return false
				}
				if _, ok := merged[c]; ok {
					return false
				}
			}
		}
		return true
	}

	var rects []VoidRect
	for _, seed := range squares {
		if _, done := merged[seed]; done {
			continue
		}
		r := VoidRect{Left: seed.X, Right: seed.X, Bottom: seed.Y, Top: seed.Y}
		for grew := true; grew; {
			grew = false
			if spanFree(r.Left-1, r.Left-1, r.Bottom, r.Top) {
				r.Left--
				grew = true
			}
			if spanFree(r.Right+1, r.Right+1, r.Bottom, r.Top) {
				r.Right++
				grew = true
			}
			if spanFree(r.Left, r.Right, r.Bottom-1, r.Bottom-1) {
				r.Bottom--
				grew = true
			}
			if spanFree(r.Left, r.Right, r.Top+1, r.Top+1) {
				r.Top++
				grew = true
			}
		}
		for x := r.Left; x <= r.Right; x++ {
			for y := r.Bottom; y <= r.Top; y++ {
				merged[board.Coord{X: x, Y: y}] = struct{}{}
			}
		}
		rects = append(rects, r)
	}
	return rects
}

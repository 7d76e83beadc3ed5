package mesh

import (
	"testing"

	"endless-chess/internal/board"
)

func TestMergeEmptyInput(t *testing.T) {
	if rects := MergeVoidSquares(nil); rects != nil {
		t.Fatalf("empty input: got %v, want nil", rects)
	}
}

func TestMergeSingleSquare(t *testing.T) {
	rects := MergeVoidSquares([]board.Coord{{X: 5, Y: -3}})
	if len(rects) != 1 {
		t.Fatalf("rect count: got %d, want 1", len(rects))
	}
	want := VoidRect{Left: 5, Right: 5, Bottom: -3, Top: -3}
	if rects[0] != want {
		t.Fatalf("rect: got %+v, want %+v", rects[0], want)
	}
}

func TestMergeTwoByTwoBlock(t *testing.T) {
	squares := []board.Coord{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}
	rects := MergeVoidSquares(squares)
	if len(rects) != 1 {
		t.Fatalf("2x2 block: got %d rects, want 1", len(rects))
	}
	want := VoidRect{Left: 0, Right: 1, Bottom: 0, Top: 1}
	if rects[0] != want {
		t.Fatalf("2x2 block: got %+v, want %+v", rects[0], want)
	}
}

func TestMergeDisjointSquaresStaySeparate(t *testing.T) {
	rects := MergeVoidSquares([]board.Coord{{X: 0, Y: 0}, {X: 2, Y: 0}})
	if len(rects) != 2 {
		t.Fatalf("disjoint squares: got %d rects, want 2", len(rects))
	}
	for _, r := range rects {
		if r.Squares() != 1 {
			t.Fatalf("disjoint square grew: %+v", r)
		}
	}
}

func TestMergeRowBecomesOneRect(t *testing.T) {
	var squares []board.Coord
	for x := int64(-6); x <= 14; x++ {
		squares = append(squares, board.Coord{X: x, Y: -3})
	}
	rects := MergeVoidSquares(squares)
	if len(rects) != 1 {
		t.Fatalf("row: got %d rects, want 1", len(rects))
	}
	want := VoidRect{Left: -6, Right: 14, Bottom: -3, Top: -3}
	if rects[0] != want {
		t.Fatalf("row: got %+v, want %+v", rects[0], want)
	}
}

func TestMergeLShapeCoversExactly(t *testing.T) {
	// 3-wide row with a 2-tall stem; no single rectangle covers it.
	squares := []board.Coord{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0},
		{X: 0, Y: 1}, {X: 0, Y: 2},
	}
	rects := MergeVoidSquares(squares)
	assertExactPartition(t, squares, rects)
	if len(rects) < 2 {
		t.Fatalf("L shape: got %d rects, want at least 2", len(rects))
	}
}

func TestMergeIsDeterministic(t *testing.T) {
	squares := []board.Coord{
		{X: 3, Y: 3}, {X: 4, Y: 3}, {X: 3, Y: 4}, {X: 4, Y: 4}, {X: 5, Y: 4}, {X: 5, Y: 5}, {X: 9, Y: 9},
	}
	first := MergeVoidSquares(squares)
	second := MergeVoidSquares(squares)
	if len(first) != len(second) {
		t.Fatalf("rect counts differ between runs: %d != %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("rect %d differs between runs: %+v != %+v", i, first[i], second[i])
		}
	}
	assertExactPartition(t, squares, first)
}

func TestMergeScatterPartition(t *testing.T) {
	// A messy blob around the origin plus far-away strays.
	var squares []board.Coord
	for x := int64(0); x < 7; x++ {
		for y := int64(0); y < 5; y++ {
			if (x+y)%3 != 0 {
				squares = append(squares, board.Coord{X: x, Y: y})
			}
		}
	}
	squares = append(squares, board.Coord{X: 1_000_000, Y: -1_000_000})
	assertExactPartition(t, squares, MergeVoidSquares(squares))
}

// assertExactPartition checks the rectangles are disjoint and their union is
// exactly the input set.
func assertExactPartition(t *testing.T, squares []board.Coord, rects []VoidRect) {
	t.Helper()
	present := make(map[board.Coord]struct{}, len(squares))
	for _, c := range squares {
		present[c] = struct{}{}
	}
	// Every input square sits in exactly one rectangle.
	for c := range present {
		covering := 0
		for _, r := range rects {
			if r.Contains(c) {
				covering++
			}
		}
		if covering != 1 {
			t.Fatalf("square %v covered by %d rectangles, want 1", c, covering)
		}
	}
	// No rectangle reaches outside the input set, and the areas add up.
	var total int64
	for _, r := range rects {
		total += r.Squares()
		for x := r.Left; x <= r.Right; x++ {
			for y := r.Bottom; y <= r.Top; y++ {
				if _, ok := present[board.Coord{X: x, Y: y}]; !ok {
					t.Fatalf("rect %+v covers non-void square (%d, %d)", r, x, y)
				}
			}
		}
	}
	if int(total) != len(present) {
		t.Fatalf("covered %d squares, want %d", total, len(present))
	}
}

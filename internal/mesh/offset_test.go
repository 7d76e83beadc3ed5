package mesh

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func testPolicy() OffsetPolicy {
	return OffsetPolicy{
		Grid:           10_000,
		RecenterBand:   10_000,
		GlitchDistance: 1_000_000,
	}
}

func TestSnapToNearestGridMultiple(t *testing.T) {
	p := testPolicy()
	cases := []struct {
		focus mgl64.Vec2
		want  mgl64.Vec2
	}{
		{mgl64.Vec2{0, 0}, mgl64.Vec2{0, 0}},
		{mgl64.Vec2{10_523, -5}, mgl64.Vec2{10_000, 0}},
		{mgl64.Vec2{4_999, 5_001}, mgl64.Vec2{0, 10_000}},
		{mgl64.Vec2{-10_523, -14_999}, mgl64.Vec2{-10_000, -10_000}},
		{mgl64.Vec2{25_000, 25_000}, mgl64.Vec2{30_000, 30_000}}, // .5 rounds away from zero
	}
	for _, c := range cases {
		got := p.Snap(c.focus)
		if got != c.want {
			t.Fatalf("Snap(%v): got %v, want %v", c.focus, got, c.want)
		}
	}
}

func TestNeedsRecenterBand(t *testing.T) {
	p := testPolicy()
	offset := mgl64.Vec2{10_000, 0}

	if p.NeedsRecenter(mgl64.Vec2{10_523, -5}, offset) {
		t.Fatalf("focus inside the band must not trigger a recenter")
	}
	if p.NeedsRecenter(mgl64.Vec2{20_000, 0}, offset) {
		t.Fatalf("focus exactly on the band edge must not trigger a recenter")
	}
	if !p.NeedsRecenter(mgl64.Vec2{20_001, 0}, offset) {
		t.Fatalf("focus past the band on x must trigger a recenter")
	}
	if !p.NeedsRecenter(mgl64.Vec2{10_000, -10_001}, offset) {
		t.Fatalf("focus past the band on y must trigger a recenter")
	}
}

func TestCanShiftLinearGlitchDistance(t *testing.T) {
	p := testPolicy()

	if !p.CanShiftLinear(mgl64.Vec2{1_000_000, -1_000_000}) {
		t.Fatalf("delta at the glitch distance must still shift linearly")
	}
	if p.CanShiftLinear(mgl64.Vec2{1_000_001, 0}) {
		t.Fatalf("delta past the glitch distance must not shift linearly")
	}
	if p.CanShiftLinear(mgl64.Vec2{0, -1_000_001}) {
		t.Fatalf("negative delta past the glitch distance must not shift linearly")
	}
}

func TestSnapIsIdempotent(t *testing.T) {
	p := testPolicy()
	first := p.Snap(mgl64.Vec2{123_456_789, -987_654_321})
	second := p.Snap(first)
	if first != second {
		t.Fatalf("snapping a snapped point moved it: %v -> %v", first, second)
	}
}

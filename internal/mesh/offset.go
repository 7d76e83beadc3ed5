package mesh

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"endless-chess/internal/config"
)

// OffsetPolicy decides where the mesh origin sits. Vertex coordinates are
// expressed relative to a nearby multiple of Grid so the values fed to the
// render-precision buffer stay small no matter how far the viewer wanders
// from the board origin.
type OffsetPolicy struct {
	// Grid is the spacing of candidate offsets.
	Grid float64
	// RecenterBand is how far the focus may drift from the current offset
	// before a recenter is due.
	RecenterBand float64
	// GlitchDistance is the largest offset delta a linear shift may bridge;
	// past it float32 cancellation corrupts the shifted positions and a full
	// regeneration is required.
	GlitchDistance float64
}

// DefaultPolicy builds a policy from the configured tunables.
func DefaultPolicy() OffsetPolicy {
	return OffsetPolicy{
		Grid:           config.GetOffsetGrid(),
		RecenterBand:   config.GetRecenterBand(),
		GlitchDistance: config.GetGlitchDistance(),
	}
}

// Snap returns the multiple of Grid nearest to the focus, per axis.
func (p OffsetPolicy) Snap(focus mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{
		math.Round(focus[0]/p.Grid) * p.Grid,
		math.Round(focus[1]/p.Grid) * p.Grid,
	}
}

// NeedsRecenter reports whether the focus has left the band around the
// current offset. Recentering only then avoids re-uploads on every pan.
func (p OffsetPolicy) NeedsRecenter(focus, offset mgl64.Vec2) bool {
	return math.Abs(focus[0]-offset[0]) > p.RecenterBand ||
		math.Abs(focus[1]-offset[1]) > p.RecenterBand
}

// CanShiftLinear reports whether an offset delta is small enough for the
// add-to-every-vertex shortcut. Callers must fall back to a full
// regeneration when this returns false.
func (p OffsetPolicy) CanShiftLinear(delta mgl64.Vec2) bool {
	return math.Abs(delta[0]) <= p.GlitchDistance &&
		math.Abs(delta[1]) <= p.GlitchDistance
}

package mesh

import (
	"fmt"

	"endless-chess/internal/board"
)

// One quad is two triangles sharing a diagonal.
const VertsPerQuad = 6

// Strides in float32 per vertex for each layout.
const (
	StridePos        = 2
	StridePosUV      = 4
	StridePosUVColor = 8
)

// UVRect is a sprite rectangle in normalized atlas coordinates. V0 is the
// top edge (image origin is top-left).
type UVRect struct {
	U0, V0, U1, V1 float32
}

// Tint is a straight-alpha RGBA multiplier.
type Tint struct {
	R, G, B, A float32
}

// TintConfig maps piece color to its theme tint. A nil *TintConfig means
// untinted quads with the shorter PosUV stride.
type TintConfig struct {
	White Tint
	Black Tint
}

// DefaultTints is a warm ivory/charcoal theme for tinted rendering.
var DefaultTints = TintConfig{
	White: Tint{R: 1.0, G: 0.96, B: 0.88, A: 1},
	Black: Tint{R: 0.45, G: 0.42, B: 0.40, A: 1},
}

// For returns the tint for a piece type.
func (tc *TintConfig) For(pt board.PieceType) Tint {
	if pt.IsWhite() {
		return tc.White
	}
	return tc.Black
}

// encodePieceQuad writes one unit quad with its bottom-left corner at (x, y)
// into dst, which must hold VertsPerQuad*stride float64s. Attribute order is
// position, uv, then color when stride carries it. Identical inputs produce
// bit-identical output; patch operations rely on that to compute byte ranges
// instead of diffing content.
func encodePieceQuad(dst []float64, x, y float64, uv UVRect, tint *Tint, stride int) {
	if stride != StridePosUV && stride != StridePosUVColor {
		panic(fmt.Sprintf("mesh: piece quad stride %d not supported", stride))
	}
	if tint == nil && stride == StridePosUVColor {
		panic("mesh: tinted stride without a tint")
	}
	x0, y0 := x, y
	x1, y1 := x+1, y+1

	// Corner order bl, br, tr / tr, tl, bl; CCW front faces.
	px := [VertsPerQuad]float64{x0, x1, x1, x1, x0, x0}
	py := [VertsPerQuad]float64{y0, y0, y1, y1, y1, y0}
	pu := [VertsPerQuad]float64{float64(uv.U0), float64(uv.U1), float64(uv.U1), float64(uv.U1), float64(uv.U0), float64(uv.U0)}
	pv := [VertsPerQuad]float64{float64(uv.V1), float64(uv.V1), float64(uv.V0), float64(uv.V0), float64(uv.V0), float64(uv.V1)}

	for i := 0; i < VertsPerQuad; i++ {
		o := i * stride
		dst[o] = px[i]
		dst[o+1] = py[i]
		dst[o+2] = pu[i]
		dst[o+3] = pv[i]
		if stride == StridePosUVColor {
			dst[o+4] = float64(tint.R)
			dst[o+5] = float64(tint.G)
			dst[o+6] = float64(tint.B)
			dst[o+7] = float64(tint.A)
		}
	}
}

// encodeVoidFill writes one filled quad covering the rectangle (inclusive
// square bounds) into dst as VertsPerQuad position-only vertices relative to
// (ox, oy).
func encodeVoidFill(dst []float64, r VoidRect, ox, oy float64) {
	x0 := float64(r.Left) - ox
	y0 := float64(r.Bottom) - oy
	x1 := float64(r.Right+1) - ox
	y1 := float64(r.Top+1) - oy

	px := [VertsPerQuad]float64{x0, x1, x1, x1, x0, x0}
	py := [VertsPerQuad]float64{y0, y0, y1, y1, y1, y0}
	for i := 0; i < VertsPerQuad; i++ {
		dst[i*StridePos] = px[i]
		dst[i*StridePos+1] = py[i]
	}
}

// VertsPerOutline is the vertex count of a rectangle outline: four line
// segments with two endpoints each.
const VertsPerOutline = 8

// encodeVoidOutline writes the four edges of the rectangle into dst as
// VertsPerOutline position-only line vertices relative to (ox, oy).
func encodeVoidOutline(dst []float64, r VoidRect, ox, oy float64) {
	x0 := float64(r.Left) - ox
	y0 := float64(r.Bottom) - oy
	x1 := float64(r.Right+1) - ox
	y1 := float64(r.Top+1) - oy

	seg := [VertsPerOutline][2]float64{
		{x0, y0}, {x1, y0}, // bottom
		{x1, y0}, {x1, y1}, // right
		{x1, y1}, {x0, y1}, // top
		{x0, y1}, {x0, y0}, // left
	}
	for i, p := range seg {
		dst[i*StridePos] = p[0]
		dst[i*StridePos+1] = p[1]
	}
}

// narrow is the single conversion point from the precise source array to the
// render-precision buffer. dst and src must be the same length.
func narrow(dst []float32, src []float64) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("mesh: narrow length mismatch %d != %d", len(dst), len(src)))
	}
	for i, v := range src {
		dst[i] = float32(v)
	}
}

// mirrorQuad writes the horizontally texture-flipped copy of one quad block
// into dst. Positions and colors are untouched; each U is remapped across
// the quad's own U extent, so an all-zero placeholder block stays all zero.
func mirrorQuad(dst, src []float32, stride int) {
	if stride < StridePosUV {
		panic(fmt.Sprintf("mesh: stride %d has no uv to mirror", stride))
	}
	minU, maxU := src[2], src[2]
	for i := 1; i < VertsPerQuad; i++ {
		u := src[i*stride+2]
		if u < minU {
			minU = u
		}
		if u > maxU {
			maxU = u
		}
	}
	for i := 0; i < VertsPerQuad; i++ {
		o := i * stride
		copy(dst[o:o+stride], src[o:o+stride])
		dst[o+2] = minU + maxU - src[o+2]
	}
}

// MirrorU fills dst with the texture-mirrored copy of a whole quad array.
// This is how the mirrored mesh is derived from the canonical one: a cached
// transform, never an independently re-encoded twin.
func MirrorU(dst, src []float32, stride int) {
	if len(dst) != len(src) {
		panic(fmt.Sprintf("mesh: mirror length mismatch %d != %d", len(dst), len(src)))
	}
	quadFloats := VertsPerQuad * stride
	for o := 0; o+quadFloats <= len(src); o += quadFloats {
		mirrorQuad(dst[o:o+quadFloats], src[o:o+quadFloats], stride)
	}
}

package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// PrimitiveKind selects how a buffer's vertices are assembled.
type PrimitiveKind int

const (
	Triangles PrimitiveKind = iota
	Lines
)

// AttributeLayout describes the interleaved vertex format of a buffer, in
// fixed attribute order: position, then uv, then color.
type AttributeLayout int

const (
	LayoutPos        AttributeLayout = iota // 2 floats
	LayoutPosUV                             // 2 + 2 floats
	LayoutPosUVColor                        // 2 + 2 + 4 floats
)

// Stride returns the number of float32 per vertex for the layout.
func (l AttributeLayout) Stride() int {
	switch l {
	case LayoutPos:
		return StridePos
	case LayoutPosUV:
		return StridePosUV
	case LayoutPosUVColor:
		return StridePosUVColor
	}
	panic("mesh: unknown attribute layout")
}

// Texture identifies a texture owned by the renderer collaborator. Zero
// means untextured.
type Texture uint32

// Handle is a drawable vertex buffer owned by the renderer collaborator.
// The handle retains the vertex slice it was created with; UpdateRange
// re-uploads the given byte span from that slice.
type Handle interface {
	UpdateRange(byteOffset, byteLength int)
	Render(position mgl32.Vec2, scale float32)
	Release()
}

// Device creates vertex buffers. This is the only surface the mesh layer
// needs from the renderer.
type Device interface {
	CreateBuffer(verts []float32, layout AttributeLayout, prim PrimitiveKind, tex Texture) Handle
}

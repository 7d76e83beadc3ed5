package graphics

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
)

// Camera is the 2D viewport over the unbounded board. Focus stays float64
// because board coordinates can sit far outside float32's exact range; only
// the small mesh-relative placement ever narrows to float32.
type Camera struct {
	Focus    mgl64.Vec2 // board coordinate under the view center
	Zoom     float64    // pixels per board square
	Reversed bool       // reversed-perspective viewing (board rotated 180)

	width, height int
}

func NewCamera(width, height int) *Camera {
	return &Camera{
		Zoom:   48,
		width:  width,
		height: height,
	}
}

// SetViewport updates the pixel dimensions used by the projection.
func (c *Camera) SetViewport(width, height int) {
	c.width = width
	c.height = height
}

// Pan moves the focus by a delta in board squares.
func (c *Camera) Pan(dx, dy float64) {
	if c.Reversed {
		dx, dy = -dx, -dy
	}
	c.Focus[0] += dx
	c.Focus[1] += dy
}

// ZoomBy scales the zoom factor, clamped to sane bounds.
func (c *Camera) ZoomBy(f float64) {
	c.Zoom *= f
	if c.Zoom < 2 {
		c.Zoom = 2
	}
	if c.Zoom > 512 {
		c.Zoom = 512
	}
}

// ViewMatrix maps board units to pixels, rotating the board 180 degrees
// when reversed viewing is active.
func (c *Camera) ViewMatrix() mgl32.Mat4 {
	z := float32(c.Zoom)
	if c.Reversed {
		return mgl32.Scale3D(-z, -z, 1)
	}
	return mgl32.Scale3D(z, z, 1)
}

// ProjMatrix is a pixel-space orthographic projection centered on the focus.
func (c *Camera) ProjMatrix() mgl32.Mat4 {
	hw := float32(c.width) / 2
	hh := float32(c.height) / 2
	return mgl32.Ortho(-hw, hw, -hh, hh, -1, 1)
}

// MeshPosition returns where to place a mesh expressed relative to the
// given offset: the offset-to-focus delta in board units. Both points sit
// near each other, so the narrowed value stays precise.
func (c *Camera) MeshPosition(offset mgl64.Vec2) mgl32.Vec2 {
	return mgl32.Vec2{
		float32(offset[0] - c.Focus[0]),
		float32(offset[1] - c.Focus[1]),
	}
}

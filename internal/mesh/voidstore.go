package mesh

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"endless-chess/internal/profiling"
)

// VoidMode selects how void rectangles render. The mode is fixed at
// regeneration time; changing it requires a full rebuild.
type VoidMode int

const (
	VoidSolid     VoidMode = iota // filled quads, normal play
	VoidWireframe                 // outlines, debug mode
)

type voidRequest struct {
	rects []VoidRect
	focus mgl64.Vec2
	mode  VoidMode
}

// VoidStore owns the vertex buffer derived from the merged void rectangles,
// in the same coordinate frame as the piece mesh. Same cooperative build
// and cancellation rules as PieceStore, without the patch surface: voids
// only change with the board state, which always goes through Regenerate.
type VoidStore struct {
	dev    Device
	policy OffsetPolicy
	sched  *Scheduler

	state   storeState
	pending *voidRequest
	job     *Job

	offset mgl64.Vec2
	mode   VoidMode

	// Last-requested inputs, recorded when a build starts, so a Shift
	// fallback regenerates from the newest rectangles even while the build
	// that carries them is still in flight.
	lastRects []VoidRect
	lastMode  VoidMode

	source []float64
	render []float32
	handle Handle

	regens int
}

// NewVoidStore creates an empty void store.
func NewVoidStore(dev Device, policy OffsetPolicy, sched *Scheduler) *VoidStore {
	return &VoidStore{dev: dev, policy: policy, sched: sched}
}

// Offset returns the point the void mesh is expressed relative to.
func (s *VoidStore) Offset() mgl64.Vec2 {
	return s.offset
}

// RegenCount returns how many regenerations have started.
func (s *VoidStore) RegenCount() int {
	return s.regens
}

// Mode returns the render mode of the last published build.
func (s *VoidStore) Mode() VoidMode {
	return s.mode
}

func vertsPerRect(mode VoidMode) int {
	if mode == VoidWireframe {
		return VertsPerOutline
	}
	return VertsPerQuad
}

// Regenerate rebuilds the buffer from merged rectangles through the
// scheduler. A newer request supersedes an in-flight one cooperatively,
// exactly like the piece store.
func (s *VoidStore) Regenerate(rects []VoidRect, focus mgl64.Vec2, mode VoidMode) {
	if s.state != stateIdle {
		s.pending = &voidRequest{rects: rects, focus: focus, mode: mode}
		s.state = stateCancelling
		return
	}
	s.startRegen(rects, focus, mode)
}

func (s *VoidStore) startRegen(rects []VoidRect, focus mgl64.Vec2, mode VoidMode) {
	defer profiling.Track("mesh.VoidRegenerateSnapshot")()

	s.state = stateRegenerating
	s.regens++
	s.lastRects = rects
	s.lastMode = mode

	offset := s.policy.Snap(focus)
	vpr := vertsPerRect(mode)
	rectFloats := vpr * StridePos
	newSource := make([]float64, len(rects)*rectFloats)
	newRender := make([]float32, len(newSource))

	// Snapshot the slice header; the caller may rebuild its rect list.
	snap := rects

	step := func(i int) {
		dst := newSource[i*rectFloats : (i+1)*rectFloats]
		if mode == VoidWireframe {
			encodeVoidOutline(dst, snap[i], offset[0], offset[1])
		} else {
			encodeVoidFill(dst, snap[i], offset[0], offset[1])
		}
		narrow(newRender[i*rectFloats:(i+1)*rectFloats], dst)
	}
	cancelled := func() bool {
		return s.state == stateCancelling
	}
	complete := func(finished bool) {
		s.job = nil
		if !finished {
			s.state = stateIdle
			if req := s.pending; req != nil {
				s.pending = nil
				s.startRegen(req.rects, req.focus, req.mode)
			}
			return
		}
		s.offset = offset
		s.mode = mode
		s.source = newSource
		s.render = newRender
		s.state = stateIdle

		prim := Triangles
		if mode == VoidWireframe {
			prim = Lines
		}
		if s.handle != nil {
			s.handle.Release()
		}
		s.handle = s.dev.CreateBuffer(s.render, LayoutPos, prim, 0)
		log.Printf("void mesh regenerated: %d rects, mode %d, offset (%.0f, %.0f)",
			len(snap), mode, offset[0], offset[1])
	}
	s.job = s.sched.Submit(len(rects), step, cancelled, complete)
}

// Shift mirrors the piece store's linear-shift optimization: add the offset
// delta to every position and re-upload, regenerating instead when the
// delta exceeds the safe linear range.
func (s *VoidStore) Shift(focus mgl64.Vec2) {
	newOffset := s.policy.Snap(focus)
	delta := s.offset.Sub(newOffset)
	if delta[0] == 0 && delta[1] == 0 {
		return
	}
	if s.render == nil || s.state != stateIdle || !s.policy.CanShiftLinear(delta) {
		s.Regenerate(s.lastRects, focus, s.lastMode)
		return
	}
	for o := 0; o < len(s.source); o += StridePos {
		s.source[o] += delta[0]
		s.source[o+1] += delta[1]
		s.render[o] = float32(s.source[o])
		s.render[o+1] = float32(s.source[o+1])
	}
	s.offset = newOffset
	if s.handle != nil {
		s.handle.UpdateRange(0, len(s.render)*4)
	}
}

// Draw renders the void mesh.
func (s *VoidStore) Draw(position mgl32.Vec2, scale float32) {
	if s.handle != nil {
		s.handle.Render(position, scale)
	}
}

// Dispose releases the uploaded buffer.
func (s *VoidStore) Dispose() {
	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
	s.source = nil
	s.render = nil
	s.lastRects = nil
}

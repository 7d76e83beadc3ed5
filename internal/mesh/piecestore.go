package mesh

import (
	"errors"
	"fmt"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"endless-chess/internal/board"
	"endless-chess/internal/config"
	"endless-chess/internal/profiling"
)

// ErrPlaceholdersExhausted is returned by Overwrite when the target bucket
// has no reserved placeholder slots left. The caller recovers by falling
// back to Regenerate, which reallocates with a fresh reservation.
var ErrPlaceholdersExhausted = errors.New("mesh: bucket placeholders exhausted")

// UVSource maps a piece type to its sprite rectangle in the texture atlas.
type UVSource interface {
	PieceUV(pt board.PieceType) UVRect
}

// Per-store regeneration state machine. Transitions happen only on the
// render thread, either inside synchronous ops or at scheduler chunk
// boundaries.
type storeState int

const (
	stateIdle storeState = iota
	stateRegenerating
	stateCancelling
)

func (s storeState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateRegenerating:
		return "regenerating"
	case stateCancelling:
		return "cancelling"
	}
	return "unknown"
}

// bucketLayout places one type bucket inside the flattened mesh.
type bucketLayout struct {
	base     int // first quad index
	capacity int // live slots plus trailing placeholders
}

type patchKind int

const (
	patchMove patchKind = iota
	patchDelete
	patchOverwrite
)

// patch records one synchronous buffer edit so edits racing an in-flight
// regeneration can be replayed onto the freshly built arrays before they
// are published.
type patch struct {
	kind patchKind
	pt   board.PieceType
	slot int
	to   board.Coord
}

type regenRequest struct {
	b     *board.Board
	tint  *TintConfig
	focus mgl64.Vec2
}

// quadPlan is the snapshot of one mesh slot captured when a regeneration
// starts. The build job iterates the plan, never the live board, so a board
// that keeps mutating cannot tear a build.
type quadPlan struct {
	live bool
	pt   board.PieceType
	x, y float64 // offset-relative
}

// PieceStore owns the flattened vertex representation of every piece: a
// precise float64 source array, its float32 render copy, and the uploaded
// buffer handle. Pieces of one type sit contiguously with a fixed trailing
// placeholder reservation so promotions land without a resize.
type PieceStore struct {
	dev    Device
	uv     UVSource
	policy OffsetPolicy
	sched  *Scheduler
	tex    Texture

	state   storeState
	pending *regenRequest
	job     *Job

	offset mgl64.Vec2
	stride int
	layout AttributeLayout
	tint   *TintConfig

	source  []float64
	render  []float32
	buckets map[board.PieceType]bucketLayout
	handle  Handle

	mirror       bool
	mirrorRender []float32
	mirrorHandle Handle

	lastBoard *board.Board
	patches   []patch

	regens int
}

// NewPieceStore creates a store bound to one board's lifetime. Nothing is
// built until the first Regenerate.
func NewPieceStore(dev Device, uv UVSource, tex Texture, policy OffsetPolicy, sched *Scheduler) *PieceStore {
	return &PieceStore{
		dev:    dev,
		uv:     uv,
		tex:    tex,
		policy: policy,
		sched:  sched,
		stride: StridePosUV,
		layout: LayoutPosUV,
	}
}

// Offset returns the integer point the mesh is currently expressed
// relative to.
func (s *PieceStore) Offset() mgl64.Vec2 {
	return s.offset
}

// RegenCount returns how many full regenerations have started. Shift falls
// back to Regenerate past the glitch distance; this makes that observable.
func (s *PieceStore) RegenCount() int {
	return s.regens
}

// Progress reports the in-flight build's items done and total, or (0, 0)
// when idle.
func (s *PieceStore) Progress() (done, total int) {
	if s.job == nil {
		return 0, 0
	}
	return s.job.Progress()
}

// Busy reports whether a regeneration is in flight.
func (s *PieceStore) Busy() bool {
	return s.state != stateIdle
}

// Regenerate rebuilds the whole mesh from the board through the scheduler.
// A request arriving while a build is in flight flags cooperative
// cancellation; the running build unwinds at its next chunk boundary
// without uploading partial data, then the newest request starts.
func (s *PieceStore) Regenerate(b *board.Board, tint *TintConfig, focus mgl64.Vec2) {
	if s.state != stateIdle {
		s.pending = &regenRequest{b: b, tint: tint, focus: focus}
		s.state = stateCancelling
		return
	}
	s.startRegen(b, tint, focus)
}

func (s *PieceStore) startRegen(b *board.Board, tint *TintConfig, focus mgl64.Vec2) {
	defer profiling.Track("mesh.RegenerateSnapshot")()

	s.state = stateRegenerating
	s.lastBoard = b
	s.tint = tint
	s.regens++

	offset := s.policy.Snap(focus)
	stride, layout := StridePosUV, LayoutPosUV
	if tint != nil {
		stride, layout = StridePosUVColor, LayoutPosUVColor
	}

	reserve := config.GetPlaceholderReserve()
	newBuckets := make(map[board.PieceType]bucketLayout, len(board.PieceTypes))
	var plan []quadPlan
	for _, pt := range board.PieceTypes {
		bucket := b.Bucket(pt)
		newBuckets[pt] = bucketLayout{base: len(plan), capacity: len(bucket) + reserve}
		for _, p := range bucket {
			if p == nil {
				plan = append(plan, quadPlan{}) // hole stays a placeholder
				continue
			}
			plan = append(plan, quadPlan{
				live: true,
				pt:   pt,
				x:    float64(p.Pos.X) - offset[0],
				y:    float64(p.Pos.Y) - offset[1],
			})
		}
		for i := 0; i < reserve; i++ {
			plan = append(plan, quadPlan{})
		}
	}

	quadFloats := VertsPerQuad * stride
	totalQuads := len(plan)
	newSource := make([]float64, totalQuads*quadFloats)
	newRender := make([]float32, totalQuads*quadFloats)

	// Mirror construction shares the job so cancellation covers it too.
	buildMirror := s.mirror
	total := totalQuads
	var newMirror []float32
	if buildMirror {
		newMirror = make([]float32, len(newRender))
		total += totalQuads
	}

	step := func(i int) {
		if i < totalQuads {
			q := plan[i]
			if !q.live {
				return // all-zero block: degenerate placeholder quad
			}
			src := newSource[i*quadFloats : (i+1)*quadFloats]
			var tp *Tint
			if tint != nil {
				t := tint.For(q.pt)
				tp = &t
			}
			encodePieceQuad(src, q.x, q.y, s.uv.PieceUV(q.pt), tp, stride)
			narrow(newRender[i*quadFloats:(i+1)*quadFloats], src)
			return
		}
		j := i - totalQuads
		mirrorQuad(newMirror[j*quadFloats:(j+1)*quadFloats], newRender[j*quadFloats:(j+1)*quadFloats], stride)
	}
	cancelled := func() bool {
		return s.state == stateCancelling
	}
	complete := func(finished bool) {
		s.job = nil
		if !finished {
			// Superseded. Partial arrays are dropped, never uploaded.
			s.state = stateIdle
			if req := s.pending; req != nil {
				s.pending = nil
				s.startRegen(req.b, req.tint, req.focus)
			}
			return
		}
		s.publish(offset, stride, layout, newBuckets, newSource, newRender, newMirror)
	}
	s.job = s.sched.Submit(total, step, cancelled, complete)
}

// publish swaps in the freshly built arrays, replays patches that arrived
// mid-build, and uploads.
func (s *PieceStore) publish(offset mgl64.Vec2, stride int, layout AttributeLayout,
	buckets map[board.PieceType]bucketLayout, source []float64, render []float32, mirror []float32) {

	s.offset = offset
	s.stride = stride
	s.layout = layout
	s.buckets = buckets
	s.source = source
	s.render = render
	s.state = stateIdle

	// Replay edits that targeted the old arrays while this build ran, so
	// they are not silently superseded.
	queued := s.patches
	s.patches = nil
	for _, p := range queued {
		s.replayPatch(p)
	}

	if s.handle != nil {
		s.handle.Release()
	}
	s.handle = s.dev.CreateBuffer(s.render, layout, Triangles, s.tex)

	if s.mirrorHandle != nil {
		s.mirrorHandle.Release()
		s.mirrorHandle = nil
	}
	s.mirrorRender = nil
	if s.mirror {
		if mirror == nil || len(queued) > 0 {
			// Mirror toggled on mid-build, or replays dirtied the canonical
			// array: re-derive the whole transform.
			mirror = make([]float32, len(s.render))
			MirrorU(mirror, s.render, s.stride)
		}
		s.mirrorRender = mirror
		s.mirrorHandle = s.dev.CreateBuffer(s.mirrorRender, layout, Triangles, s.tex)
	}

	log.Printf("piece mesh regenerated: %d quads, offset (%.0f, %.0f), stride %d",
		len(s.render)/(VertsPerQuad*s.stride), offset[0], offset[1], s.stride)
}

func (s *PieceStore) replayPatch(p patch) {
	bl, ok := s.buckets[p.pt]
	if !ok || p.slot < 0 || p.slot >= bl.capacity {
		return // bucket shape changed under the patch; snapshot already covers it
	}
	switch p.kind {
	case patchMove, patchOverwrite:
		s.writeQuad(p.pt, p.slot, p.to, false)
	case patchDelete:
		s.zeroQuad(p.pt, p.slot, false)
	}
}

// bucketOf panics on unknown buckets: a caller-contract violation.
func (s *PieceStore) bucketOf(pt board.PieceType) bucketLayout {
	bl, ok := s.buckets[pt]
	if !ok {
		panic(fmt.Sprintf("mesh: unknown bucket %v", pt))
	}
	return bl
}

func (s *PieceStore) quadFloatOffset(bl bucketLayout, pt board.PieceType, slot int) int {
	if slot < 0 || slot >= bl.capacity {
		panic(fmt.Sprintf("mesh: slot %d out of range for bucket %v (capacity %d)", slot, pt, bl.capacity))
	}
	return (bl.base + slot) * VertsPerQuad * s.stride
}

// writeQuad encodes a live quad into both arrays at the slot's byte range
// and optionally uploads just that range, mirrored copy included.
func (s *PieceStore) writeQuad(pt board.PieceType, slot int, at board.Coord, upload bool) {
	bl := s.bucketOf(pt)
	off := s.quadFloatOffset(bl, pt, slot)
	n := VertsPerQuad * s.stride

	var tp *Tint
	if s.tint != nil {
		t := s.tint.For(pt)
		tp = &t
	}
	src := s.source[off : off+n]
	encodePieceQuad(src, float64(at.X)-s.offset[0], float64(at.Y)-s.offset[1], s.uv.PieceUV(pt), tp, s.stride)
	narrow(s.render[off:off+n], src)
	if s.mirrorRender != nil {
		mirrorQuad(s.mirrorRender[off:off+n], s.render[off:off+n], s.stride)
	}
	if upload {
		s.uploadRange(off, n)
	}
}

// zeroQuad degenerates the slot: zero positions collapse the quad, zero uv
// samples nothing.
func (s *PieceStore) zeroQuad(pt board.PieceType, slot int, upload bool) {
	bl := s.bucketOf(pt)
	off := s.quadFloatOffset(bl, pt, slot)
	n := VertsPerQuad * s.stride
	for i := off; i < off+n; i++ {
		s.source[i] = 0
		s.render[i] = 0
	}
	if s.mirrorRender != nil {
		for i := off; i < off+n; i++ {
			s.mirrorRender[i] = 0
		}
	}
	if upload {
		s.uploadRange(off, n)
	}
}

func (s *PieceStore) uploadRange(floatOff, floatLen int) {
	if s.handle != nil {
		s.handle.UpdateRange(floatOff*4, floatLen*4)
	}
	if s.mirrorHandle != nil {
		s.mirrorHandle.UpdateRange(floatOff*4, floatLen*4)
	}
}

// queueIfBusy records the patch for replay when a regeneration is in
// flight. The patch still applies to the currently live arrays below.
func (s *PieceStore) queueIfBusy(p patch) {
	if s.state != stateIdle {
		s.patches = append(s.patches, p)
	}
}

// Move re-encodes a single slot's quad at its new coordinates and uploads
// only that byte range. O(1) in piece count; never suspends.
func (s *PieceStore) Move(pt board.PieceType, slot int, to board.Coord) {
	s.queueIfBusy(patch{kind: patchMove, pt: pt, slot: slot, to: to})
	if s.render == nil {
		return
	}
	s.writeQuad(pt, slot, to, true)
}

// Delete zeroes the slot's quad. The slot stays reserved as a placeholder
// for a future Overwrite in the same type bucket only.
func (s *PieceStore) Delete(pt board.PieceType, slot int) {
	s.queueIfBusy(patch{kind: patchDelete, pt: pt, slot: slot})
	if s.render == nil {
		return
	}
	s.zeroQuad(pt, slot, true)
}

// Overwrite writes a full live quad into a zeroed slot of the bucket.
// Returns ErrPlaceholdersExhausted when the bucket has no reserved slots
// left; the caller must fall back to Regenerate.
func (s *PieceStore) Overwrite(pt board.PieceType, slot int, at board.Coord) error {
	if s.render == nil {
		s.queueIfBusy(patch{kind: patchOverwrite, pt: pt, slot: slot, to: at})
		return nil
	}
	bl := s.bucketOf(pt)
	if slot < 0 {
		panic(fmt.Sprintf("mesh: negative slot %d for bucket %v", slot, pt))
	}
	if slot >= bl.capacity {
		return ErrPlaceholdersExhausted
	}
	s.queueIfBusy(patch{kind: patchOverwrite, pt: pt, slot: slot, to: at})
	s.writeQuad(pt, slot, at, true)
	return nil
}

// Shift recenters the mesh on a new offset by adding the coordinate delta
// to every vertex position, skipping the encoder entirely. Texture
// coordinates are untouched. Past the glitch distance the delta would
// suffer float32 cancellation, so Regenerate is substituted.
func (s *PieceStore) Shift(focus mgl64.Vec2) {
	newOffset := s.policy.Snap(focus)
	delta := s.offset.Sub(newOffset)
	if delta[0] == 0 && delta[1] == 0 {
		return
	}
	if s.render == nil || s.state != stateIdle || !s.policy.CanShiftLinear(delta) {
		if s.lastBoard == nil {
			return
		}
		s.Regenerate(s.lastBoard, s.tint, focus)
		return
	}
	defer profiling.Track("mesh.Shift")()

	for o := 0; o < len(s.source); o += s.stride {
		s.source[o] += delta[0]
		s.source[o+1] += delta[1]
		s.render[o] = float32(s.source[o])
		s.render[o+1] = float32(s.source[o+1])
	}
	if s.mirrorRender != nil {
		// Mirror positions are identical to the canonical ones.
		for o := 0; o < len(s.mirrorRender); o += s.stride {
			s.mirrorRender[o] = s.render[o]
			s.mirrorRender[o+1] = s.render[o+1]
		}
	}
	s.offset = newOffset
	if s.handle != nil {
		s.handle.UpdateRange(0, len(s.render)*4)
	}
	if s.mirrorHandle != nil {
		s.mirrorHandle.UpdateRange(0, len(s.mirrorRender)*4)
	}
	log.Printf("piece mesh shifted to offset (%.0f, %.0f)", newOffset[0], newOffset[1])
}

// SetMirrorEnabled builds or drops the mirrored copy. The mirror is derived
// from the canonical render array by the MirrorU transform, never
// re-encoded independently.
func (s *PieceStore) SetMirrorEnabled(on bool) {
	if on == s.mirror {
		return
	}
	s.mirror = on
	if !on {
		if s.mirrorHandle != nil {
			s.mirrorHandle.Release()
			s.mirrorHandle = nil
		}
		s.mirrorRender = nil
		return
	}
	if s.render == nil || s.state != stateIdle {
		return // built when the in-flight or next regeneration publishes
	}
	s.mirrorRender = make([]float32, len(s.render))
	MirrorU(s.mirrorRender, s.render, s.stride)
	s.mirrorHandle = s.dev.CreateBuffer(s.mirrorRender, s.layout, Triangles, s.tex)
}

// Draw renders the mesh, using the mirrored copy when reversed viewing is
// active and the copy exists.
func (s *PieceStore) Draw(position mgl32.Vec2, scale float32, reversed bool) {
	h := s.handle
	if reversed && s.mirrorHandle != nil {
		h = s.mirrorHandle
	}
	if h != nil {
		h.Render(position, scale)
	}
}

// Dispose releases the uploaded buffers. The store is unusable afterwards.
func (s *PieceStore) Dispose() {
	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
	if s.mirrorHandle != nil {
		s.mirrorHandle.Release()
		s.mirrorHandle = nil
	}
	s.source = nil
	s.render = nil
	s.mirrorRender = nil
	s.buckets = nil
}

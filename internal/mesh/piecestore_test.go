package mesh

import (
	"errors"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"

	"endless-chess/internal/board"
	"endless-chess/internal/config"
)

// stubHandle records uploads instead of talking to a GPU. It shares the
// vertex slice with the store, exactly like the GL handle does.
type stubHandle struct {
	verts    []float32
	layout   AttributeLayout
	prim     PrimitiveKind
	tex      Texture
	updates  [][2]int // byteOffset, byteLength
	renders  int
	released bool
}

func (h *stubHandle) UpdateRange(byteOffset, byteLength int) {
	h.updates = append(h.updates, [2]int{byteOffset, byteLength})
}

func (h *stubHandle) Render(position mgl32.Vec2, scale float32) {
	h.renders++
}

func (h *stubHandle) Release() {
	h.released = true
}

type stubDevice struct {
	created []*stubHandle
}

func (d *stubDevice) CreateBuffer(verts []float32, layout AttributeLayout, prim PrimitiveKind, tex Texture) Handle {
	h := &stubHandle{verts: verts, layout: layout, prim: prim, tex: tex}
	d.created = append(d.created, h)
	return h
}

func (d *stubDevice) last() *stubHandle {
	if len(d.created) == 0 {
		return nil
	}
	return d.created[len(d.created)-1]
}

// gridUV mirrors the sprite-sheet layout without dragging GL into the tests.
type gridUV struct{}

func (gridUV) PieceUV(pt board.PieceType) UVRect {
	idx := int(pt - board.WhitePawn)
	col := idx % 6
	row := idx / 6
	return UVRect{
		U0: float32(col) / 6,
		V0: float32(row) / 2,
		U1: float32(col+1) / 6,
		V1: float32(row+1) / 2,
	}
}

func newTestPieceStore() (*PieceStore, *stubDevice, *Scheduler) {
	dev := &stubDevice{}
	sched, _ := newTestScheduler(time.Hour)
	store := NewPieceStore(dev, gridUV{}, 7, testPolicy(), sched)
	return store, dev, sched
}

func regenAndDrain(s *PieceStore, sched *Scheduler, b *board.Board, focus mgl64.Vec2) {
	s.Regenerate(b, nil, focus)
	sched.RunToCompletion()
}

func standardBoard() *board.Board {
	b := board.New()
	b.SetupStandard()
	return b
}

func TestRegenerateLayout(t *testing.T) {
	b := standardBoard()
	store, dev, sched := newTestPieceStore()
	regenAndDrain(store, sched, b, mgl64.Vec2{0, 0})

	reserve := config.GetPlaceholderReserve()
	totalQuads := 0
	for _, pt := range board.PieceTypes {
		totalQuads += len(b.Bucket(pt)) + reserve
	}
	wantFloats := totalQuads * VertsPerQuad * StridePosUV

	h := dev.last()
	if h == nil {
		t.Fatalf("no buffer created")
	}
	if len(h.verts) != wantFloats {
		t.Fatalf("buffer floats: got %d, want %d", len(h.verts), wantFloats)
	}
	if h.layout != LayoutPosUV || h.prim != Triangles || h.tex != 7 {
		t.Fatalf("buffer metadata: got layout %v prim %v tex %v", h.layout, h.prim, h.tex)
	}
	if store.Busy() {
		t.Fatalf("store still busy after drain")
	}
}

func TestRegenerateIdempotent(t *testing.T) {
	b := standardBoard()
	s1, d1, sc1 := newTestPieceStore()
	s2, d2, sc2 := newTestPieceStore()
	regenAndDrain(s1, sc1, b, mgl64.Vec2{0, 0})
	regenAndDrain(s2, sc2, b, mgl64.Vec2{0, 0})

	a, c := d1.last().verts, d2.last().verts
	if len(a) != len(c) {
		t.Fatalf("buffer lengths differ: %d != %d", len(a), len(c))
	}
	for i := range a {
		if a[i] != c[i] {
			t.Fatalf("regeneration not deterministic at float %d: %v != %v", i, a[i], c[i])
		}
	}
}

func TestRegenerateTintedStride(t *testing.T) {
	b := standardBoard()
	store, dev, sched := newTestPieceStore()
	store.Regenerate(b, &DefaultTints, mgl64.Vec2{0, 0})
	sched.RunToCompletion()

	h := dev.last()
	if h.layout != LayoutPosUVColor {
		t.Fatalf("tinted layout: got %v, want %v", h.layout, LayoutPosUVColor)
	}
	reserve := config.GetPlaceholderReserve()
	totalQuads := 0
	for _, pt := range board.PieceTypes {
		totalQuads += len(b.Bucket(pt)) + reserve
	}
	if want := totalQuads * VertsPerQuad * StridePosUVColor; len(h.verts) != want {
		t.Fatalf("tinted buffer floats: got %d, want %d", len(h.verts), want)
	}
}

func TestMoveMatchesColdRegeneration(t *testing.T) {
	b := standardBoard()
	patched, pdev, psched := newTestPieceStore()
	regenAndDrain(patched, psched, b, mgl64.Vec2{0, 0})

	from := board.Coord{X: 5, Y: 2} // king pawn
	to := board.Coord{X: 5, Y: 4}
	pt, slot, ok := b.PieceAt(from)
	if !ok {
		t.Fatalf("no piece at %v", from)
	}
	b.Move(from, to)
	patched.Move(pt, slot, to)

	cold, cdev, csched := newTestPieceStore()
	regenAndDrain(cold, csched, b, mgl64.Vec2{0, 0})

	pv, cv := pdev.last().verts, cdev.last().verts
	for i := range pv {
		if pv[i] != cv[i] {
			t.Fatalf("patched buffer diverges from cold rebuild at float %d: %v != %v", i, pv[i], cv[i])
		}
	}
}

func TestMoveUploadsOnlyTheSlotRange(t *testing.T) {
	b := standardBoard()
	store, dev, sched := newTestPieceStore()
	regenAndDrain(store, sched, b, mgl64.Vec2{0, 0})
	h := dev.last()

	pt, slot, _ := b.PieceAt(board.Coord{X: 1, Y: 2})
	store.Move(pt, slot, board.Coord{X: 1, Y: 3})

	if len(h.updates) != 1 {
		t.Fatalf("uploads after one move: got %d, want 1", len(h.updates))
	}
	wantLen := VertsPerQuad * StridePosUV * 4
	if h.updates[0][1] != wantLen {
		t.Fatalf("upload length: got %d bytes, want %d", h.updates[0][1], wantLen)
	}
}

func TestDeleteZeroesSlot(t *testing.T) {
	b := standardBoard()
	store, dev, sched := newTestPieceStore()
	regenAndDrain(store, sched, b, mgl64.Vec2{0, 0})
	h := dev.last()

	at := board.Coord{X: 4, Y: 7}
	pt, slot, _ := b.PieceAt(at)
	store.Delete(pt, slot)

	if len(h.updates) != 1 {
		t.Fatalf("uploads after delete: got %d, want 1", len(h.updates))
	}
	off := h.updates[0][0] / 4
	n := h.updates[0][1] / 4
	for i := off; i < off+n; i++ {
		if h.verts[i] != 0 {
			t.Fatalf("deleted quad float %d is %v, want 0", i, h.verts[i])
		}
	}
}

func TestOverwritePlaceholder(t *testing.T) {
	b := standardBoard()
	store, _, sched := newTestPieceStore()
	regenAndDrain(store, sched, b, mgl64.Vec2{0, 0})

	// First trailing placeholder of the white queen bucket.
	slot := len(b.Bucket(board.WhiteQueen))
	at := board.Coord{X: 3, Y: 8}
	if err := store.Overwrite(board.WhiteQueen, slot, at); err != nil {
		t.Fatalf("overwrite into placeholder: %v", err)
	}
}

func TestOverwriteExhaustedPlaceholders(t *testing.T) {
	b := standardBoard()
	store, _, sched := newTestPieceStore()
	regenAndDrain(store, sched, b, mgl64.Vec2{0, 0})

	capacity := len(b.Bucket(board.WhiteQueen)) + config.GetPlaceholderReserve()
	err := store.Overwrite(board.WhiteQueen, capacity, board.Coord{X: 1, Y: 1})
	if !errors.Is(err, ErrPlaceholdersExhausted) {
		t.Fatalf("overwrite past capacity: got %v, want ErrPlaceholdersExhausted", err)
	}
}

func TestShiftLinearMatchesColdRegeneration(t *testing.T) {
	b := standardBoard()
	shifted, sdev, ssched := newTestPieceStore()
	regenAndDrain(shifted, ssched, b, mgl64.Vec2{0, 0})

	focus := mgl64.Vec2{10_523, -5}
	shifted.Shift(focus)
	if got := shifted.Offset(); got != (mgl64.Vec2{10_000, 0}) {
		t.Fatalf("offset after shift: got %v, want (10000, 0)", got)
	}
	if shifted.RegenCount() != 1 {
		t.Fatalf("linear shift regenerated: %d regens, want 1", shifted.RegenCount())
	}

	cold, cdev, csched := newTestPieceStore()
	regenAndDrain(cold, csched, b, focus)

	sv, cv := sdev.created[0].verts, cdev.last().verts
	for i := range sv {
		if sv[i] != cv[i] {
			t.Fatalf("shifted buffer diverges from cold rebuild at float %d: %v != %v", i, sv[i], cv[i])
		}
	}
}

func TestShiftPastGlitchDistanceRegenerates(t *testing.T) {
	b := standardBoard()
	store, _, sched := newTestPieceStore()
	regenAndDrain(store, sched, b, mgl64.Vec2{0, 0})

	focus := mgl64.Vec2{2_000_000, 0}
	store.Shift(focus)
	sched.RunToCompletion()

	if store.RegenCount() != 2 {
		t.Fatalf("glitch-distance shift: %d regens, want 2", store.RegenCount())
	}
	if got := store.Offset(); got != (mgl64.Vec2{2_000_000, 0}) {
		t.Fatalf("offset after fallback regeneration: got %v", got)
	}
}

func TestRegenerateSupersedesInFlight(t *testing.T) {
	b1 := standardBoard()
	b2 := board.New()
	b2.Add(board.WhiteKing, board.Coord{X: 100, Y: 100})

	store, dev, sched := newTestPieceStore()
	store.Regenerate(b1, nil, mgl64.Vec2{0, 0})
	store.Regenerate(b2, nil, mgl64.Vec2{0, 0}) // supersedes before any chunk ran
	sched.RunToCompletion()

	if store.RegenCount() != 2 {
		t.Fatalf("regens: got %d, want 2", store.RegenCount())
	}
	if len(dev.created) != 1 {
		t.Fatalf("buffers created: got %d, want 1 (cancelled build must not publish)", len(dev.created))
	}

	cold, cdev, csched := newTestPieceStore()
	regenAndDrain(cold, csched, b2, mgl64.Vec2{0, 0})
	sv, cv := dev.last().verts, cdev.last().verts
	if len(sv) != len(cv) {
		t.Fatalf("buffer lengths differ: %d != %d", len(sv), len(cv))
	}
	for i := range sv {
		if sv[i] != cv[i] {
			t.Fatalf("superseding build wrong at float %d: %v != %v", i, sv[i], cv[i])
		}
	}
}

func TestPatchDuringRegenerationIsReplayed(t *testing.T) {
	b := standardBoard()
	store, dev, sched := newTestPieceStore()
	store.Regenerate(b, nil, mgl64.Vec2{0, 0})

	// The build is queued but has not run; this edit must survive it.
	from := board.Coord{X: 2, Y: 2}
	to := board.Coord{X: 2, Y: 4}
	pt, slot, _ := b.PieceAt(from)
	b.Move(from, to)
	store.Move(pt, slot, to)

	sched.RunToCompletion()

	cold, cdev, csched := newTestPieceStore()
	regenAndDrain(cold, csched, b, mgl64.Vec2{0, 0})
	sv, cv := dev.last().verts, cdev.last().verts
	for i := range sv {
		if sv[i] != cv[i] {
			t.Fatalf("replayed patch lost at float %d: %v != %v", i, sv[i], cv[i])
		}
	}
}

func TestMirrorBufferIsCachedTransform(t *testing.T) {
	b := standardBoard()
	store, dev, sched := newTestPieceStore()
	regenAndDrain(store, sched, b, mgl64.Vec2{0, 0})

	store.SetMirrorEnabled(true)
	if len(dev.created) != 2 {
		t.Fatalf("buffers after enabling mirror: got %d, want 2", len(dev.created))
	}
	canon := dev.created[0].verts
	mirror := dev.created[1].verts

	want := make([]float32, len(canon))
	MirrorU(want, canon, StridePosUV)
	for i := range want {
		if mirror[i] != want[i] {
			t.Fatalf("mirror buffer wrong at float %d: %v != %v", i, mirror[i], want[i])
		}
	}
}

func TestMirrorStaysInSyncWithPatches(t *testing.T) {
	b := standardBoard()
	store, dev, sched := newTestPieceStore()
	regenAndDrain(store, sched, b, mgl64.Vec2{0, 0})
	store.SetMirrorEnabled(true)

	pt, slot, _ := b.PieceAt(board.Coord{X: 7, Y: 2})
	store.Move(pt, slot, board.Coord{X: 7, Y: 5})

	canon := dev.created[0]
	mirror := dev.created[1]
	if len(mirror.updates) != 1 {
		t.Fatalf("mirror uploads after move: got %d, want 1", len(mirror.updates))
	}
	want := make([]float32, len(canon.verts))
	MirrorU(want, canon.verts, StridePosUV)
	for i := range want {
		if mirror.verts[i] != want[i] {
			t.Fatalf("mirror out of sync at float %d: %v != %v", i, mirror.verts[i], want[i])
		}
	}
}

func TestDrawUsesMirrorWhenReversed(t *testing.T) {
	b := standardBoard()
	store, dev, sched := newTestPieceStore()
	regenAndDrain(store, sched, b, mgl64.Vec2{0, 0})
	store.SetMirrorEnabled(true)

	store.Draw(mgl32.Vec2{}, 1, false)
	store.Draw(mgl32.Vec2{}, 1, true)

	if dev.created[0].renders != 1 {
		t.Fatalf("canonical renders: got %d, want 1", dev.created[0].renders)
	}
	if dev.created[1].renders != 1 {
		t.Fatalf("mirror renders: got %d, want 1", dev.created[1].renders)
	}
}

func TestDisposeReleasesBuffers(t *testing.T) {
	b := standardBoard()
	store, dev, sched := newTestPieceStore()
	regenAndDrain(store, sched, b, mgl64.Vec2{0, 0})
	store.SetMirrorEnabled(true)
	store.Dispose()

	for i, h := range dev.created {
		if !h.released {
			t.Fatalf("buffer %d not released on dispose", i)
		}
	}
}

func BenchmarkRegenerateScatter(b *testing.B) {
	brd := board.New()
	brd.SetupScatter(5000, 1, 100_000)
	store, _, sched := newTestPieceStore()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		store.Regenerate(brd, nil, mgl64.Vec2{0, 0})
		sched.RunToCompletion()
	}
}

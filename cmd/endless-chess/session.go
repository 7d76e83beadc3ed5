package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"

	"endless-chess/internal/board"
	"endless-chess/internal/graphics"
	"endless-chess/internal/graphics/renderer"
	"endless-chess/internal/mesh"
	"endless-chess/internal/profiling"
)

// session wires the board, camera and mesh stores together and runs the
// frame loop. It is also the board's event listener: piece notifications
// become direct buffer patches.
type session struct {
	window  *glfw.Window
	board   *board.Board
	cam     *graphics.Camera
	policy  mesh.OffsetPolicy
	sched   *mesh.Scheduler
	pieces  *mesh.PieceStore
	voids   *mesh.VoidStore
	dev     *renderer.GLDevice
	overlay *graphics.FontRenderer

	tint *mesh.TintConfig
	rng  *rand.Rand
}

// PieceMoved implements board.Listener.
func (s *session) PieceMoved(pt board.PieceType, slot int, from, to board.Coord) {
	s.pieces.Move(pt, slot, to)
}

// PieceCaptured implements board.Listener.
func (s *session) PieceCaptured(pt board.PieceType, slot int, at board.Coord) {
	s.pieces.Delete(pt, slot)
}

// PiecePromoted implements board.Listener. Placeholder exhaustion falls
// back to a full regeneration with a fresh reservation.
func (s *session) PiecePromoted(oldPt board.PieceType, oldSlot int, newPt board.PieceType, newSlot int, at board.Coord) {
	s.pieces.Delete(oldPt, oldSlot)
	if err := s.pieces.Overwrite(newPt, newSlot, at); err != nil {
		s.pieces.Regenerate(s.board, s.tint, s.cam.Focus)
	}
}

func (s *session) run() {
	frames := 0
	fps := 0
	lastFPSCheckTime := time.Now()
	lastTime := time.Now()

	for !s.window.ShouldClose() {
		profiling.ResetFrame()
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		s.handleHeldKeys(dt)

		// Recenter only when the focus has left the band; Shift degrades to
		// Regenerate on its own past the glitch distance.
		if s.policy.NeedsRecenter(s.cam.Focus, s.pieces.Offset()) {
			s.pieces.Shift(s.cam.Focus)
		}
		if s.policy.NeedsRecenter(s.cam.Focus, s.voids.Offset()) {
			s.voids.Shift(s.cam.Focus)
		}

		// One cooperative slice of any in-flight rebuild.
		func() { defer profiling.Track("mesh.SchedulerUpdate")(); s.sched.Update() }()

		gl.ClearColor(0.16, 0.15, 0.13, 1.0)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		s.dev.SetCamera(s.cam.ViewMatrix(), s.cam.ProjMatrix())
		s.dev.SetSolidColor(mgl32.Vec4{0.05, 0.05, 0.07, 1})
		s.voids.Draw(s.cam.MeshPosition(s.voids.Offset()), 1)
		s.pieces.Draw(s.cam.MeshPosition(s.pieces.Offset()), 1, s.cam.Reversed)

		if s.overlay != nil {
			s.drawOverlay(fps)
		}

		frames++
		if time.Since(lastFPSCheckTime) >= time.Second {
			fps = frames
			frames = 0
			lastFPSCheckTime = time.Now()
		}

		s.window.SwapBuffers()
		glfw.PollEvents()
	}
}

func (s *session) drawOverlay(fps int) {
	lines := []string{
		fmt.Sprintf("fps %d  pieces %d  zoom %.0f", fps, s.board.PieceCount(), s.cam.Zoom),
		fmt.Sprintf("focus (%.0f, %.0f)  offset (%.0f, %.0f)",
			s.cam.Focus[0], s.cam.Focus[1], s.pieces.Offset()[0], s.pieces.Offset()[1]),
	}
	if s.pieces.Busy() {
		done, total := s.pieces.Progress()
		lines = append(lines, fmt.Sprintf("rebuilding %d/%d", done, total))
	}
	if d := profiling.SumWithPrefix("mesh."); d > 0 {
		lines = append(lines, fmt.Sprintf("mesh total %.1fms", float64(d.Microseconds())/1000))
	}
	if top := profiling.TopN(3); top != "" {
		lines = append(lines, top)
	}
	s.overlay.RenderLines(lines, 8, 20, 18, 1.0, mgl32.Vec3{1, 1, 1})
}

// handleHeldKeys pans the camera while movement keys are down.
func (s *session) handleHeldKeys(dt float64) {
	speed := 12.0 * dt // squares per second at any zoom
	dx, dy := 0.0, 0.0
	if s.window.GetKey(glfw.KeyLeft) == glfw.Press || s.window.GetKey(glfw.KeyA) == glfw.Press {
		dx -= speed
	}
	if s.window.GetKey(glfw.KeyRight) == glfw.Press || s.window.GetKey(glfw.KeyD) == glfw.Press {
		dx += speed
	}
	if s.window.GetKey(glfw.KeyDown) == glfw.Press || s.window.GetKey(glfw.KeyS) == glfw.Press {
		dy -= speed
	}
	if s.window.GetKey(glfw.KeyUp) == glfw.Press || s.window.GetKey(glfw.KeyW) == glfw.Press {
		dy += speed
	}
	if dx != 0 || dy != 0 {
		s.cam.Pan(dx, dy)
	}
}

// randomMove nudges a random piece one square; occasionally promotes a
// pawn. Purely a mesh stress driver, not chess.
func (s *session) randomMove() {
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	for tries := 0; tries < 32; tries++ {
		pt := board.PieceTypes[s.rng.Intn(len(board.PieceTypes))]
		bucket := s.board.Bucket(pt)
		if len(bucket) == 0 {
			continue
		}
		p := bucket[s.rng.Intn(len(bucket))]
		if p == nil {
			continue
		}
		if (pt == board.WhitePawn || pt == board.BlackPawn) && s.rng.Intn(8) == 0 {
			promoteTo := board.WhiteQueen
			if pt == board.BlackPawn {
				promoteTo = board.BlackQueen
			}
			s.board.Promote(p.Pos, promoteTo)
			return
		}
		to := board.Coord{
			X: p.Pos.X + int64(s.rng.Intn(3)-1),
			Y: p.Pos.Y + int64(s.rng.Intn(3)-1),
		}
		if to == p.Pos {
			continue
		}
		s.board.Move(p.Pos, to)
		return
	}
}

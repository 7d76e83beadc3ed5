package main

import (
	"log"
	"math"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"endless-chess/internal/config"
	"endless-chess/internal/mesh"
)

// setupInputHandlers installs discrete key and scroll callbacks. Held-key
// panning is polled per frame in the session loop instead.
func setupInputHandlers(window *glfw.Window, s *session) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action != glfw.Press {
			return
		}
		switch key {
		case glfw.KeyEscape:
			w.SetShouldClose(true)

		case glfw.KeyEqual, glfw.KeyKPAdd:
			s.cam.ZoomBy(1.25)
		case glfw.KeyMinus, glfw.KeyKPSubtract:
			s.cam.ZoomBy(0.8)

		case glfw.KeyR:
			s.cam.Reversed = !s.cam.Reversed
			s.pieces.SetMirrorEnabled(s.cam.Reversed)
			log.Printf("reversed viewing: %v", s.cam.Reversed)

		case glfw.KeyV:
			config.SetVoidWireframe(!config.GetVoidWireframe())
			s.regenerateVoids()
			log.Printf("void wireframe: %v", config.GetVoidWireframe())

		case glfw.KeyT:
			if s.tint == nil {
				s.tint = &mesh.DefaultTints
			} else {
				s.tint = nil
			}
			s.pieces.Regenerate(s.board, s.tint, s.cam.Focus)
			log.Printf("piece tinting: %v", s.tint != nil)

		case glfw.KeyN:
			s.randomMove()

		case glfw.KeyG:
			// Teleport far out to exercise the recenter and glitch paths.
			s.cam.Focus[0] += 250_000
			s.cam.Focus[1] += 250_000
			log.Printf("focus jumped to (%.0f, %.0f)", s.cam.Focus[0], s.cam.Focus[1])

		case glfw.KeyHome:
			s.cam.Focus = [2]float64{4.5, 4.5}
		}
	})

	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		if yoff != 0 {
			s.cam.ZoomBy(math.Pow(1.1, yoff))
		}
	})

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		if width == 0 || height == 0 {
			return
		}
		s.cam.SetViewport(width, height)
		if s.overlay != nil {
			s.overlay.SetViewport(width, height)
		}
		gl.Viewport(0, 0, int32(width), int32(height))
	})
}

package main

import (
	"log"
	"runtime"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"

	"endless-chess/internal/board"
	"endless-chess/internal/config"
	"endless-chess/internal/graphics"
	"endless-chess/internal/graphics/renderer"
	"endless-chess/internal/mesh"
)

const (
	winWidth  = 1024
	winHeight = 768
)

func init() {
	runtime.LockOSThread()
}

func main() {
	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	window, err := setupWindow()
	if err != nil {
		panic(err)
	}

	if err := gl.Init(); err != nil {
		panic(err)
	}

	dev, err := renderer.NewGLDevice()
	if err != nil {
		panic(err)
	}

	atlas, err := graphics.LoadPieceAtlas("assets/textures/pieces.png")
	if err != nil {
		panic(err)
	}

	// Overlay font is optional; the demo runs without it.
	var overlay *graphics.FontRenderer
	if fontAtlas, err := graphics.BuildFontAtlas("assets/fonts/mono.ttf", 16); err != nil {
		log.Printf("overlay disabled: %v", err)
	} else if overlay, err = graphics.NewFontRenderer(fontAtlas, winWidth, winHeight); err != nil {
		log.Printf("overlay disabled: %v", err)
	}

	// Demo board: standard position plus a moat of void squares and a far
	// scatter to exercise chunked regeneration.
	b := board.New()
	b.SetupStandard()
	b.SetupScatter(3000, 42, 500)
	for x := int64(-6); x <= 14; x++ {
		b.AddVoid(board.Coord{X: x, Y: -3})
		b.AddVoid(board.Coord{X: x, Y: -4})
	}
	for y := int64(-2); y <= 12; y++ {
		b.AddVoid(board.Coord{X: -6, Y: y})
	}

	cam := graphics.NewCamera(winWidth, winHeight)
	cam.Focus = [2]float64{4.5, 4.5}

	policy := mesh.DefaultPolicy()
	sched := mesh.NewScheduler()
	pieces := mesh.NewPieceStore(dev, atlas, mesh.Texture(atlas.TextureID), policy, sched)
	voids := mesh.NewVoidStore(dev, policy, sched)

	session := &session{
		window:  window,
		board:   b,
		cam:     cam,
		policy:  policy,
		sched:   sched,
		pieces:  pieces,
		voids:   voids,
		dev:     dev,
		overlay: overlay,
	}
	b.SetListener(session)

	// First build runs synchronously; there is no frame to yield to yet.
	pieces.Regenerate(b, session.tint, cam.Focus)
	session.regenerateVoids()
	sched.RunToCompletion()

	setupInputHandlers(window, session)
	session.run()

	pieces.Dispose()
	voids.Dispose()
}

func setupWindow() (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)

	window, err := glfw.CreateWindow(winWidth, winHeight, "endless-chess", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	return window, nil
}

// regenerateVoids rebuilds the void mesh from the board's current void set
// with the configured render mode.
func (s *session) regenerateVoids() {
	mode := mesh.VoidSolid
	if config.GetVoidWireframe() {
		mode = mesh.VoidWireframe
	}
	rects := mesh.MergeVoidSquares(s.board.Voids())
	s.voids.Regenerate(rects, s.cam.Focus, mode)
}

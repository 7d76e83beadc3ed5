package renderer

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"endless-chess/internal/graphics"
	"endless-chess/internal/mesh"
)

const posVertSrc = `#version 410 core
layout (location = 0) in vec2 aPos;
uniform mat4 model;
uniform mat4 view;
uniform mat4 proj;
void main() {
    gl_Position = proj * view * model * vec4(aPos, 0.0, 1.0);
}
`

const posFragSrc = `#version 410 core
out vec4 FragColor;
uniform vec4 color;
void main() {
    FragColor = color;
}
`

const uvVertSrc = `#version 410 core
layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aUV;
out vec2 vUV;
uniform mat4 model;
uniform mat4 view;
uniform mat4 proj;
void main() {
    gl_Position = proj * view * model * vec4(aPos, 0.0, 1.0);
    vUV = aUV;
}
`

const uvFragSrc = `#version 410 core
in vec2 vUV;
out vec4 FragColor;
uniform sampler2D tex;
void main() {
    vec4 c = texture(tex, vUV);
    if (c.a < 0.01) discard;
    FragColor = c;
}
`

const uvColorVertSrc = `#version 410 core
layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aUV;
layout (location = 2) in vec4 aColor;
out vec2 vUV;
out vec4 vColor;
uniform mat4 model;
uniform mat4 view;
uniform mat4 proj;
void main() {
    gl_Position = proj * view * model * vec4(aPos, 0.0, 1.0);
    vUV = aUV;
    vColor = aColor;
}
`

const uvColorFragSrc = `#version 410 core
in vec2 vUV;
in vec4 vColor;
out vec4 FragColor;
uniform sampler2D tex;
void main() {
    vec4 c = texture(tex, vUV) * vColor;
    if (c.a < 0.01) discard;
    FragColor = c;
}
`

// GLDevice implements mesh.Device on top of raw GL buffers. One shader
// program per attribute layout; view/projection are set once per frame.
type GLDevice struct {
	progPos     *graphics.Shader
	progUV      *graphics.Shader
	progUVColor *graphics.Shader

	view  mgl32.Mat4
	proj  mgl32.Mat4
	solid mgl32.Vec4
}

// NewGLDevice compiles the per-layout shader programs.
func NewGLDevice() (*GLDevice, error) {
	progPos, err := graphics.NewShaderFromSource(posVertSrc, posFragSrc)
	if err != nil {
		return nil, fmt.Errorf("pos shader: %w", err)
	}
	progUV, err := graphics.NewShaderFromSource(uvVertSrc, uvFragSrc)
	if err != nil {
		return nil, fmt.Errorf("uv shader: %w", err)
	}
	progUVColor, err := graphics.NewShaderFromSource(uvColorVertSrc, uvColorFragSrc)
	if err != nil {
		return nil, fmt.Errorf("uv+color shader: %w", err)
	}
	return &GLDevice{
		progPos:     progPos,
		progUV:      progUV,
		progUVColor: progUVColor,
		view:        mgl32.Ident4(),
		proj:        mgl32.Ident4(),
		solid:       mgl32.Vec4{0, 0, 0, 1},
	}, nil
}

// SetCamera installs the view and projection used by subsequent draws.
func (d *GLDevice) SetCamera(view, proj mgl32.Mat4) {
	d.view = view
	d.proj = proj
}

// SetSolidColor sets the color used by position-only buffers.
func (d *GLDevice) SetSolidColor(c mgl32.Vec4) {
	d.solid = c
}

// CreateBuffer uploads the vertex slice into a fresh VAO/VBO pair and
// returns its handle. The handle keeps the slice; UpdateRange re-uploads
// spans of it.
func (d *GLDevice) CreateBuffer(verts []float32, layout mesh.AttributeLayout, prim mesh.PrimitiveKind, tex mesh.Texture) mesh.Handle {
	b := &glBuffer{
		dev:    d,
		verts:  verts,
		layout: layout,
		prim:   prim,
		tex:    uint32(tex),
		stride: layout.Stride(),
	}
	gl.GenVertexArrays(1, &b.vao)
	gl.GenBuffers(1, &b.vbo)
	gl.BindVertexArray(b.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	if len(verts) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.DYNAMIC_DRAW)
	}

	strideBytes := int32(b.stride * 4)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(0, 2, gl.FLOAT, false, strideBytes, gl.PtrOffset(0))
	if layout == mesh.LayoutPosUV || layout == mesh.LayoutPosUVColor {
		gl.EnableVertexAttribArray(1)
		gl.VertexAttribPointer(1, 2, gl.FLOAT, false, strideBytes, gl.PtrOffset(2*4))
	}
	if layout == mesh.LayoutPosUVColor {
		gl.EnableVertexAttribArray(2)
		gl.VertexAttribPointer(2, 4, gl.FLOAT, false, strideBytes, gl.PtrOffset(4*4))
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
	return b
}

type glBuffer struct {
	dev    *GLDevice
	verts  []float32
	vao    uint32
	vbo    uint32
	layout mesh.AttributeLayout
	prim   mesh.PrimitiveKind
	tex    uint32
	stride int
}

// UpdateRange re-uploads a byte span from the retained vertex slice.
func (b *glBuffer) UpdateRange(byteOffset, byteLength int) {
	if byteLength <= 0 || b.vbo == 0 {
		return
	}
	if byteOffset < 0 || byteOffset+byteLength > len(b.verts)*4 || byteOffset%4 != 0 {
		panic(fmt.Sprintf("renderer: update range [%d, %d) outside buffer of %d bytes",
			byteOffset, byteOffset+byteLength, len(b.verts)*4))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, b.vbo)
	gl.BufferSubData(gl.ARRAY_BUFFER, byteOffset, byteLength, gl.Ptr(b.verts[byteOffset/4:]))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

// Render draws the buffer translated to position and scaled uniformly.
func (b *glBuffer) Render(position mgl32.Vec2, scale float32) {
	if b.vao == 0 || len(b.verts) == 0 {
		return
	}
	var prog *graphics.Shader
	switch b.layout {
	case mesh.LayoutPos:
		prog = b.dev.progPos
	case mesh.LayoutPosUV:
		prog = b.dev.progUV
	case mesh.LayoutPosUVColor:
		prog = b.dev.progUVColor
	}
	prog.Use()

	model := mgl32.Translate3D(position.X(), position.Y(), 0).Mul4(mgl32.Scale3D(scale, scale, 1))
	prog.SetMatrix4("model", &model[0])
	prog.SetMatrix4("view", &b.dev.view[0])
	prog.SetMatrix4("proj", &b.dev.proj[0])

	if b.layout == mesh.LayoutPos {
		c := b.dev.solid
		prog.SetVector4("color", c.X(), c.Y(), c.Z(), c.W())
	} else {
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, b.tex)
		prog.SetInt("tex", 0)
	}

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.BindVertexArray(b.vao)
	mode := uint32(gl.TRIANGLES)
	if b.prim == mesh.Lines {
		mode = gl.LINES
	}
	gl.DrawArrays(mode, 0, int32(len(b.verts)/b.stride))
	gl.BindVertexArray(0)
	gl.Disable(gl.BLEND)
}

// Release deletes the GL objects. The handle is dead afterwards.
func (b *glBuffer) Release() {
	if b.vbo != 0 {
		gl.DeleteBuffers(1, &b.vbo)
		b.vbo = 0
	}
	if b.vao != 0 {
		gl.DeleteVertexArrays(1, &b.vao)
		b.vao = 0
	}
	b.verts = nil
}

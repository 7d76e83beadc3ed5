package graphics

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Shader is a linked GL program. Every program in this repo is built from
// GLSL sources embedded in the Go code, so there is no file loading path.
type Shader struct {
	ID uint32
}

// NewShaderFromSource compiles and links a vertex/fragment source pair.
func NewShaderFromSource(vertexSrc, fragmentSrc string) (*Shader, error) {
	vert, err := compileStage(vertexSrc, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("vertex stage: %w", err)
	}
	frag, err := compileStage(fragmentSrc, gl.FRAGMENT_SHADER)
	if err != nil {
		gl.DeleteShader(vert)
		return nil, fmt.Errorf("fragment stage: %w", err)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vert)
	gl.AttachShader(program, frag)
	gl.LinkProgram(program)
	gl.DeleteShader(vert)
	gl.DeleteShader(frag)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		return nil, fmt.Errorf("link program: %s", programLog(program))
	}
	return &Shader{ID: program}, nil
}

// Use activates the program.
func (s *Shader) Use() {
	gl.UseProgram(s.ID)
}

func (s *Shader) loc(name string) int32 {
	return gl.GetUniformLocation(s.ID, gl.Str(name+"\x00"))
}

// SetInt sets an integer uniform (also used for sampler units).
func (s *Shader) SetInt(name string, value int32) {
	gl.Uniform1i(s.loc(name), value)
}

// SetVector3 sets a vec3 uniform.
func (s *Shader) SetVector3(name string, x, y, z float32) {
	gl.Uniform3f(s.loc(name), x, y, z)
}

// SetVector4 sets a vec4 uniform.
func (s *Shader) SetVector4(name string, x, y, z, w float32) {
	gl.Uniform4f(s.loc(name), x, y, z, w)
}

// SetMatrix4 sets a 4x4 matrix uniform from its first element.
func (s *Shader) SetMatrix4(name string, value *float32) {
	gl.UniformMatrix4fv(s.loc(name), 1, false, value)
}

func compileStage(source string, kind uint32) (uint32, error) {
	shader := gl.CreateShader(kind)
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		log := shaderLog(shader)
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile: %s", log)
	}
	return shader, nil
}

func shaderLog(shader uint32) string {
	var length int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &length)
	log := strings.Repeat("\x00", int(length+1))
	gl.GetShaderInfoLog(shader, length, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func programLog(program uint32) string {
	var length int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &length)
	log := strings.Repeat("\x00", int(length+1))
	gl.GetProgramInfoLog(program, length, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

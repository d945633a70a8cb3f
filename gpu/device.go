// Package gpu describes the slice of the OpenGL API the effect pipeline uses.
//
// Everything that touches the GPU goes through Device so the pipeline can run
// against the real driver (gpu/glcore) or a recording fake (gpu/gputest).
package gpu

import "github.com/go-gl/mathgl/mgl32"

// ShaderStage identifies a programmable pipeline stage.
type ShaderStage int

const (
	VertexStage ShaderStage = iota
	FragmentStage
)

func (s ShaderStage) String() string {
	switch s {
	case VertexStage:
		return "vertex"
	case FragmentStage:
		return "fragment"
	default:
		return "unknown"
	}
}

// ClearMask selects the buffers cleared by Clear.
type ClearMask uint32

const (
	ColorBuffer ClearMask = 1 << iota
	DepthBuffer
)

// Device is the set of GPU calls issued by the pipeline. All methods must be
// called from the goroutine that owns the current GL context.
type Device interface {
	// Shaders and programs.
	CreateShader(stage ShaderStage) uint32
	CompileShader(shader uint32, source string) (ok bool, infoLog string)
	DeleteShader(shader uint32)
	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32) (ok bool, infoLog string)
	UseProgram(program uint32)
	DeleteProgram(program uint32)
	GetAttribLocation(program uint32, name string) int32
	GetUniformLocation(program uint32, name string) int32

	// Vertex data.
	GenVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)
	GenBuffer() uint32
	BindArrayBuffer(buffer uint32)
	ArrayBufferData(data []float32)
	DeleteBuffer(buffer uint32)
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32)

	// Textures.
	GenTexture() uint32
	ActiveTexture(unit uint32)
	BindTexture(texture uint32)
	// TexParameters sets nearest filtering and clamp-to-edge wrapping on the
	// bound texture.
	TexParameters()
	TexImage2D(width, height int32, pixels []byte)
	TexSubImage2D(width, height int32, pixels []byte)
	DeleteTexture(texture uint32)

	// Uniforms.
	Uniform1i(location int32, v int32)
	UniformMatrix4fv(location int32, m mgl32.Mat4)

	// Framebuffer state and drawing.
	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	Clear(mask ClearMask)
	// EnableDepthTest enables depth testing with LEQUAL comparison.
	EnableDepthTest()
	DrawTriangleStrip(first, count int32)
}

// Package renderer draws the latest camera frame through the active effect.
package renderer

import (
	"log"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/richinsley/goshadercam/capture"
	"github.com/richinsley/goshadercam/effect"
	"github.com/richinsley/goshadercam/gpu"
)

// Names of the resources the renderer feeds when an effect declares them.
const (
	AttribPosition   = "position"
	AttribUV         = "uv"
	UniformTexture   = "map"
	UniformProject   = "projectionMatrix"
	UniformModelView = "modelViewMatrix"
)

// DefaultClearColor is opaque red.
var DefaultClearColor = [4]float32{1, 0, 0, 1}

// Projection returns the orthographic projection used for every frame. It
// maps the quad's corners onto the viewport edges whatever its aspect ratio.
func Projection() mgl32.Mat4 {
	return mgl32.Ortho(-1, 1, -1, 1, 0.1, 1000)
}

// ModelView places the quad one unit in front of the camera.
func ModelView() mgl32.Mat4 {
	return mgl32.Ident4().Mul4(mgl32.Translate3D(0, 0, -1))
}

// Renderer issues the draw of one frame.
type Renderer struct {
	dev      gpu.Device
	geometry *GeometryBuffer
	texture  *FrameTexture
	width    int32
	height   int32

	// causes already logged, so a broken source does not flood the log
	warned map[string]bool
}

// NewRenderer uploads the quad and allocates a frame texture matching the
// source. The viewport is fixed to width x height.
func NewRenderer(dev gpu.Device, src capture.Source, width, height int) (*Renderer, error) {
	texture, err := NewFrameTexture(dev, src.Width(), src.Height())
	if err != nil {
		return nil, err
	}
	return &Renderer{
		dev:      dev,
		geometry: NewGeometryBuffer(dev),
		texture:  texture,
		width:    int32(width),
		height:   int32(height),
		warned:   make(map[string]bool),
	}, nil
}

// Texture returns the frame texture.
func (r *Renderer) Texture() *FrameTexture { return r.texture }

// Tick uploads the current frame if one is ready and draws the quad through
// e, which must be Ready.
func (r *Renderer) Tick(src capture.Source, e *effect.Effect) {
	dev := r.dev

	if src.Ready() {
		if !r.texture.Upload(dev, src) {
			r.warnOnce("upload", "Frame skipped: source delivered no %dx%d frame", r.texture.Width(), r.texture.Height())
		}
	}

	dev.Viewport(0, 0, r.width, r.height)
	dev.Clear(gpu.ColorBuffer | gpu.DepthBuffer)

	projection := Projection()
	modelView := ModelView()

	dev.BindVertexArray(r.geometry.VAO)
	e.Enable(dev)

	h := e.Handles()
	dev.ActiveTexture(0)
	dev.BindTexture(r.texture.ID)
	if loc, ok := h.Uniform(UniformTexture); ok {
		dev.Uniform1i(loc, 0)
	}

	if loc, ok := h.Attribute(AttribUV); ok {
		dev.BindArrayBuffer(r.geometry.UVs)
		dev.VertexAttribPointer(loc, 2)
	}
	if loc, ok := h.Attribute(AttribPosition); ok {
		dev.BindArrayBuffer(r.geometry.Positions)
		dev.VertexAttribPointer(loc, 3)
	}

	if loc, ok := h.Uniform(UniformProject); ok {
		dev.UniformMatrix4fv(loc, projection)
	}
	if loc, ok := h.Uniform(UniformModelView); ok {
		dev.UniformMatrix4fv(loc, modelView)
	}

	dev.DrawTriangleStrip(0, quadVertexCount)
	e.Disable(dev)
}

func (r *Renderer) warnOnce(cause, format string, args ...any) {
	if r.warned[cause] {
		return
	}
	r.warned[cause] = true
	log.Printf(format, args...)
}

// Dispose releases the quad and the texture.
func (r *Renderer) Dispose() {
	r.geometry.Dispose(r.dev)
	r.texture.Dispose(r.dev)
}

package renderer

import "github.com/richinsley/goshadercam/gpu"

// Full-screen quad drawn as a triangle strip.
var (
	quadPositions = []float32{
		1, 1, 0,
		-1, 1, 0,
		1, -1, 0,
		-1, -1, 0,
	}
	quadUVs = []float32{
		1, 1,
		0, 1,
		1, 0,
		0, 0,
	}
)

const quadVertexCount = 4

// GeometryBuffer holds the quad's vertex array and its position and uv
// buffers.
type GeometryBuffer struct {
	VAO       uint32
	Positions uint32
	UVs       uint32
}

// NewGeometryBuffer uploads the quad.
func NewGeometryBuffer(dev gpu.Device) *GeometryBuffer {
	g := &GeometryBuffer{VAO: dev.GenVertexArray()}
	dev.BindVertexArray(g.VAO)

	g.Positions = dev.GenBuffer()
	dev.BindArrayBuffer(g.Positions)
	dev.ArrayBufferData(quadPositions)

	g.UVs = dev.GenBuffer()
	dev.BindArrayBuffer(g.UVs)
	dev.ArrayBufferData(quadUVs)

	dev.BindArrayBuffer(0)
	dev.BindVertexArray(0)
	return g
}

// Dispose deletes the buffers and the vertex array.
func (g *GeometryBuffer) Dispose(dev gpu.Device) {
	dev.DeleteBuffer(g.Positions)
	dev.DeleteBuffer(g.UVs)
	dev.DeleteVertexArray(g.VAO)
}

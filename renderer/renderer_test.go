package renderer

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goshadercam/effect"
	"github.com/richinsley/goshadercam/gpu/gputest"
	"github.com/richinsley/goshadercam/shader"
)

var (
	testAttributes = []string{AttribUV, AttribPosition}
	testUniforms   = []string{UniformProject, UniformModelView, UniformTexture}
)

// fakeSource serves a fixed frame once ready is set.
type fakeSource struct {
	width, height int
	ready         bool
	pixels        []byte
	reads         int
}

func newFakeSource(width, height int) *fakeSource {
	pixels := make([]byte, width*height*4)
	for i := range pixels {
		pixels[i] = byte(i)
	}
	return &fakeSource{width: width, height: height, pixels: pixels}
}

func (s *fakeSource) Width() int  { return s.width }
func (s *fakeSource) Height() int { return s.height }
func (s *fakeSource) Ready() bool { return s.ready }

func (s *fakeSource) ReadPixels(dst []byte) bool {
	s.reads++
	if len(dst) != len(s.pixels) {
		return false
	}
	copy(dst, s.pixels)
	return true
}

func readyEffect(t *testing.T, dev *gputest.Device, name string) *effect.Effect {
	t.Helper()
	e := effect.New(name, shader.Source{Vertex: "void main() {}", Fragment: "void main() {}", VertexID: "vs", FragmentID: "fs"},
		effect.NewManifest(testAttributes, testUniforms))
	require.NoError(t, e.Initialise(dev, nil))
	return e
}

func TestFrameTextureAllocation(t *testing.T) {
	dev := gputest.New(nil, nil)
	tex, err := NewFrameTexture(dev, 4, 2)
	require.NoError(t, err)

	state := dev.Textures[tex.ID]
	require.NotNil(t, state)
	assert.Equal(t, int32(4), state.Width)
	assert.Equal(t, int32(2), state.Height)
	assert.True(t, state.Parameterised)
	assert.Equal(t, 1, state.Allocations)

	_, err = NewFrameTexture(dev, 0, 2)
	assert.Error(t, err)
}

func TestFrameTextureUploadFlipsRows(t *testing.T) {
	dev := gputest.New(nil, nil)
	src := &fakeSource{width: 1, height: 3, ready: true, pixels: []byte{
		1, 1, 1, 1,
		2, 2, 2, 2,
		3, 3, 3, 3,
	}}
	tex, err := NewFrameTexture(dev, 1, 3)
	require.NoError(t, err)

	require.True(t, tex.Upload(dev, src))
	state := dev.Textures[tex.ID]
	assert.Equal(t, []byte{
		3, 3, 3, 3,
		2, 2, 2, 2,
		1, 1, 1, 1,
	}, state.Pixels)
	assert.Equal(t, 1, state.Allocations, "uploads reuse the allocated storage")
	assert.Equal(t, 1, state.Uploads)

	assert.False(t, tex.Upload(dev, newFakeSource(2, 3)), "size mismatch is skipped")
	assert.Equal(t, 1, state.Uploads)
}

func TestProjectionMapsCornersToViewportEdges(t *testing.T) {
	mvp := Projection().Mul4(ModelView())
	corners := [][2]float32{{-1, -1}, {1, -1}, {-1, 1}, {1, 1}}

	for _, size := range [][2]float32{{640, 480}, {480, 640}, {1920, 1080}, {100, 100}, {1, 1000}} {
		w, h := size[0], size[1]
		for _, c := range corners {
			clip := mvp.Mul4x1(mgl32.Vec4{c[0], c[1], 0, 1})
			ndc := clip.Vec3().Mul(1 / clip.W())

			px := (ndc.X() + 1) / 2 * w
			py := (ndc.Y() + 1) / 2 * h
			wantX := (c[0] + 1) / 2 * w
			wantY := (c[1] + 1) / 2 * h
			assert.InDelta(t, wantX, px, 1e-3, "x of corner %v in %vx%v", c, w, h)
			assert.InDelta(t, wantY, py, 1e-3, "y of corner %v in %vx%v", c, w, h)
			assert.True(t, ndc.Z() >= -1 && ndc.Z() <= 1, "corner %v is clipped in depth", c)
		}
	}
}

func TestTickWithoutFrameStillDraws(t *testing.T) {
	dev := gputest.New(testAttributes, testUniforms)
	e := readyEffect(t, dev, "dithering")
	src := newFakeSource(8, 6)

	r, err := NewRenderer(dev, src, 64, 48)
	require.NoError(t, err)

	mark := dev.Mark()
	r.Tick(src, e)
	calls := dev.Since(mark)

	assert.Equal(t, 0, src.reads)
	assert.Equal(t, 0, dev.Textures[r.Texture().ID].Uploads)
	assert.NotContains(t, calls, "TexSubImage2D(8, 6)")
	assert.Equal(t, []string{
		"Viewport(0, 0, 64, 48)",
		"Clear(3)",
		"BindVertexArray(5)",
		"UseProgram(3)",
		"EnableVertexAttribArray(0)",
		"EnableVertexAttribArray(1)",
		"ActiveTexture(0)",
		"BindTexture(4)",
		"Uniform1i(2, 0)",
		"BindArrayBuffer(7)",
		"VertexAttribPointer(0, 2)",
		"BindArrayBuffer(6)",
		"VertexAttribPointer(1, 3)",
		"UniformMatrix4fv(0)",
		"UniformMatrix4fv(1)",
		"DrawTriangleStrip(0, 4)",
		"DisableVertexAttribArray(0)",
		"DisableVertexAttribArray(1)",
	}, calls)

	assert.Equal(t, Projection(), dev.Matrices[0])
	assert.Equal(t, ModelView(), dev.Matrices[1])
	assert.Equal(t, int32(0), dev.Ints[2])
}

func TestTickUploadsReadyFrame(t *testing.T) {
	dev := gputest.New(testAttributes, testUniforms)
	e := readyEffect(t, dev, "dithering")
	src := newFakeSource(8, 6)
	src.ready = true

	r, err := NewRenderer(dev, src, 8, 6)
	require.NoError(t, err)

	mark := dev.Mark()
	r.Tick(src, e)
	calls := dev.Since(mark)

	assert.Equal(t, 1, src.reads)
	assert.Equal(t, []string{"BindTexture(4)", "TexSubImage2D(8, 6)", "Viewport(0, 0, 8, 6)"}, calls[:3])
	assert.Equal(t, 1, dev.Count("DrawTriangleStrip("))
}

func TestTickFeedsOnlyDeclaredResources(t *testing.T) {
	dev := gputest.New([]string{AttribPosition}, nil)
	e := effect.New("flat", shader.Source{Vertex: "v", Fragment: "f"}, effect.NewManifest([]string{AttribPosition}, nil))
	require.NoError(t, e.Initialise(dev, nil))
	src := newFakeSource(2, 2)

	r, err := NewRenderer(dev, src, 2, 2)
	require.NoError(t, err)

	mark := dev.Mark()
	r.Tick(src, e)
	calls := dev.Since(mark)

	assert.Contains(t, calls, "VertexAttribPointer(0, 3)")
	assert.Contains(t, calls, "DrawTriangleStrip(0, 4)")
	for _, c := range calls {
		assert.NotContains(t, c, "Uniform")
	}
}

func TestRendererDispose(t *testing.T) {
	dev := gputest.New(nil, nil)
	r, err := NewRenderer(dev, newFakeSource(2, 2), 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, dev.Live("texture"))
	assert.Equal(t, 2, dev.Live("buffer"))
	assert.Equal(t, 1, dev.Live("vao"))

	r.Dispose()
	assert.Equal(t, 0, dev.Live("texture"))
	assert.Equal(t, 0, dev.Live("buffer"))
	assert.Equal(t, 0, dev.Live("vao"))
}

package effect

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goshadercam/gpu"
	"github.com/richinsley/goshadercam/gpu/gputest"
	"github.com/richinsley/goshadercam/shader"
)

var (
	testAttributes = []string{"uv", "position"}
	testUniforms   = []string{"projectionMatrix", "modelViewMatrix", "map"}
)

func testEffect(name string) *Effect {
	src := shader.Source{
		Vertex:     "void main() {}",
		Fragment:   "void main() {}",
		VertexID:   "vs",
		FragmentID: "fs",
	}
	return New(name, src, NewManifest(testAttributes, testUniforms))
}

// prefixer renames every manifest symbol the way ANGLE does.
type prefixer struct{}

func (prefixer) Translate(source string, stage gpu.ShaderStage) (*shader.Translation, error) {
	names := make(map[string]string)
	for _, n := range append(append([]string{}, testAttributes...), testUniforms...) {
		names[n] = "_u" + n
	}
	return &shader.Translation{Code: source, Names: names}, nil
}

func TestManifestValidate(t *testing.T) {
	assert.NoError(t, NewManifest(testAttributes, testUniforms).Validate())
	assert.Error(t, NewManifest([]string{"uv", ""}, nil).Validate())
	assert.Error(t, NewManifest([]string{"uv"}, []string{"uv"}).Validate())

	m := NewManifest([]string{"a"}, []string{"b"})
	assert.Equal(t, Manifest{{Name: "a", Kind: Attribute}, {Name: "b", Kind: Uniform}}, m)
}

func TestInitialiseResolvesEveryResource(t *testing.T) {
	dev := gputest.New(testAttributes, testUniforms)
	e := testEffect("dithering")

	require.NoError(t, e.Initialise(dev, nil))
	assert.Equal(t, Ready, e.State())
	require.NotNil(t, e.Program())

	h := e.Handles()
	assert.Equal(t, 5, h.Len())
	for _, r := range e.Manifest() {
		if r.Kind == Attribute {
			_, ok := h.Attribute(r.Name)
			assert.True(t, ok, r.Name)
		} else {
			loc, ok := h.Uniform(r.Name)
			assert.True(t, ok, r.Name)
			assert.GreaterOrEqual(t, loc, int32(0))
		}
	}
	locs := h.AttributeLocations()
	assert.Equal(t, []uint32{0, 1}, locs)
	locs[0] = 9
	assert.Equal(t, []uint32{0, 1}, e.Handles().AttributeLocations(), "callers get a copy")

	mark := dev.Mark()
	e.Enable(dev)
	assert.Equal(t, []string{"UseProgram(3)", "EnableVertexAttribArray(0)", "EnableVertexAttribArray(1)"}, dev.Since(mark))
}

func TestInitialiseUsesTranslatedNames(t *testing.T) {
	dev := gputest.New([]string{"_uuv", "_uposition"}, []string{"_uprojectionMatrix", "_umodelViewMatrix", "_umap"})
	e := testEffect("dithering")

	require.NoError(t, e.Initialise(dev, prefixer{}))
	loc, ok := e.Handles().Uniform("map")
	assert.True(t, ok)
	assert.Equal(t, int32(2), loc)
}

func TestInitialiseMissingResourceLeavesEffectUnusable(t *testing.T) {
	dev := gputest.New(testAttributes, []string{"projectionMatrix", "modelViewMatrix"})
	e := testEffect("posterize")

	err := e.Initialise(dev, nil)
	var missing *MissingResourceError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "map", missing.Name)
	assert.Equal(t, Uniform, missing.Kind)
	assert.Equal(t, "posterize", missing.Effect)
	assert.Contains(t, err.Error(), "posterize")

	assert.Equal(t, Uninitialised, e.State())
	assert.Nil(t, e.Program())
	assert.Equal(t, 0, dev.Live("program"))
	assert.Panics(t, func() { e.Enable(dev) })
	assert.Panics(t, func() { e.Disable(dev) })
}

func TestInitialiseCompileErrorLeavesEffectUninitialised(t *testing.T) {
	dev := gputest.New(testAttributes, testUniforms)
	dev.CompileLog = func(stage gpu.ShaderStage, source string) string {
		if stage == gpu.FragmentStage {
			return "syntax error"
		}
		return ""
	}
	e := testEffect("posterize")

	err := e.Initialise(dev, nil)
	var ce *shader.CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, gpu.FragmentStage, ce.Unit)
	assert.Equal(t, Uninitialised, e.State())
}

func TestLifecycleErrors(t *testing.T) {
	dev := gputest.New(testAttributes, testUniforms)
	e := testEffect("dithering")

	require.NoError(t, e.Initialise(dev, nil))
	assert.ErrorIs(t, e.Initialise(dev, nil), ErrAlreadyInitialised)

	e.Dispose(dev)
	e.Dispose(dev)
	assert.Equal(t, Disposed, e.State())
	assert.Equal(t, 1, dev.Count("DeleteProgram("))
	assert.Equal(t, 0, dev.Live("program"))
	assert.ErrorIs(t, e.Initialise(dev, nil), ErrDisposed)
	assert.Panics(t, func() { e.Enable(dev) })
}

func TestEnableDisable(t *testing.T) {
	dev := gputest.New(testAttributes, testUniforms)
	e := testEffect("dithering")
	require.NoError(t, e.Initialise(dev, nil))

	mark := dev.Mark()
	e.Enable(dev)
	e.Disable(dev)
	assert.Equal(t, []string{
		"UseProgram(3)",
		"EnableVertexAttribArray(0)",
		"EnableVertexAttribArray(1)",
		"DisableVertexAttribArray(0)",
		"DisableVertexAttribArray(1)",
	}, dev.Since(mark))
}

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

func TestRegistrySelection(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Active()
	assert.ErrorIs(t, err, ErrNoActiveEffect)

	require.NoError(t, reg.Register(testEffect("dithering")))
	require.NoError(t, reg.Register(testEffect("posterize")))
	assert.Error(t, reg.Register(testEffect("posterize")))
	assert.Equal(t, 2, reg.Len())

	require.NoError(t, reg.SetActive(1))
	active, err := reg.Active()
	require.NoError(t, err)
	assert.Equal(t, "posterize", active.Name())

	for _, index := range []int{-1, 2, 5} {
		err := reg.SetActive(index)
		var unknown *UnknownEffectError
		require.True(t, errors.As(err, &unknown))
		assert.Equal(t, index, unknown.Index)

		active, err := reg.Active()
		require.NoError(t, err)
		assert.Equal(t, "posterize", active.Name(), "failed selection keeps the previous effect")
	}

	assert.EqualError(t, reg.SetActiveName("sepia"), `unknown effect "sepia"`)
	active, _ = reg.Active()
	assert.Equal(t, "posterize", active.Name())

	require.NoError(t, reg.SetActiveName("dithering"))
	active, _ = reg.Active()
	assert.Equal(t, "dithering", active.Name())
}

func TestRegistryInitialiseAllStopsAtFirstFailure(t *testing.T) {
	dev := gputest.New(testAttributes, testUniforms)
	dev.CompileLog = func(stage gpu.ShaderStage, source string) string {
		if source == "broken" {
			return "syntax error"
		}
		return ""
	}

	reg := NewRegistry()
	broken := New("broken", shader.Source{Vertex: "void main() {}", Fragment: "broken", VertexID: "vs", FragmentID: "fs_x"},
		NewManifest(testAttributes, testUniforms))
	require.NoError(t, reg.Register(testEffect("dithering")))
	require.NoError(t, reg.Register(broken))
	require.NoError(t, reg.Register(testEffect("posterize")))

	err := reg.InitialiseAll(dev, nil)
	assert.ErrorContains(t, err, "fs_x")

	states := []State{}
	for _, e := range reg.Effects() {
		states = append(states, e.State())
	}
	assert.Equal(t, []State{Ready, Uninitialised, Uninitialised}, states)

	reg.Dispose(dev)
	assert.Equal(t, 0, dev.Live("program"))
	_, err = reg.Active()
	assert.ErrorIs(t, err, ErrNoActiveEffect)
}

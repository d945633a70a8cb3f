package shader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinsley/goshadercam/gpu"
	"github.com/richinsley/goshadercam/gpu/gputest"
)

func TestRetargetBuiltinEffects(t *testing.T) {
	lib := Builtin()
	for _, fs := range []string{"fs", "fs_bw"} {
		src, err := lib.Source("vs", fs)
		require.NoError(t, err)

		for stage, text := range map[gpu.ShaderStage]string{gpu.VertexStage: src.Vertex, gpu.FragmentStage: src.Fragment} {
			out, err := Retarget{}.Translate(text, stage)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out.Code, "#version 410 core\n"), "%s %s", fs, stage)
			assert.NotContains(t, out.Code, "300 es")
			assert.Nil(t, out.Names)
			assert.Equal(t, strings.TrimPrefix(text, "#version 300 es"), strings.TrimPrefix(out.Code, "#version 410 core"))
		}
	}
}

func TestRetargetLeavesOtherText(t *testing.T) {
	out, err := Retarget{}.Translate("void main() {}\n", gpu.FragmentStage)
	require.NoError(t, err)
	assert.Equal(t, "void main() {}\n", out.Code)

	out, err = Retarget{}.Translate("// note\n  # version 300 es \nvoid main() {}\n", gpu.VertexStage)
	require.NoError(t, err)
	assert.Equal(t, "// note\n#version 410 core\nvoid main() {}\n", out.Code)

	out, err = Retarget{}.Translate("#version 330 core\n", gpu.VertexStage)
	require.NoError(t, err)
	assert.Equal(t, "#version 330 core\n", out.Code)
}

func TestCompileWithRetarget(t *testing.T) {
	dev := gputest.New(nil, nil)
	src, err := Builtin().Source("vs", "fs")
	require.NoError(t, err)

	_, err = Compile(dev, Retarget{}, src)
	require.NoError(t, err)
	for _, code := range dev.Sources {
		assert.True(t, strings.HasPrefix(code, "#version 410 core\n"))
	}
}

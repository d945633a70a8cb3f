package shader

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"sync"

	gst "github.com/richinsley/goshadertranslator"

	"github.com/richinsley/goshadercam/gpu"
)

// Translation is a shader unit rewritten for the target driver, plus the
// names the translator gave to the unit's interface variables.
type Translation struct {
	Code string
	// Names maps the symbol as written in the source to the symbol in Code.
	// A nil map means names were left untouched.
	Names map[string]string
}

// Translator turns effect shader text into something the GPU driver accepts.
type Translator interface {
	Translate(source string, stage gpu.ShaderStage) (*Translation, error)
}

// Passthrough hands shader text to the driver unchanged.
type Passthrough struct{}

func (Passthrough) Translate(source string, stage gpu.ShaderStage) (*Translation, error) {
	return &Translation{Code: source}, nil
}

var esVersion = regexp.MustCompile(`(?m)^[ \t]*#[ \t]*version[ \t]+300[ \t]+es[ \t]*$`)

// Retarget moves ESSL 3.00 shader text onto the desktop GLSL 4.10 core
// profile by rewriting its version directive. Everything else, precision
// statements included, is valid in both and is left as written. Text without
// an ESSL 3.00 directive passes through unchanged.
type Retarget struct{}

func (Retarget) Translate(source string, stage gpu.ShaderStage) (*Translation, error) {
	loc := esVersion.FindStringIndex(source)
	if loc == nil {
		return &Translation{Code: source}, nil
	}
	return &Translation{Code: source[:loc[0]] + "#version 410 core" + source[loc[1]:]}, nil
}

// ANGLETranslator validates ESSL 3.00 (WebGL2) shader text and emits GLSL 4.10
// core for the desktop context.
type ANGLETranslator struct {
	once  sync.Once
	ctx   context.Context
	xlate *gst.ShaderTranslator
	err   error
}

// NewANGLETranslator returns a translator that is started lazily on first use.
func NewANGLETranslator(ctx context.Context) *ANGLETranslator {
	return &ANGLETranslator{ctx: ctx}
}

func (t *ANGLETranslator) start() error {
	t.once.Do(func() {
		t.xlate, t.err = gst.NewShaderTranslator(t.ctx)
		if t.err == nil {
			log.Println("Shader translator initialized")
		}
	})
	return t.err
}

func (t *ANGLETranslator) Translate(source string, stage gpu.ShaderStage) (*Translation, error) {
	if err := t.start(); err != nil {
		return nil, fmt.Errorf("failed to start shader translator: %w", err)
	}
	out, err := t.xlate.TranslateShader(source, stage.String(), gst.ShaderSpecWebGL2, gst.OutputFormatGLSL410)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(out.Variables))
	for name, v := range out.Variables {
		names[name] = v.MappedName
	}
	return &Translation{Code: out.Code, Names: names}, nil
}

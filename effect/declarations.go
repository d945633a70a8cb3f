package effect

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/richinsley/goshadercam/shader"
)

//go:embed effects.toml
var builtinDeclarations []byte

// Declaration describes one effect: its name, the identifiers of its shader
// units and the resources those units expose.
type Declaration struct {
	Name       string   `toml:"name"`
	Vertex     string   `toml:"vertex"`
	Fragment   string   `toml:"fragment"`
	Attributes []string `toml:"attributes"`
	Uniforms   []string `toml:"uniforms"`
}

// Manifest returns the declaration's resource manifest.
func (d Declaration) Manifest() Manifest {
	return NewManifest(d.Attributes, d.Uniforms)
}

// Declarations is the list of effects to register plus the default
// selection.
type Declarations struct {
	Default string        `toml:"default"`
	Effects []Declaration `toml:"effect"`
}

// BuiltinDeclarations returns the effects shipped with the binary.
func BuiltinDeclarations() (*Declarations, error) {
	return ParseDeclarations(builtinDeclarations)
}

// LoadDeclarations reads a declarations file.
func LoadDeclarations(path string) (*Declarations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read effect declarations: %w", err)
	}
	d, err := ParseDeclarations(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return d, nil
}

// ParseDeclarations decodes TOML declarations. Unknown keys are rejected.
func ParseDeclarations(data []byte) (*Declarations, error) {
	var d Declarations
	dec := toml.NewDecoder(bytes.NewReader(data)).DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("invalid effect declarations: %w", err)
	}
	if err := d.validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

func (d *Declarations) validate() error {
	if len(d.Effects) == 0 {
		return fmt.Errorf("invalid effect declarations: no effects declared")
	}
	names := make(map[string]struct{}, len(d.Effects))
	for i, e := range d.Effects {
		if e.Name == "" || e.Vertex == "" || e.Fragment == "" {
			return fmt.Errorf("invalid effect declarations: effect %d needs name, vertex and fragment", i)
		}
		if _, dup := names[e.Name]; dup {
			return fmt.Errorf("invalid effect declarations: effect %q declared twice", e.Name)
		}
		names[e.Name] = struct{}{}
		if err := e.Manifest().Validate(); err != nil {
			return fmt.Errorf("invalid effect declarations: effect %q: %w", e.Name, err)
		}
	}
	if d.Default != "" {
		if _, ok := names[d.Default]; !ok {
			return fmt.Errorf("invalid effect declarations: %w", &UnknownEffectError{Name: d.Default})
		}
	}
	return nil
}

// Build registers one effect per declaration, in order, with shader text
// from lib, then selects the default effect (the first one when no default is
// declared). A missing shader identifier is returned as a
// *shader.UnknownShaderError.
func (d *Declarations) Build(lib *shader.Library) (*Registry, error) {
	reg := NewRegistry()
	for _, decl := range d.Effects {
		src, err := lib.Source(decl.Vertex, decl.Fragment)
		if err != nil {
			return nil, fmt.Errorf("effect %s: %w", decl.Name, err)
		}
		if err := reg.Register(New(decl.Name, src, decl.Manifest())); err != nil {
			return nil, err
		}
	}

	if d.Default != "" {
		if err := reg.SetActiveName(d.Default); err != nil {
			return nil, err
		}
	} else if err := reg.SetActive(0); err != nil {
		return nil, err
	}
	return reg, nil
}

package effect

import (
	"fmt"
	"slices"

	"github.com/richinsley/goshadercam/gpu"
	"github.com/richinsley/goshadercam/shader"
)

// Kind says how a manifest resource is looked up in a linked program.
type Kind int

const (
	Attribute Kind = iota
	Uniform
)

func (k Kind) String() string {
	if k == Attribute {
		return "attribute"
	}
	return "uniform"
}

// Resource is one named entry of a manifest.
type Resource struct {
	Name string
	Kind Kind
}

// Manifest declares the attributes and uniforms an effect's shaders expose.
type Manifest []Resource

// NewManifest builds a manifest listing attributes first, then uniforms.
func NewManifest(attributes, uniforms []string) Manifest {
	m := make(Manifest, 0, len(attributes)+len(uniforms))
	for _, name := range attributes {
		m = append(m, Resource{Name: name, Kind: Attribute})
	}
	for _, name := range uniforms {
		m = append(m, Resource{Name: name, Kind: Uniform})
	}
	return m
}

// Validate rejects empty and duplicate names.
func (m Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m))
	for _, r := range m {
		if r.Name == "" {
			return fmt.Errorf("manifest has an empty %s name", r.Kind)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("manifest declares %q more than once", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	return nil
}

// MissingResourceError is returned when a manifest name cannot be found in
// the linked program.
type MissingResourceError struct {
	Effect string
	Name   string
	Kind   Kind
}

func (e *MissingResourceError) Error() string {
	if e.Effect != "" {
		return fmt.Sprintf("%s %q not found in the program of effect %s", e.Kind, e.Name, e.Effect)
	}
	return fmt.Sprintf("%s %q not found in linked program", e.Kind, e.Name)
}

// Handles holds the locations resolved for a manifest.
type Handles struct {
	attributes map[string]uint32
	uniforms   map[string]int32
	// attribute locations in manifest order
	order []uint32
}

// Attribute returns the location of the named attribute.
func (h Handles) Attribute(name string) (uint32, bool) {
	loc, ok := h.attributes[name]
	return loc, ok
}

// Uniform returns the location of the named uniform.
func (h Handles) Uniform(name string) (int32, bool) {
	loc, ok := h.uniforms[name]
	return loc, ok
}

// AttributeLocations returns a copy of every attribute location in manifest
// order.
func (h Handles) AttributeLocations() []uint32 {
	return slices.Clone(h.order)
}

// Len returns the number of resolved entries.
func (h Handles) Len() int {
	return len(h.attributes) + len(h.uniforms)
}

// Resolve looks up every manifest entry in the linked program. The first
// entry that does not resolve to a non-negative location fails the whole
// resolution with a *MissingResourceError.
func Resolve(dev gpu.Device, program *shader.Program, manifest Manifest) (Handles, error) {
	h := Handles{
		attributes: make(map[string]uint32),
		uniforms:   make(map[string]int32),
	}
	for _, r := range manifest {
		symbol, ok := program.Symbol(r.Name)
		if !ok {
			return Handles{}, &MissingResourceError{Name: r.Name, Kind: r.Kind}
		}

		var loc int32
		if r.Kind == Attribute {
			loc = dev.GetAttribLocation(program.ID, symbol)
		} else {
			loc = dev.GetUniformLocation(program.ID, symbol)
		}
		if loc < 0 {
			return Handles{}, &MissingResourceError{Name: r.Name, Kind: r.Kind}
		}

		if r.Kind == Attribute {
			h.attributes[r.Name] = uint32(loc)
			h.order = append(h.order, uint32(loc))
		} else {
			h.uniforms[r.Name] = loc
		}
	}
	return h, nil
}

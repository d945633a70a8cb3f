package shader

import (
	"fmt"
	"strings"

	"github.com/richinsley/goshadercam/gpu"
)

// Source is the text of a vertex and fragment unit pair. The identifiers are
// only used to label diagnostics.
type Source struct {
	Vertex     string
	Fragment   string
	VertexID   string
	FragmentID string
}

// CompileError reports a shader unit that failed translation or compilation.
type CompileError struct {
	Unit       gpu.ShaderStage
	Identifier string
	Log        string
}

func (e *CompileError) Error() string {
	id := e.Identifier
	if id == "" {
		id = "<inline>"
	}
	return fmt.Sprintf("shader %s (%s unit) could not be compiled:\n%s", id, e.Unit, strings.TrimSpace(e.Log))
}

// LinkError reports a program whose units compiled but did not link.
type LinkError struct {
	VertexID   string
	FragmentID string
	Log        string
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("shaders %s + %s could not be linked:\n%s", e.VertexID, e.FragmentID, strings.TrimSpace(e.Log))
}

// Program is a linked GPU program.
type Program struct {
	ID uint32

	// names maps source symbols to the symbols in the translated code. Nil
	// when no unit was renamed.
	names map[string]string
}

// Compile translates, compiles and links src. On failure every GPU object
// created along the way is deleted and a *CompileError or *LinkError is
// returned.
func Compile(dev gpu.Device, tr Translator, src Source) (*Program, error) {
	if tr == nil {
		tr = Passthrough{}
	}

	vs, vsNames, err := compileUnit(dev, tr, gpu.VertexStage, src.Vertex, src.VertexID)
	if err != nil {
		return nil, err
	}
	fs, fsNames, err := compileUnit(dev, tr, gpu.FragmentStage, src.Fragment, src.FragmentID)
	if err != nil {
		dev.DeleteShader(vs)
		return nil, err
	}

	program := dev.CreateProgram()
	dev.AttachShader(program, vs)
	dev.AttachShader(program, fs)
	ok, infoLog := dev.LinkProgram(program)

	dev.DeleteShader(vs)
	dev.DeleteShader(fs)

	if !ok {
		dev.DeleteProgram(program)
		return nil, &LinkError{VertexID: src.VertexID, FragmentID: src.FragmentID, Log: infoLog}
	}

	return &Program{ID: program, names: mergeNames(vsNames, fsNames)}, nil
}

func compileUnit(dev gpu.Device, tr Translator, stage gpu.ShaderStage, source, id string) (uint32, map[string]string, error) {
	translated, err := tr.Translate(source, stage)
	if err != nil {
		return 0, nil, &CompileError{Unit: stage, Identifier: id, Log: err.Error()}
	}

	shader := dev.CreateShader(stage)
	if ok, infoLog := dev.CompileShader(shader, translated.Code); !ok {
		dev.DeleteShader(shader)
		return 0, nil, &CompileError{Unit: stage, Identifier: id, Log: infoLog}
	}
	return shader, translated.Names, nil
}

func mergeNames(a, b map[string]string) map[string]string {
	if a == nil && b == nil {
		return nil
	}
	merged := make(map[string]string, len(a)+len(b))
	for k, v := range a {
		merged[k] = v
	}
	for k, v := range b {
		merged[k] = v
	}
	return merged
}

// Symbol returns the name under which the source symbol name can be looked up
// in the linked program. It reports false when the translator dropped the
// symbol, which happens when no stage uses it.
func (p *Program) Symbol(name string) (string, bool) {
	if p.names == nil {
		return name, true
	}
	mapped, ok := p.names[name]
	return mapped, ok
}

// Delete releases the GPU program.
func (p *Program) Delete(dev gpu.Device) {
	if p.ID != 0 {
		dev.DeleteProgram(p.ID)
		p.ID = 0
	}
}

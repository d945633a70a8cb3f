package shader

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

// Identifiers of the units prepended to every effect's vertex and fragment
// text.
const (
	VertexPreamble   = "vs_common"
	FragmentPreamble = "fs_common"
)

const unitExt = ".glsl"

//go:embed glsl/*.glsl
var builtinFS embed.FS

// UnknownShaderError is returned when an identifier has no shader text.
type UnknownShaderError struct {
	ID string
}

func (e *UnknownShaderError) Error() string {
	return fmt.Sprintf("shader with id = %s could not be found", e.ID)
}

// Library resolves shader identifiers to raw text. Layers are searched in
// order, so a user directory can override or extend the built-in units.
type Library struct {
	layers []fs.FS
}

// Builtin returns the library of units compiled into the binary.
func Builtin() *Library {
	sub, err := fs.Sub(builtinFS, "glsl")
	if err != nil {
		panic(err)
	}
	return &Library{layers: []fs.FS{sub}}
}

// NewLibrary returns a library searching the given file systems in order.
func NewLibrary(layers ...fs.FS) *Library {
	return &Library{layers: layers}
}

// WithDir returns a library that consults dir before l.
func (l *Library) WithDir(dir string) (*Library, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("shader directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("shader directory: %s is not a directory", dir)
	}
	layers := append([]fs.FS{os.DirFS(dir)}, l.layers...)
	return &Library{layers: layers}, nil
}

// Text returns the raw text of the unit named id.
func (l *Library) Text(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) {
		return "", &UnknownShaderError{ID: id}
	}
	for _, layer := range l.layers {
		data, err := fs.ReadFile(layer, id+unitExt)
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("failed to read shader %s: %w", id, err)
		}
	}
	return "", &UnknownShaderError{ID: id}
}

// IDs lists every identifier the library can resolve.
func (l *Library) IDs() []string {
	seen := make(map[string]struct{})
	for _, layer := range l.layers {
		matches, _ := fs.Glob(layer, "*"+unitExt)
		for _, m := range matches {
			seen[strings.TrimSuffix(path.Base(m), unitExt)] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Source assembles the unit pair for an effect, each prefixed with its
// preamble.
func (l *Library) Source(vertexID, fragmentID string) (Source, error) {
	vsCommon, err := l.Text(VertexPreamble)
	if err != nil {
		return Source{}, err
	}
	fsCommon, err := l.Text(FragmentPreamble)
	if err != nil {
		return Source{}, err
	}
	vs, err := l.Text(vertexID)
	if err != nil {
		return Source{}, err
	}
	fsText, err := l.Text(fragmentID)
	if err != nil {
		return Source{}, err
	}
	return Source{
		Vertex:     Compose(vsCommon, vs),
		Fragment:   Compose(fsCommon, fsText),
		VertexID:   vertexID,
		FragmentID: fragmentID,
	}, nil
}

// Compose concatenates a preamble and a unit body.
func Compose(preamble, body string) string {
	if preamble != "" && !strings.HasSuffix(preamble, "\n") {
		preamble += "\n"
	}
	return preamble + body
}

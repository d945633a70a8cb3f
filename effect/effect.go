// Package effect pairs compiled shader programs with the resources they
// declare, and tracks which effect is currently drawn.
package effect

import (
	"errors"
	"fmt"
	"log"

	"github.com/richinsley/goshadercam/gpu"
	"github.com/richinsley/goshadercam/shader"
)

// State is a step of an effect's lifecycle.
type State int

const (
	Uninitialised State = iota
	Ready
	Disposed
)

func (s State) String() string {
	switch s {
	case Uninitialised:
		return "uninitialised"
	case Ready:
		return "ready"
	case Disposed:
		return "disposed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	ErrAlreadyInitialised = errors.New("effect already initialised")
	ErrDisposed           = errors.New("effect disposed")
)

// Effect is a named shader program plus its resource manifest.
type Effect struct {
	name     string
	source   shader.Source
	manifest Manifest

	state   State
	program *shader.Program
	handles Handles
}

// New returns an uninitialised effect.
func New(name string, source shader.Source, manifest Manifest) *Effect {
	return &Effect{
		name:     name,
		source:   source,
		manifest: manifest,
	}
}

func (e *Effect) Name() string          { return e.name }
func (e *Effect) State() State          { return e.state }
func (e *Effect) Manifest() Manifest    { return e.manifest }
func (e *Effect) Source() shader.Source { return e.source }

// Handles returns the resolved locations. Empty until the effect is Ready.
func (e *Effect) Handles() Handles { return e.handles }

// Program returns the linked program, or nil before the effect is Ready.
func (e *Effect) Program() *shader.Program { return e.program }

// Initialise compiles the program and resolves the manifest. The effect
// becomes Ready only if both succeed; otherwise it stays Uninitialised and
// holds no GPU objects.
func (e *Effect) Initialise(dev gpu.Device, tr shader.Translator) error {
	switch e.state {
	case Ready:
		return fmt.Errorf("effect %s: %w", e.name, ErrAlreadyInitialised)
	case Disposed:
		return fmt.Errorf("effect %s: %w", e.name, ErrDisposed)
	}

	if err := e.manifest.Validate(); err != nil {
		return fmt.Errorf("effect %s: %w", e.name, err)
	}

	program, err := shader.Compile(dev, tr, e.source)
	if err != nil {
		return fmt.Errorf("effect %s: %w", e.name, err)
	}

	handles, err := Resolve(dev, program, e.manifest)
	if err != nil {
		program.Delete(dev)
		var missing *MissingResourceError
		if errors.As(err, &missing) {
			missing.Effect = e.name
			return err
		}
		return fmt.Errorf("effect %s: %w", e.name, err)
	}

	e.program = program
	e.handles = handles
	e.state = Ready
	log.Printf("Effect %s initialised (program %d, %d resources)", e.name, program.ID, handles.Len())
	return nil
}

func (e *Effect) mustBeReady(op string) {
	if e.state != Ready {
		panic(fmt.Sprintf("effect %s: %s called while %s", e.name, op, e.state))
	}
}

// Enable makes the program current and enables every attribute array. It
// panics unless the effect is Ready.
func (e *Effect) Enable(dev gpu.Device) {
	e.mustBeReady("Enable")
	dev.UseProgram(e.program.ID)
	for _, loc := range e.handles.order {
		dev.EnableVertexAttribArray(loc)
	}
}

// Disable disables the attribute arrays enabled by Enable. It panics unless
// the effect is Ready.
func (e *Effect) Disable(dev gpu.Device) {
	e.mustBeReady("Disable")
	for _, loc := range e.handles.order {
		dev.DisableVertexAttribArray(loc)
	}
}

// Dispose releases the program. Safe to call more than once.
func (e *Effect) Dispose(dev gpu.Device) {
	if e.state == Disposed {
		return
	}
	if e.program != nil {
		e.program.Delete(dev)
		e.program = nil
	}
	e.handles = Handles{}
	e.state = Disposed
}

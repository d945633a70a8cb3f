package effect

import (
	"errors"
	"fmt"
	"log"

	"github.com/richinsley/goshadercam/gpu"
	"github.com/richinsley/goshadercam/shader"
)

// ErrNoActiveEffect is returned by Active before any effect was selected.
var ErrNoActiveEffect = errors.New("no active effect selected")

// UnknownEffectError is returned when a selection matches no registered
// effect. Exactly one of Name or Index is meaningful.
type UnknownEffectError struct {
	Name  string
	Index int
}

func (e *UnknownEffectError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unknown effect %q", e.Name)
	}
	return fmt.Sprintf("unknown effect index %d", e.Index)
}

// Registry is the ordered set of available effects and the active selection.
// It is not safe for concurrent use; the render loop owns it.
type Registry struct {
	effects []*Effect
	active  *Effect
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends e. Names must be unique so they can be selected by name.
func (r *Registry) Register(e *Effect) error {
	for _, existing := range r.effects {
		if existing.name == e.name {
			return fmt.Errorf("effect %q registered twice", e.name)
		}
	}
	r.effects = append(r.effects, e)
	return nil
}

// Len returns the number of registered effects.
func (r *Registry) Len() int { return len(r.effects) }

// Effects returns the registered effects in registration order.
func (r *Registry) Effects() []*Effect {
	out := make([]*Effect, len(r.effects))
	copy(out, r.effects)
	return out
}

// Lookup returns the effect registered under name.
func (r *Registry) Lookup(name string) (*Effect, bool) {
	for _, e := range r.effects {
		if e.name == name {
			return e, true
		}
	}
	return nil, false
}

// SetActive selects the effect at index. On failure the current selection is
// kept.
func (r *Registry) SetActive(index int) error {
	if index < 0 || index >= len(r.effects) {
		return &UnknownEffectError{Index: index}
	}
	r.active = r.effects[index]
	return nil
}

// SetActiveName selects the effect registered under name. On failure the
// current selection is kept.
func (r *Registry) SetActiveName(name string) error {
	e, ok := r.Lookup(name)
	if !ok {
		return &UnknownEffectError{Name: name}
	}
	r.active = e
	return nil
}

// Active returns the selected effect.
func (r *Registry) Active() (*Effect, error) {
	if r.active == nil {
		return nil, ErrNoActiveEffect
	}
	return r.active, nil
}

// InitialiseAll initialises every registered effect in order and stops at
// the first failure.
func (r *Registry) InitialiseAll(dev gpu.Device, tr shader.Translator) error {
	for _, e := range r.effects {
		if e.state == Ready {
			continue
		}
		if err := e.Initialise(dev, tr); err != nil {
			return err
		}
	}
	return nil
}

// Dispose releases every effect's GPU program and clears the selection.
func (r *Registry) Dispose(dev gpu.Device) {
	for _, e := range r.effects {
		e.Dispose(dev)
	}
	r.active = nil
	log.Printf("Disposed %d effect(s)", len(r.effects))
}

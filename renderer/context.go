package renderer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/richinsley/goshadercam/capture"
	"github.com/richinsley/goshadercam/effect"
	"github.com/richinsley/goshadercam/gpu"
	"github.com/richinsley/goshadercam/graphics"
	"github.com/richinsley/goshadercam/shader"
)

// Config holds the cosmetic settings of a RenderContext.
type Config struct {
	ClearColor [4]float32
}

// RenderContext owns everything one pipeline needs: the device, the host
// surface, the frame source and the effects. Its lifecycle is
// New, Initialise, Run, Dispose, all on the goroutine owning the GL context.
type RenderContext struct {
	dev        gpu.Device
	host       graphics.Context
	source     capture.Source
	registry   *effect.Registry
	translator shader.Translator
	cfg        Config

	renderer *Renderer

	stopped atomic.Bool
	// index of a requested effect switch, -1 when none is pending
	pending     atomic.Int64
	disposeOnce sync.Once
}

// New returns a context that has not touched the GPU yet. A nil translator
// compiles shaders as written.
func New(dev gpu.Device, host graphics.Context, source capture.Source, registry *effect.Registry, tr shader.Translator, cfg Config) *RenderContext {
	rc := &RenderContext{
		dev:        dev,
		host:       host,
		source:     source,
		registry:   registry,
		translator: tr,
		cfg:        cfg,
	}
	rc.pending.Store(-1)
	return rc
}

// Initialise sets the fixed GPU state, compiles every effect and allocates
// the quad and frame texture. The viewport is the host's framebuffer size at
// this point.
func (rc *RenderContext) Initialise() error {
	if _, err := rc.registry.Active(); err != nil {
		return err
	}

	dev := rc.dev
	c := rc.cfg.ClearColor
	dev.ClearColor(c[0], c[1], c[2], c[3])
	dev.EnableDepthTest()

	if err := rc.registry.InitialiseAll(dev, rc.translator); err != nil {
		rc.registry.Dispose(dev)
		return err
	}

	width, height := rc.host.GetFramebufferSize()
	r, err := NewRenderer(dev, rc.source, width, height)
	if err != nil {
		rc.registry.Dispose(dev)
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	rc.renderer = r

	active, _ := rc.registry.Active()
	log.Printf("Render context initialized: %dx%d viewport, %dx%d frames, effect %s",
		width, height, rc.source.Width(), rc.source.Height(), active.Name())
	return nil
}

// Renderer returns the renderer created by Initialise.
func (rc *RenderContext) Renderer() *Renderer { return rc.renderer }

// Registry returns the effects drawn by this context.
func (rc *RenderContext) Registry() *effect.Registry { return rc.registry }

// RequestEffect queues a switch to the effect at index. It is applied at the
// start of the next tick and may be called from any goroutine.
func (rc *RenderContext) RequestEffect(index int) {
	rc.pending.Store(int64(index))
}

func (rc *RenderContext) applyPending() {
	index := rc.pending.Swap(-1)
	if index < 0 {
		return
	}
	if err := rc.registry.SetActive(int(index)); err != nil {
		log.Printf("Effect switch ignored: %v", err)
		return
	}
	active, _ := rc.registry.Active()
	log.Printf("Switched to effect %s", active.Name())
}

// Tick applies any pending effect switch and draws one frame.
func (rc *RenderContext) Tick() error {
	rc.applyPending()
	active, err := rc.registry.Active()
	if err != nil {
		return err
	}
	rc.renderer.Tick(rc.source, active)
	return nil
}

// Run ticks once per host frame until Stop is called, ctx is done or the
// host asks to close.
func (rc *RenderContext) Run(ctx context.Context) error {
	for {
		if rc.stopped.Load() || rc.host.ShouldClose() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := rc.Tick(); err != nil {
			return err
		}
		rc.host.EndFrame()
	}
}

// Stop ends Run before its next tick. Safe from any goroutine.
func (rc *RenderContext) Stop() {
	rc.stopped.Store(true)
}

// Dispose releases every GPU object the context created. Only the first call
// has an effect.
func (rc *RenderContext) Dispose() {
	rc.disposeOnce.Do(func() {
		if rc.renderer != nil {
			rc.renderer.Dispose()
		}
		rc.registry.Dispose(rc.dev)
		log.Println("Render context disposed")
	})
}

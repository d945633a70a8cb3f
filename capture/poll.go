package capture

import (
	"context"
	"log"
	"time"
)

// Readiness polling defaults: up to ten retries half a second apart, then
// fall back to 640x480.
const (
	DefaultMaxAttempts  = 10
	DefaultPollInterval = 500 * time.Millisecond
	FallbackWidth       = 640
	FallbackHeight      = 480
)

// ProbeFunc reports the current frame size of a source. A zero size means
// the source is not ready yet; an error means it cannot be acquired.
type ProbeFunc func(ctx context.Context) (width, height int, err error)

// SizePoller waits for a source to report its frame size. It checks once,
// then retries up to MaxAttempts times Interval apart, and finally settles on
// the fallback size.
type SizePoller struct {
	Probe          ProbeFunc
	MaxAttempts    int
	Interval       time.Duration
	FallbackWidth  int
	FallbackHeight int

	// Sleep waits between attempts; tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// NewSizePoller returns a poller with the default policy.
func NewSizePoller(probe ProbeFunc) *SizePoller {
	return &SizePoller{
		Probe:          probe,
		MaxAttempts:    DefaultMaxAttempts,
		Interval:       DefaultPollInterval,
		FallbackWidth:  FallbackWidth,
		FallbackHeight: FallbackHeight,
	}
}

// Wait returns the probed size, or the fallback size with fellBack set once
// every retry is used. Probe errors are returned immediately without retry.
func (p *SizePoller) Wait(ctx context.Context) (width, height int, fellBack bool, err error) {
	sleep := p.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	attempts := 0
	for {
		w, h, err := p.Probe(ctx)
		if err != nil {
			return 0, 0, false, err
		}
		if w > 0 && h > 0 {
			return w, h, false, nil
		}
		if attempts >= p.MaxAttempts {
			log.Printf("Frame size still unknown after %d retries, using %dx%d", attempts, p.FallbackWidth, p.FallbackHeight)
			return p.FallbackWidth, p.FallbackHeight, true, nil
		}
		attempts++
		if err := sleep(ctx, p.Interval); err != nil {
			return 0, 0, false, err
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package lifecycle

import (
	"context"
	"sync/atomic"
	"time"
)

// State is the process-wide admission flag. It starts out accepting and
// flips exactly once.
type State struct {
	draining atomic.Bool
}

func NewState() *State { return &State{} }

func (s *State) Accepting() bool { return !s.draining.Load() }

// Begin stops admission and reports whether this call did the flip.
func (s *State) Begin() bool { return s.draining.CompareAndSwap(false, true) }

// Drain stops admission, waits for window so load balancers notice the
// failing readiness probe, then calls shutdown with a context bounded by
// grace. A cancelled ctx skips the rest of the window.
func Drain(ctx context.Context, s *State, window, grace time.Duration, shutdown func(context.Context) error) error {
	s.Begin()

	if window > 0 {
		t := time.NewTimer(window)
		select {
		case <-t.C:
		case <-ctx.Done():
			t.Stop()
		}
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), grace)
	defer cancel()
	return shutdown(sctx)
}

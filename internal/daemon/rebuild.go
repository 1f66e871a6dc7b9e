package daemon

import (
	"context"
	"sync"
	"time"
)

// DefaultQuietWindow is how long change bursts are coalesced before a rebuild.
const DefaultQuietWindow = 300 * time.Millisecond

// rebuilder coalesces rebuild requests: bursts within the quiet window become
// one request, and requests arriving during a build queue exactly one
// follow-up build.
type rebuilder struct {
	quiet time.Duration
	build func(ctx context.Context)

	mu    sync.Mutex
	timer *time.Timer
	req   chan struct{}
}

func newRebuilder(quiet time.Duration, build func(ctx context.Context)) *rebuilder {
	if quiet <= 0 {
		quiet = DefaultQuietWindow
	}
	return &rebuilder{quiet: quiet, build: build, req: make(chan struct{}, 1)}
}

// Trigger requests a rebuild after the quiet window.
func (r *rebuilder) Trigger() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = time.AfterFunc(r.quiet, r.request)
}

// request queues a rebuild immediately. At most one request is pending.
func (r *rebuilder) request() {
	select {
	case r.req <- struct{}{}:
	default:
	}
}

// Run performs requested builds one at a time until ctx is done.
func (r *rebuilder) Run(ctx context.Context) {
	defer func() {
		r.mu.Lock()
		if r.timer != nil {
			r.timer.Stop()
		}
		r.mu.Unlock()
	}()
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.req:
			r.build(ctx)
		}
	}
}

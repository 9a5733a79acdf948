package render

import (
	"context"
	"sync"
)

type bundleBuild struct {
	done     chan struct{}
	serveDir string
	err      error
}

// bundleGuard memoizes the composition bundle with at-most-one-builder
// discipline: the first caller builds, concurrent callers wait and share that
// build's outcome, and a failed build is discarded so the next caller starts
// a fresh one instead of reusing poisoned state.
type bundleGuard struct {
	mu      sync.Mutex
	current *bundleBuild
}

func (g *bundleGuard) get(ctx context.Context, build func(context.Context) (string, error)) (string, error) {
	g.mu.Lock()
	b := g.current
	if b == nil {
		b = &bundleBuild{done: make(chan struct{})}
		g.current = b
		g.mu.Unlock()

		b.serveDir, b.err = build(ctx)
		close(b.done)

		if b.err != nil {
			g.mu.Lock()
			if g.current == b {
				g.current = nil
			}
			g.mu.Unlock()
		}
		return b.serveDir, b.err
	}
	g.mu.Unlock()

	select {
	case <-b.done:
		return b.serveDir, b.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

package game

import (
	"context"
	"sync"

	"github.com/arenashooter/core/internal/level"
	"github.com/arenashooter/core/internal/match"
)

// BuildFunc constructs a level. It runs on the loader goroutine.
type BuildFunc func(ctx context.Context, deps level.Deps, options match.Options) (*level.Level, error)

// LoadContext is the single handoff cell between a loader goroutine and
// the main loop. The loader holds mu for the whole build; the main loop
// only ever TryLocks it.
type LoadContext struct {
	mu    sync.Mutex
	ready bool
	level *level.Level
	err   error

	done chan struct{}
}

func newLoadContext() *LoadContext {
	return &LoadContext{done: make(chan struct{})}
}

func (lc *LoadContext) run(ctx context.Context, build BuildFunc, deps level.Deps, options match.Options) {
	defer close(lc.done)
	lc.mu.Lock()
	defer lc.mu.Unlock()
	lc.level, lc.err = build(ctx, deps, options)
	lc.ready = true
}

type loadResult struct {
	level *level.Level
	err   error
}

// poll never blocks. It reports false while the build is still running
// and true exactly once after it finished.
func (lc *LoadContext) poll() (loadResult, bool) {
	if !lc.mu.TryLock() {
		return loadResult{}, false
	}
	defer lc.mu.Unlock()
	if !lc.ready {
		return loadResult{}, false
	}
	r := loadResult{level: lc.level, err: lc.err}
	lc.level, lc.err, lc.ready = nil, nil, false
	return r, true
}

// wait blocks until the loader goroutine has returned and hands over
// whatever it built so the caller can release it.
func (lc *LoadContext) wait() *level.Level {
	<-lc.done
	r, _ := lc.poll()
	return r.level
}

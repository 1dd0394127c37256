// Package resource loads assets from disk for level construction and
// reports how far outstanding requests have progressed.
package resource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/arenashooter/core/internal/data"
)

// Manager is shared between the main loop, which reads progress, and
// loader goroutines, which request assets.
type Manager struct {
	root string
	log  *zap.Logger

	requested atomic.Int64
	loaded    atomic.Int64

	mu     sync.Mutex
	levels map[string]*data.LevelDef
}

func NewManager(root string, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		root:   root,
		log:    log,
		levels: make(map[string]*data.LevelDef),
	}
}

func (m *Manager) Root() string { return m.root }

// LoadingProgress returns the percentage of requested work that has
// finished. It is 0 until something has been requested.
func (m *Manager) LoadingProgress() int {
	req := m.requested.Load()
	if req == 0 {
		return 0
	}
	return int(min(m.loaded.Load(), req) * 100 / req)
}

// Expect registers n units of work that are not file reads, such as build
// stages. Each one is reported with Done.
func (m *Manager) Expect(n int) { m.requested.Add(int64(n)) }

// Done marks one unit registered with Expect as finished.
func (m *Manager) Done() { m.loaded.Add(1) }

// Reset clears the progress counters. Called when a new load begins.
func (m *Manager) Reset() {
	m.requested.Store(0)
	m.loaded.Store(0)
}

// Read loads a file relative to the asset root.
func (m *Manager) Read(ctx context.Context, rel string) ([]byte, error) {
	m.requested.Add(1)
	defer m.loaded.Add(1)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(filepath.Join(m.root, rel))
	if err != nil {
		return nil, fmt.Errorf("resource %s: %w", rel, err)
	}
	m.log.Debug("resource loaded", zap.String("path", rel), zap.Int("bytes", len(raw)))
	return raw, nil
}

// Level returns the parsed definition of levels/<name>.yaml. Definitions
// are cached; callers must not modify them.
func (m *Manager) Level(ctx context.Context, name string) (*data.LevelDef, error) {
	m.mu.Lock()
	def, ok := m.levels[name]
	m.mu.Unlock()
	if ok {
		m.requested.Add(1)
		m.loaded.Add(1)
		return def, nil
	}

	raw, err := m.Read(ctx, filepath.Join("levels", name+".yaml"))
	if err != nil {
		return nil, err
	}
	def, err = data.ParseLevel(raw)
	if err != nil {
		return nil, fmt.Errorf("resource level %s: %w", name, err)
	}
	m.mu.Lock()
	m.levels[name] = def
	m.mu.Unlock()
	return def, nil
}

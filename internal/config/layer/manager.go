package layer

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/dshills/gitraw/internal/config"
	"github.com/dshills/gitraw/internal/config/loader"
	"github.com/dshills/gitraw/internal/config/notify"
	"github.com/dshills/gitraw/internal/config/watcher"
)

// Manager manages configuration layers and serves them as a single
// config.Backend.
type Manager struct {
	mu     sync.RWMutex
	layers []*Layer // Sorted by priority (ascending)

	// saved holds the layers as they were at Lock; nil outside a
	// transaction.
	saved []*Layer

	// batch queues changes made inside a transaction; pending holds
	// changes waiting to be delivered once the lock is released.
	notifier    *notify.Notifier
	ownNotifier bool
	batch       *notify.Batch
	pending     []notify.Change

	fs      loader.FileSystem
	logger  *slog.Logger
	watcher *watcher.Watcher
}

// Option configures a Manager.
type Option func(*Manager)

// WithFS sets the file system file layers are read from.
func WithFS(fs loader.FileSystem) Option {
	return func(m *Manager) {
		if fs != nil {
			m.fs = fs
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithNotifier delivers change notifications through n. The caller keeps
// ownership of n. By default the manager creates a synchronous notifier
// and closes it on Close.
func WithNotifier(n *notify.Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// NewManager creates a new layer manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		layers: make([]*Layer, 0),
		fs:     loader.DefaultFS(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = notify.New(notify.WithLogger(m.logger))
		m.ownNotifier = true
	}
	return m
}

// Subscribe registers observer for changes to keys under prefix ("" for
// all keys). The prefix's section is case-insensitive; the rest is
// compared with normalized keys as written. Changes made inside a
// transaction are delivered on commit.
func (m *Manager) Subscribe(prefix string, observer notify.Observer) *notify.Subscription {
	section, rest, found := strings.Cut(prefix, ".")
	prefix = strings.ToLower(section)
	if found {
		prefix += "." + rest
	}
	return m.notifier.Subscribe(prefix, observer)
}

// queue records a change (must be called with lock held).
func (m *Manager) queue(c notify.Change) {
	if m.batch != nil {
		m.batch.Add(c)
		return
	}
	m.pending = append(m.pending, c)
}

// flush delivers queued changes. It must be called without the lock.
func (m *Manager) flush() {
	m.mu.Lock()
	pending := m.pending
	m.pending = nil
	m.mu.Unlock()

	for _, c := range pending {
		m.notifier.Notify(c)
	}
}

// AddLayer adds a layer to the manager.
// Layers are automatically sorted by priority.
func (m *Manager) AddLayer(layer *Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if layer.Data == nil {
		layer.Data = make(map[string]any)
	}
	m.layers = append(m.layers, layer)
	m.sortLayers()
}

// GetLayer returns a layer by name.
func (m *Manager) GetLayer(name string) *Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.findLayer(name)
}

// Layers returns a copy of all layers sorted by priority.
func (m *Manager) Layers() []*Layer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Layer, len(m.layers))
	copy(result, m.layers)
	return result
}

// LayerCount returns the number of layers.
func (m *Manager) LayerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.layers)
}

// Lookup returns the effective value for key, searching layers from
// highest to lowest priority, and the layer it came from.
func (m *Manager) Lookup(key string) (any, *Layer, bool) {
	name, err := config.NormalizeKey(key)
	if err != nil {
		return nil, nil, false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		layer := m.layers[i]
		if _, val, ok := findLeaf(layer.Data, name); ok {
			return val, layer, true
		}
	}
	return nil, nil, false
}

// WhichLayer returns the name of the layer that provides a value.
func (m *Manager) WhichLayer(key string) string {
	_, layer, found := m.Lookup(key)
	if !found {
		return ""
	}
	return layer.Name
}

// UpdateLayer replaces a layer's data entirely.
func (m *Manager) UpdateLayer(name string, data map[string]any) error {
	defer m.flush()
	m.mu.Lock()
	defer m.mu.Unlock()

	layer := m.findLayer(name)
	if layer == nil {
		return fmt.Errorf("layer not found: %s", name)
	}
	if layer.ReadOnly {
		return &config.ReadOnlyError{Op: "update layer " + name}
	}

	layer.Data = cloneMap(data)
	if layer.Data == nil {
		layer.Data = make(map[string]any)
	}
	m.queue(notify.Change{Type: notify.ChangeReload, Layer: layer.Name})
	return nil
}

// sortLayers sorts layers by priority (ascending). Layers of equal
// priority keep their insertion order.
func (m *Manager) sortLayers() {
	sort.SliceStable(m.layers, func(i, j int) bool {
		return m.layers[i].Priority < m.layers[j].Priority
	})
}

// findLayer finds a layer by name (must be called with lock held).
func (m *Manager) findLayer(name string) *Layer {
	for _, layer := range m.layers {
		if layer.Name == name {
			return layer
		}
	}
	return nil
}

// writableLayer returns the highest-priority writable layer (must be
// called with lock held).
func (m *Manager) writableLayer() *Layer {
	for i := len(m.layers) - 1; i >= 0; i-- {
		if !m.layers[i].ReadOnly {
			return m.layers[i]
		}
	}
	return nil
}

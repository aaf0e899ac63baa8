package layer

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/dshills/gitraw/internal/config"
	"github.com/dshills/gitraw/internal/config/loader"
	"github.com/dshills/gitraw/internal/config/notify"
)

// Open (re)loads every file layer at or below level (all of them for
// config.LevelHighest). Relative layer paths are resolved against
// repo.Path(); a missing file loads as an empty layer.
func (m *Manager) Open(ctx context.Context, level config.Level, repo config.Repository) error {
	m.mu.RLock()
	var targets []*Layer
	for _, l := range m.layers {
		if l.Source == SourceFile && level.Includes(l.Level) {
			targets = append(targets, l)
		}
	}
	m.mu.RUnlock()

	for _, l := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}

		path := resolvePath(l.Path, repo)
		data, modTime, err := m.loadFile(path)
		if err != nil {
			return fmt.Errorf("loading %s config: %w", l.Name, err)
		}

		m.mu.Lock()
		l.Data = data
		l.ModTime = modTime
		l.resolved = path
		m.mu.Unlock()

		m.logger.Debug("config layer loaded", "layer", l.Name, "path", path, "keys", len(FlattenMap(data)))
	}
	return nil
}

func resolvePath(path string, repo config.Repository) string {
	if !filepath.IsAbs(path) && repo != nil {
		path = filepath.Join(repo.Path(), path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// loadFile reads a TOML or YAML file. A missing file yields empty data and
// a zero ModTime.
func (m *Manager) loadFile(path string) (map[string]any, time.Time, error) {
	fl, err := loader.ForPath(m.fs, path)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := fl.Load()
	if err != nil {
		return nil, time.Time{}, err
	}
	if data == nil {
		return make(map[string]any), time.Time{}, nil
	}

	var modTime time.Time
	if info, err := m.fs.Stat(path); err == nil {
		modTime = info.ModTime()
	}
	return data, modTime, nil
}

// Get returns the effective value for key: the last value from the
// highest-priority layer that sets it.
func (m *Manager) Get(key string) (*config.EntryHandle, error) {
	name, err := config.NormalizeKey(key)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := len(m.layers) - 1; i >= 0; i-- {
		layer := m.layers[i]
		_, val, ok := findLeaf(layer.Data, name)
		if !ok {
			continue
		}
		values := valueList(val)
		if len(values) == 0 {
			continue
		}
		return config.NewEntryHandle(config.Entry{
			Name:   name,
			Value:  FormatValue(values[len(values)-1]),
			Origin: layer.origin(),
			Level:  layer.Level,
		}, nil), nil
	}
	return nil, &config.KeyError{Key: key, Err: config.ErrNotFound}
}

// Iterator returns an iterator over every value of every layer, lowest
// priority first, so that later entries override earlier ones. Within a
// layer keys are sorted and multivars keep their order. Keys that are not
// valid configuration keys are skipped.
func (m *Manager) Iterator() (config.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := config.NewEntries()
	for _, layer := range m.layers {
		m.appendLayer(entries, layer)
	}
	return config.NewIterator(entries), nil
}

func (m *Manager) appendLayer(entries *config.Entries, layer *Layer) {
	walkLeaves(layer.Data, func(parts []string, val any) {
		key := strings.Join(parts, ".")
		name, err := config.NormalizeKey(key)
		if err != nil {
			m.logger.Debug("skipping config key", "layer", layer.Name, "key", key, "error", err)
			return
		}
		for _, v := range valueList(val) {
			if _, nested := v.(map[string]any); nested {
				m.logger.Debug("skipping nested list value", "layer", layer.Name, "key", key)
				continue
			}
			entries.Append(&config.Entry{
				Name:   name,
				Value:  FormatValue(v),
				Origin: layer.origin(),
				Level:  layer.Level,
			})
		}
	})
}

// Set sets key to value in the highest-priority writable layer. It fails
// with config.ErrNotUnique if that layer holds several values for key.
func (m *Manager) Set(key, value string) error {
	name, err := config.NormalizeKey(key)
	if err != nil {
		return err
	}

	defer m.flush()
	m.mu.Lock()
	defer m.mu.Unlock()

	layer := m.writableLayer()
	if layer == nil {
		return &config.ReadOnlyError{Op: "set"}
	}

	parts, val, ok := findLeaf(layer.Data, name)
	if !ok {
		parts = config.SplitKey(name)
	} else if len(valueList(val)) > 1 {
		return &config.KeyError{Key: key, Err: config.ErrNotUnique}
	}
	setByParts(layer.Data, parts, value)
	m.queue(notify.Change{Key: name, Type: notify.ChangeSet, Old: val, New: value, Layer: layer.Name})
	return nil
}

// SetMultivar replaces every value of key matching pattern with value in
// the highest-priority writable layer. If none match, value is appended.
func (m *Manager) SetMultivar(key, pattern, value string) error {
	name, err := config.NormalizeKey(key)
	if err != nil {
		return err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid value pattern: %w", err)
	}

	defer m.flush()
	m.mu.Lock()
	defer m.mu.Unlock()

	layer := m.writableLayer()
	if layer == nil {
		return &config.ReadOnlyError{Op: "set multivar"}
	}

	parts, val, ok := findLeaf(layer.Data, name)
	if !ok {
		parts = config.SplitKey(name)
	}

	var (
		values   []any
		replaced bool
	)
	for _, v := range valueList(val) {
		if re.MatchString(FormatValue(v)) {
			if !replaced {
				values = append(values, value)
				replaced = true
			}
			continue
		}
		values = append(values, v)
	}
	if !replaced {
		values = append(values, value)
	}

	setByParts(layer.Data, parts, listOrScalar(values))
	m.queue(notify.Change{Key: name, Type: notify.ChangeSet, Old: val, New: listOrScalar(values), Layer: layer.Name})
	return nil
}

// Delete removes key from the highest-priority writable layer.
func (m *Manager) Delete(key string) error {
	name, err := config.NormalizeKey(key)
	if err != nil {
		return err
	}

	defer m.flush()
	m.mu.Lock()
	defer m.mu.Unlock()

	layer := m.writableLayer()
	if layer == nil {
		return &config.ReadOnlyError{Op: "delete"}
	}

	parts, val, ok := findLeaf(layer.Data, name)
	if !ok {
		return &config.KeyError{Key: key, Err: config.ErrNotFound}
	}
	if len(valueList(val)) > 1 {
		return &config.KeyError{Key: key, Err: config.ErrNotUnique}
	}
	deleteByParts(layer.Data, parts)
	m.queue(notify.Change{Key: name, Type: notify.ChangeDelete, Old: val, Layer: layer.Name})
	return nil
}

// DeleteMultivar removes the values of key matching pattern from the
// highest-priority writable layer.
func (m *Manager) DeleteMultivar(key, pattern string) error {
	name, err := config.NormalizeKey(key)
	if err != nil {
		return err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid value pattern: %w", err)
	}

	defer m.flush()
	m.mu.Lock()
	defer m.mu.Unlock()

	layer := m.writableLayer()
	if layer == nil {
		return &config.ReadOnlyError{Op: "delete multivar"}
	}

	parts, val, ok := findLeaf(layer.Data, name)
	if !ok {
		return &config.KeyError{Key: key, Err: config.ErrNotFound}
	}

	var kept []any
	for _, v := range valueList(val) {
		if !re.MatchString(FormatValue(v)) {
			kept = append(kept, v)
		}
	}

	change := notify.Change{Key: name, Type: notify.ChangeDelete, Old: val, Layer: layer.Name}
	switch {
	case len(kept) == len(valueList(val)):
		return &config.KeyError{Key: key, Err: config.ErrNotFound}
	case len(kept) == 0:
		deleteByParts(layer.Data, parts)
	default:
		change.New = listOrScalar(kept)
		setByParts(layer.Data, parts, change.New)
	}
	m.queue(change)
	return nil
}

// Snapshot returns an unopened read-only snapshot of the manager.
func (m *Manager) Snapshot() (config.Backend, error) {
	return config.NewSnapshot(m, config.WithLogger(m.logger)), nil
}

// Lock starts a transaction. Changes made until Unlock can be rolled back.
func (m *Manager) Lock() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saved != nil {
		return config.ErrLocked
	}
	m.saved = make([]*Layer, len(m.layers))
	for i, l := range m.layers {
		m.saved[i] = l.Clone()
	}
	m.batch = m.notifier.NewBatch()
	return nil
}

// Unlock ends a transaction. With commit false the layers are restored to
// their state at Lock and the transaction's changes are not announced.
func (m *Manager) Unlock(commit bool) error {
	m.mu.Lock()
	if m.saved == nil {
		m.mu.Unlock()
		return config.ErrNotLocked
	}
	if !commit {
		m.layers = m.saved
	}
	m.saved = nil
	batch := m.batch
	m.batch = nil
	m.mu.Unlock()

	if commit {
		batch.Commit()
	} else {
		batch.Discard()
	}
	return nil
}

// ReadOnly returns false.
func (m *Manager) ReadOnly() bool {
	return false
}

// Close stops watching files and closes the manager's own notifier. The
// layers stay readable.
func (m *Manager) Close() error {
	m.mu.Lock()
	w := m.watcher
	m.watcher = nil
	m.mu.Unlock()

	if m.ownNotifier {
		m.notifier.Close()
	}
	if w != nil {
		return w.Close()
	}
	return nil
}

// valueList returns a value as a list: lists are multivars, anything else
// is a single value.
func valueList(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{v}
}

func listOrScalar(values []any) any {
	if len(values) == 1 {
		return values[0]
	}
	return values
}

var _ config.Backend = (*Manager)(nil)

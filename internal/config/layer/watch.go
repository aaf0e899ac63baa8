package layer

import (
	"fmt"
	"time"

	"github.com/dshills/gitraw/internal/config/notify"
	"github.com/dshills/gitraw/internal/config/watcher"
)

// Watch starts reloading file layers when their files change. Layers must
// have been opened first so their paths are resolved. A removed file
// empties its layer. Snapshots taken earlier are not affected.
func (m *Manager) Watch(opts ...watcher.Option) error {
	w, err := watcher.New(append([]watcher.Option{watcher.WithLogger(m.logger)}, opts...)...)
	if err != nil {
		return fmt.Errorf("creating config watcher: %w", err)
	}

	m.mu.Lock()
	if m.watcher != nil {
		m.mu.Unlock()
		_ = w.Close()
		return nil
	}
	for _, l := range m.layers {
		if l.Source != SourceFile || l.resolved == "" {
			continue
		}
		if err := w.Watch(l.resolved); err != nil {
			m.mu.Unlock()
			_ = w.Close()
			return fmt.Errorf("watching %s: %w", l.resolved, err)
		}
	}
	m.watcher = w
	m.mu.Unlock()

	w.OnChange(m.handleChange)
	return w.Start()
}

func (m *Manager) handleChange(event watcher.Event) {
	switch event.Op {
	case watcher.OpRemove, watcher.OpRename:
		m.replaceFileData(event.Path, make(map[string]any), time.Time{})
	default:
		if err := m.ReloadFile(event.Path); err != nil {
			m.logger.Warn("config reload failed", "path", event.Path, "error", err)
		}
	}
}

// ReloadFile re-reads every file layer loaded from path. On error the
// layers keep their previous data.
func (m *Manager) ReloadFile(path string) error {
	data, modTime, err := m.loadFile(path)
	if err != nil {
		return err
	}
	m.replaceFileData(path, data, modTime)
	return nil
}

func (m *Manager) replaceFileData(path string, data map[string]any, modTime time.Time) {
	defer m.flush()
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.layers {
		if l.Source != SourceFile || l.resolved != path {
			continue
		}
		added, modified, removed := DiffMaps(l.Data, data)
		l.Data = cloneMap(data)
		l.ModTime = modTime
		m.logger.Info("config layer reloaded",
			"layer", l.Name,
			"path", path,
			"added", len(added),
			"modified", len(modified),
			"removed", len(removed),
		)
		m.queue(notify.Change{Type: notify.ChangeReload, Layer: l.Name})
	}
}

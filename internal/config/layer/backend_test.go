package layer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/gitraw/internal/config"
	"github.com/dshills/gitraw/internal/config/loader"
	"github.com/dshills/gitraw/internal/config/watcher"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoDir string

func (r repoDir) Path() string { return string(r) }

func newTestManager() *Manager {
	m := NewManager()
	m.AddLayer(NewLayerWithData("defaults", SourceDefaults, config.LevelDefault, map[string]any{
		"core": map[string]any{"abbrev": int64(7), "bad_key": 1},
	}))
	m.AddLayer(NewLayerWithData("args", SourceArgs, config.LevelApp, map[string]any{
		"core":   map[string]any{"abbrev": int64(12)},
		"remote": map[string]any{"origin": map[string]any{"fetch": []any{"a", "b"}}},
	}))
	return m
}

func getValue(t *testing.T, b config.Backend, key string) string {
	t.Helper()
	h, err := b.Get(key)
	require.NoError(t, err)
	defer h.Close()
	return h.Value
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestManager_Iterator(t *testing.T) {
	m := newTestManager()

	it, err := m.Iterator()
	require.NoError(t, err)
	got, err := config.Collect(it)
	require.NoError(t, err)

	want := []config.Entry{
		{Name: "core.abbrev", Value: "7", Origin: "defaults", Level: config.LevelDefault},
		{Name: "core.abbrev", Value: "12", Origin: "command line", Level: config.LevelApp},
		{Name: "remote.origin.fetch", Value: "a", Origin: "command line", Level: config.LevelApp},
		{Name: "remote.origin.fetch", Value: "b", Origin: "command line", Level: config.LevelApp},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Iterator() mismatch (-want +got):\n%s", diff)
	}
}

func TestManager_Get(t *testing.T) {
	m := newTestManager()

	h, err := m.Get("Core.Abbrev")
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, "core.abbrev", h.Name)
	assert.Equal(t, "12", h.Value)
	assert.Equal(t, config.LevelApp, h.Level)

	assert.Equal(t, "b", getValue(t, m, "remote.origin.fetch"))

	_, err = m.Get("core.missing")
	assert.ErrorIs(t, err, config.ErrNotFound)

	_, err = m.Get("nodot")
	assert.ErrorIs(t, err, config.ErrInvalidKey)
}

func TestManager_Set(t *testing.T) {
	m := newTestManager()

	require.NoError(t, m.Set("CORE.abbrev", "16"))
	assert.Equal(t, "16", getValue(t, m, "core.abbrev"))
	assert.Equal(t, "16", m.GetLayer("args").Data["core"].(map[string]any)["abbrev"])

	require.NoError(t, m.Set("user.name", "A U Thor"))
	assert.Equal(t, "A U Thor", getValue(t, m, "user.name"))

	err := m.Set("remote.origin.fetch", "c")
	assert.ErrorIs(t, err, config.ErrNotUnique)

	assert.ErrorIs(t, m.Set("bad", "x"), config.ErrInvalidKey)
}

func TestManager_Set_AllReadOnly(t *testing.T) {
	m := newTestManager()
	for _, l := range m.Layers() {
		l.ReadOnly = true
	}

	for name, err := range map[string]error{
		"set":             m.Set("core.abbrev", "1"),
		"set multivar":    m.SetMultivar("core.abbrev", ".", "1"),
		"delete":          m.Delete("core.abbrev"),
		"delete multivar": m.DeleteMultivar("core.abbrev", "."),
	} {
		var roErr *config.ReadOnlyError
		require.ErrorAs(t, err, &roErr, name)
		assert.Equal(t, name, roErr.Op)
	}
}

func TestManager_SetMultivar(t *testing.T) {
	m := newTestManager()

	require.NoError(t, m.SetMultivar("remote.origin.fetch", "^b$", "B"))
	assert.Equal(t, []any{"a", "B"}, m.GetLayer("args").Data["remote"].(map[string]any)["origin"].(map[string]any)["fetch"])

	require.NoError(t, m.SetMultivar("remote.origin.fetch", "^z$", "c"))
	assert.Equal(t, "c", getValue(t, m, "remote.origin.fetch"))

	require.NoError(t, m.SetMultivar("remote.origin.push", ".*", "p"))
	assert.Equal(t, "p", getValue(t, m, "remote.origin.push"))

	assert.Error(t, m.SetMultivar("remote.origin.fetch", "(", "x"))
}

func TestManager_Delete(t *testing.T) {
	m := newTestManager()

	require.NoError(t, m.Delete("core.abbrev"))
	assert.Equal(t, "7", getValue(t, m, "core.abbrev"), "defaults should show through")

	assert.ErrorIs(t, m.Delete("core.abbrev"), config.ErrNotFound)
	assert.ErrorIs(t, m.Delete("remote.origin.fetch"), config.ErrNotUnique)
}

func TestManager_DeleteMultivar(t *testing.T) {
	m := newTestManager()

	require.NoError(t, m.DeleteMultivar("remote.origin.fetch", "^a$"))
	assert.Equal(t, "b", getValue(t, m, "remote.origin.fetch"))

	assert.ErrorIs(t, m.DeleteMultivar("remote.origin.fetch", "^a$"), config.ErrNotFound)
	assert.ErrorIs(t, m.DeleteMultivar("remote.origin.missing", "."), config.ErrNotFound)

	require.NoError(t, m.DeleteMultivar("remote.origin.fetch", "."))
	_, err := m.Get("remote.origin.fetch")
	assert.ErrorIs(t, err, config.ErrNotFound)
	assert.NotContains(t, m.GetLayer("args").Data, "remote")
}

func TestManager_Transaction(t *testing.T) {
	m := newTestManager()

	assert.ErrorIs(t, m.Unlock(true), config.ErrNotLocked)

	require.NoError(t, m.Lock())
	assert.ErrorIs(t, m.Lock(), config.ErrLocked)
	require.NoError(t, m.Set("core.abbrev", "40"))
	require.NoError(t, m.Unlock(false))
	assert.Equal(t, "12", getValue(t, m, "core.abbrev"), "rollback")

	require.NoError(t, m.Lock())
	require.NoError(t, m.Set("core.abbrev", "41"))
	require.NoError(t, m.Unlock(true))
	assert.Equal(t, "41", getValue(t, m, "core.abbrev"), "commit")
}

func TestManager_Open(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "system.toml"), "[core]\nabbrev = 8\npager = \"less\"\n")
	writeFile(t, filepath.Join(dir, "repo", "config.yaml"), "core:\n  abbrev: 10\n")

	m := NewManager(WithFS(loader.DefaultFS()))
	m.AddLayer(NewFileLayer(filepath.Join(dir, "system.toml"), config.LevelSystem))
	m.AddLayer(NewFileLayer("config.yaml", config.LevelLocal))
	m.AddLayer(NewFileLayer(filepath.Join(dir, "missing.toml"), config.LevelGlobal))

	ctx := context.Background()
	repo := repoDir(filepath.Join(dir, "repo"))

	require.NoError(t, m.Open(ctx, config.LevelGlobal, repo))
	assert.Equal(t, "8", getValue(t, m, "core.abbrev"), "local layer is above the opened level")

	require.NoError(t, m.Open(ctx, config.LevelHighest, repo))
	h, err := m.Get("core.abbrev")
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, "10", h.Value)
	assert.Equal(t, filepath.Join(dir, "repo", "config.yaml"), h.Origin)
	assert.Equal(t, config.LevelLocal, h.Level)

	assert.Equal(t, "less", getValue(t, m, "core.pager"))
	assert.False(t, m.GetLayer("system").ModTime.IsZero())
	assert.Empty(t, m.GetLayer("global").Data)
}

func TestManager_OpenErrors(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.toml")
	writeFile(t, bad, "[core\n")

	m := NewManager()
	m.AddLayer(NewFileLayer(bad, config.LevelGlobal))
	err := m.Open(context.Background(), config.LevelHighest, nil)
	var parseErr *loader.ParseError
	assert.ErrorAs(t, err, &parseErr)

	m = NewManager()
	m.AddLayer(NewFileLayer(filepath.Join(dir, "x.ini"), config.LevelGlobal))
	assert.ErrorIs(t, m.Open(context.Background(), config.LevelHighest, nil), loader.ErrUnsupportedFormat)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Open(ctx, config.LevelHighest, nil), context.Canceled)
}

func TestManager_SnapshotIsolation(t *testing.T) {
	m := newTestManager()
	ctx := context.Background()

	b, err := m.Snapshot()
	require.NoError(t, err)
	snap := b.(*config.Snapshot)
	require.NoError(t, snap.Open(ctx, config.LevelHighest, nil))
	defer snap.Close()

	require.NoError(t, m.Set("core.abbrev", "99"))
	require.NoError(t, m.DeleteMultivar("remote.origin.fetch", "."))

	assert.Equal(t, "99", getValue(t, m, "core.abbrev"))
	assert.Equal(t, "12", getValue(t, snap, "core.abbrev"))

	all, err := snap.GetAll("remote.origin.fetch")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	assert.True(t, snap.ReadOnly())
	assert.ErrorIs(t, snap.Set("core.abbrev", "1"), config.ErrReadOnly)
}

func TestManager_WatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[core]\nabbrev = 8\n")

	m := NewManager()
	m.AddLayer(NewFileLayer(path, config.LevelGlobal))
	ctx := context.Background()
	require.NoError(t, m.Open(ctx, config.LevelHighest, nil))

	snap, err := config.TakeSnapshot(ctx, m)
	require.NoError(t, err)
	defer snap.Close()

	require.NoError(t, m.Watch(watcher.WithDebounce(0)))
	defer m.Close()

	writeFile(t, path, "[core]\nabbrev = 9\n")
	require.Eventually(t, func() bool {
		v, _, ok := m.Lookup("core.abbrev")
		return ok && v == int64(9)
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, "8", getValue(t, snap, "core.abbrev"), "snapshot must not see the reload")

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool {
		_, _, ok := m.Lookup("core.abbrev")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)
}

func TestManager_ReloadFileKeepsDataOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, "[core]\nabbrev = 8\n")

	m := NewManager()
	m.AddLayer(NewFileLayer(path, config.LevelGlobal))
	require.NoError(t, m.Open(context.Background(), config.LevelHighest, nil))

	writeFile(t, path, "[core\n")
	assert.Error(t, m.ReloadFile(path))
	assert.Equal(t, "8", getValue(t, m, "core.abbrev"))
}

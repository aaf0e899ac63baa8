package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Snapshot is a read-only, point-in-time copy of another backend.
//
// Open copies every entry of the source into a private table. Reads are
// served from that table and are unaffected by later changes to the source.
// Every mutating operation fails with ErrReadOnly.
//
// The mutex only guards the table pointer. Lookups take a reference to the
// table and then run without the lock; the reference is carried by the
// returned EntryHandle.
type Snapshot struct {
	mu      sync.Mutex
	entries *Entries

	source Backend
	logger *slog.Logger
}

// SnapshotOption configures a Snapshot.
type SnapshotOption func(*Snapshot)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) SnapshotOption {
	return func(s *Snapshot) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSnapshot creates an unopened snapshot of source.
func NewSnapshot(source Backend, opts ...SnapshotOption) *Snapshot {
	s := &Snapshot{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TakeSnapshot creates and opens a snapshot of source.
func TakeSnapshot(ctx context.Context, source Backend, opts ...SnapshotOption) (*Snapshot, error) {
	s := NewSnapshot(source, opts...)
	if err := s.Open(ctx, LevelHighest, nil); err != nil {
		return nil, err
	}
	return s, nil
}

// Open copies the source's entries, normalizing their names. Entries with
// invalid names are skipped. The level and repository are ignored: the
// source decides what it contains. Opening again replaces the copy;
// handles obtained earlier keep the old one alive.
func (s *Snapshot) Open(ctx context.Context, _ Level, _ Repository) error {
	entries, err := s.copySource(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	old := s.entries
	s.entries = entries
	s.mu.Unlock()

	if old != nil {
		old.Free()
	}

	s.logger.Debug("config snapshot opened", "entries", entries.Len())
	return nil
}

func (s *Snapshot) copySource(ctx context.Context) (*Entries, error) {
	it, err := s.source.Iterator()
	if err != nil {
		return nil, fmt.Errorf("snapshot source: %w", err)
	}
	defer it.Close()

	entries := NewEntries()
	for {
		if err := ctx.Err(); err != nil {
			entries.Free()
			return nil, err
		}

		entry, err := it.Next()
		if errors.Is(err, ErrIterOver) {
			return entries, nil
		}
		if err != nil {
			entries.Free()
			return nil, fmt.Errorf("snapshot source: %w", err)
		}

		name, err := NormalizeKey(entry.Name)
		if err != nil {
			s.logger.Debug("config snapshot skipped entry", "name", entry.Name, "error", err)
			continue
		}
		cp := *entry
		cp.Name = name
		entries.Append(&cp)
	}
}

// acquire returns the current table with an extra reference.
func (s *Snapshot) acquire() (*Entries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entries == nil {
		return nil, ErrNotOpen
	}
	s.entries.IncRef()
	return s.entries, nil
}

// Get returns the last value for key. The handle holds a reference to the
// snapshot's table and must be closed.
func (s *Snapshot) Get(key string) (*EntryHandle, error) {
	entries, err := s.acquire()
	if err != nil {
		return nil, err
	}

	name, err := NormalizeKey(key)
	if err != nil {
		entries.Free()
		return nil, err
	}

	entry, ok := entries.Get(name)
	if !ok {
		entries.Free()
		return nil, &KeyError{Key: key, Err: ErrNotFound}
	}
	return NewEntryHandle(*entry, entries), nil
}

// GetAll returns every value for key, in order.
func (s *Snapshot) GetAll(key string) ([]Entry, error) {
	entries, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer entries.Free()

	name, err := NormalizeKey(key)
	if err != nil {
		return nil, err
	}

	values := entries.All(name)
	if len(values) == 0 {
		return nil, &KeyError{Key: key, Err: ErrNotFound}
	}

	out := make([]Entry, len(values))
	for i, v := range values {
		out[i] = *v
	}
	return out, nil
}

// Iterator returns an iterator over a private copy of the table.
func (s *Snapshot) Iterator() (Iterator, error) {
	entries, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer entries.Free()

	return NewIterator(entries.Dup()), nil
}

// Snapshot returns a new, unopened snapshot of this snapshot.
func (s *Snapshot) Snapshot() (Backend, error) {
	return NewSnapshot(s, WithLogger(s.logger)), nil
}

// Set always fails with ErrReadOnly.
func (s *Snapshot) Set(key, value string) error {
	return &ReadOnlyError{Op: "set"}
}

// SetMultivar always fails with ErrReadOnly.
func (s *Snapshot) SetMultivar(key, regexp, value string) error {
	return &ReadOnlyError{Op: "set multivar"}
}

// Delete always fails with ErrReadOnly.
func (s *Snapshot) Delete(key string) error {
	return &ReadOnlyError{Op: "delete"}
}

// DeleteMultivar always fails with ErrReadOnly.
func (s *Snapshot) DeleteMultivar(key, regexp string) error {
	return &ReadOnlyError{Op: "delete multivar"}
}

// Lock always fails with ErrReadOnly.
func (s *Snapshot) Lock() error {
	return &ReadOnlyError{Op: "lock"}
}

// Unlock always fails with ErrReadOnly.
func (s *Snapshot) Unlock(commit bool) error {
	return &ReadOnlyError{Op: "unlock"}
}

// ReadOnly returns true.
func (s *Snapshot) ReadOnly() bool {
	return true
}

// Close releases the snapshot's table. Outstanding handles and iterators
// remain valid. Close is safe on an unopened snapshot and may be called
// more than once.
func (s *Snapshot) Close() error {
	s.mu.Lock()
	entries := s.entries
	s.entries = nil
	s.mu.Unlock()

	if entries != nil {
		entries.Free()
	}
	return nil
}

var _ Backend = (*Snapshot)(nil)

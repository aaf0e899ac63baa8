package config

import (
	"context"
	"errors"
)

// Repository is the repository a backend is opened for. Backends that do
// not depend on a repository accept nil.
type Repository interface {
	// Path returns the repository's git directory.
	Path() string
}

// Backend is a source of configuration values.
type Backend interface {
	// Open loads values for the given level and repository.
	Open(ctx context.Context, level Level, repo Repository) error

	// Get returns the value for key. The caller must Close the handle.
	Get(key string) (*EntryHandle, error)

	// Set sets key to value.
	Set(key, value string) error

	// SetMultivar replaces the values of key matching regexp with value.
	SetMultivar(key, regexp, value string) error

	// Delete removes key.
	Delete(key string) error

	// DeleteMultivar removes the values of key matching regexp.
	DeleteMultivar(key, regexp string) error

	// Iterator returns an iterator over every entry.
	Iterator() (Iterator, error)

	// Snapshot returns a read-only, point-in-time view of the backend.
	Snapshot() (Backend, error)

	// Lock starts a transaction.
	Lock() error

	// Unlock ends a transaction, committing or discarding its changes.
	Unlock(commit bool) error

	// ReadOnly reports whether the backend rejects writes.
	ReadOnly() bool

	// Close releases the backend's resources.
	Close() error
}

// Iterator walks configuration entries.
type Iterator interface {
	// Next returns the next entry, or ErrIterOver when there are none.
	Next() (*Entry, error)

	// Close releases the iterator.
	Close()
}

// entriesIterator iterates over a table it owns.
type entriesIterator struct {
	entries *Entries
	pos     int
}

// NewIterator returns an iterator over entries. It takes over the caller's
// reference and frees it on exhaustion or Close.
func NewIterator(entries *Entries) Iterator {
	return &entriesIterator{entries: entries}
}

func (it *entriesIterator) Next() (*Entry, error) {
	if it.entries == nil {
		return nil, ErrIterOver
	}
	if it.pos >= it.entries.Len() {
		it.Close()
		return nil, ErrIterOver
	}
	entry := it.entries.At(it.pos)
	it.pos++
	return entry, nil
}

func (it *entriesIterator) Close() {
	if it.entries != nil {
		it.entries.Free()
		it.entries = nil
	}
}

// Collect drains an iterator into a slice and closes it.
func Collect(it Iterator) ([]Entry, error) {
	defer it.Close()

	var out []Entry
	for {
		entry, err := it.Next()
		if errors.Is(err, ErrIterOver) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *entry)
	}
}

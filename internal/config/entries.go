package config

import (
	"sync"
	"sync/atomic"
)

// Entries is a reference-counted table of configuration entries. It keeps
// entries in insertion order and indexes them by name; a name with several
// values (a multivar) resolves to its last value.
//
// An Entries table is built with Append and is immutable once shared, so
// it may be read concurrently without locking. The table is released when
// the last reference is dropped with Free.
type Entries struct {
	refs atomic.Int32

	list  []*Entry
	names map[string][]*Entry

	released sync.Once
}

// NewEntries creates an empty table holding one reference.
func NewEntries() *Entries {
	e := &Entries{names: make(map[string][]*Entry)}
	e.refs.Store(1)
	return e
}

// Append adds an entry. It must only be called while the table is private
// to its builder.
func (e *Entries) Append(entry *Entry) {
	e.list = append(e.list, entry)
	e.names[entry.Name] = append(e.names[entry.Name], entry)
}

// Dup returns an independent copy of the table holding one reference.
func (e *Entries) Dup() *Entries {
	dup := NewEntries()
	for _, entry := range e.list {
		cp := *entry
		dup.Append(&cp)
	}
	return dup
}

// Get returns the last value for a normalized name.
func (e *Entries) Get(name string) (*Entry, bool) {
	values := e.names[name]
	if len(values) == 0 {
		return nil, false
	}
	return values[len(values)-1], true
}

// All returns every value for a normalized name, in order.
func (e *Entries) All(name string) []*Entry {
	values := e.names[name]
	if len(values) == 0 {
		return nil
	}
	out := make([]*Entry, len(values))
	copy(out, values)
	return out
}

// Len returns the number of entries.
func (e *Entries) Len() int {
	return len(e.list)
}

// At returns the i'th entry in insertion order.
func (e *Entries) At(i int) *Entry {
	return e.list[i]
}

// IncRef takes an additional reference.
func (e *Entries) IncRef() {
	e.refs.Add(1)
}

// Free drops a reference. The table is released when none remain.
func (e *Entries) Free() {
	if e.refs.Add(-1) != 0 {
		return
	}
	e.released.Do(func() {
		e.list = nil
		e.names = nil
	})
}

// EntryHandle is the result of a lookup. It keeps the table the entry came
// from alive until Close is called.
type EntryHandle struct {
	// Entry is the value found.
	Entry

	owner *Entries
	once  sync.Once
}

// NewEntryHandle wraps entry. The handle takes over one reference to owner,
// which may be nil for entries not backed by a shared table.
func NewEntryHandle(entry Entry, owner *Entries) *EntryHandle {
	return &EntryHandle{Entry: entry, owner: owner}
}

// Close releases the handle's reference. It is safe to call more than once.
func (h *EntryHandle) Close() {
	h.once.Do(func() {
		if h.owner != nil {
			h.owner.Free()
		}
	})
}

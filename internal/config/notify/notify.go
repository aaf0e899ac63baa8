// Package notify delivers change notifications for the live configuration
// store.
//
// Observers subscribe to a key prefix ("" for every key). Prefixes match on
// key component boundaries, so "remote.origin" sees "remote.origin.url" but
// not "remote.originals.url". Reload events carry no key and reach every
// observer.
package notify

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// ChangeType is the kind of change.
type ChangeType int

const (
	// ChangeSet means a key was set or its values replaced.
	ChangeSet ChangeType = iota

	// ChangeDelete means a key or some of its values were removed.
	ChangeDelete

	// ChangeReload means a file layer was re-read.
	ChangeReload
)

// String returns the change type name.
func (c ChangeType) String() string {
	switch c {
	case ChangeSet:
		return "set"
	case ChangeDelete:
		return "delete"
	case ChangeReload:
		return "reload"
	default:
		return "unknown"
	}
}

// Change describes one modification of the store.
type Change struct {
	// Key is the normalized key. Empty for reloads.
	Key string

	// Type is the kind of change.
	Type ChangeType

	// Old is the previous value (nil if unset).
	Old any

	// New is the value after the change (nil for deletes and reloads).
	New any

	// Layer names the layer that changed.
	Layer string
}

// Observer receives changes.
type Observer func(change Change)

// Subscription is a registered observer.
type Subscription struct {
	id       uint64
	notifier *Notifier
}

// Unsubscribe removes the observer. It is safe to call more than once.
func (s *Subscription) Unsubscribe() {
	if s != nil && s.notifier != nil {
		s.notifier.unsubscribe(s.id)
	}
}

type subscriber struct {
	id       uint64
	prefix   string
	observer Observer
}

// Notifier fans changes out to subscribers.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[uint64]subscriber
	nextID uint64
	closed bool

	async  bool
	buffer chan Change
	done   chan struct{}
	wg     sync.WaitGroup

	logger *slog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithAsync delivers changes from a background goroutine through a buffer
// of the given size. Notify blocks while the buffer is full.
func WithAsync(bufferSize int) Option {
	return func(n *Notifier) {
		if bufferSize > 0 {
			n.async = true
			n.buffer = make(chan Change, bufferSize)
		}
	}
}

// WithLogger sets the logger used to report observer panics.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// New creates a Notifier.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		subs:   make(map[uint64]subscriber),
		done:   make(chan struct{}),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}

	if n.async {
		n.wg.Add(1)
		go n.processAsync()
	}
	return n
}

// Subscribe registers observer for keys under prefix.
func (n *Notifier) Subscribe(prefix string, observer Observer) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := n.nextID
	n.nextID++
	n.subs[id] = subscriber{id: id, prefix: prefix, observer: observer}
	return &Subscription{id: id, notifier: n}
}

func (n *Notifier) unsubscribe(id uint64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.subs, id)
}

// Notify delivers change. After Close it does nothing.
func (n *Notifier) Notify(change Change) {
	n.mu.RLock()
	closed := n.closed
	n.mu.RUnlock()
	if closed {
		return
	}

	if n.async {
		select {
		case n.buffer <- change:
		case <-n.done:
		}
		return
	}
	n.deliver(change)
}

// Close stops delivery. Buffered changes are delivered first. It is safe
// to call more than once.
func (n *Notifier) Close() {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	n.mu.Unlock()

	close(n.done)
	n.wg.Wait()
}

// deliver calls matching observers in subscription order, outside the lock.
func (n *Notifier) deliver(change Change) {
	n.mu.RLock()
	matched := make([]subscriber, 0, len(n.subs))
	for _, s := range n.subs {
		if change.Type == ChangeReload || matchPrefix(s.prefix, change.Key) {
			matched = append(matched, s)
		}
	}
	n.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool { return matched[i].id < matched[j].id })
	for _, s := range matched {
		n.call(s, change)
	}
}

func (n *Notifier) call(s subscriber, change Change) {
	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("config observer panicked", "key", change.Key, "panic", r)
		}
	}()
	s.observer(change)
}

func (n *Notifier) processAsync() {
	defer n.wg.Done()

	for {
		select {
		case change := <-n.buffer:
			n.deliver(change)
		case <-n.done:
			for {
				select {
				case change := <-n.buffer:
					n.deliver(change)
				default:
					return
				}
			}
		}
	}
}

// matchPrefix reports whether key is prefix or lies under it. Section and
// name compare case-insensitively; keys passed here are already normalized.
func matchPrefix(prefix, key string) bool {
	if prefix == "" || prefix == key {
		return true
	}
	return strings.HasPrefix(key, prefix) && key[len(prefix)] == '.'
}

// Batch holds changes until they are committed.
type Batch struct {
	mu       sync.Mutex
	notifier *Notifier
	changes  []Change
}

// NewBatch creates an empty batch that delivers through n.
func (n *Notifier) NewBatch() *Batch {
	return &Batch{notifier: n}
}

// Add queues a change.
func (b *Batch) Add(change Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = append(b.changes, change)
}

// Commit delivers the queued changes in order and empties the batch.
func (b *Batch) Commit() {
	b.mu.Lock()
	changes := b.changes
	b.changes = nil
	b.mu.Unlock()

	for _, c := range changes {
		b.notifier.Notify(c)
	}
}

// Discard drops the queued changes.
func (b *Batch) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.changes = nil
}

// Len returns the number of queued changes.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.changes)
}

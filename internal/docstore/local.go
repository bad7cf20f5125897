package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmynk/familyalbum/internal/metrics"
	"github.com/mmynk/familyalbum/internal/storage"
)

// Ensure Local implements Store
var _ Store = (*Local)(nil)

// Notifier carries "collection changed" signals between server instances
// sharing one backend.
type Notifier interface {
	Publish(ctx context.Context, collection string) error
	// Listen calls fn for changes published by other instances until ctx is done.
	Listen(ctx context.Context, fn func(collection string)) error
}

// Option configures a Local store.
type Option func(*Local)

// WithMetrics records writes and deliveries in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Local) { l.metrics = m }
}

// WithNotifier publishes every write through n.
func WithNotifier(n Notifier) Option {
	return func(l *Local) { l.notifier = n }
}

// Local is a Store persisted to a storage.Backend.
//
// Writes and their notifications are serialized: listeners see snapshots in
// write order, and a listener is called synchronously on the writer's
// goroutine. Listeners must not call back into the store or unsubscribe from
// inside the callback.
type Local struct {
	backend  storage.Backend
	metrics  *metrics.Metrics
	notifier Notifier

	mu     sync.Mutex
	subs   map[string]map[uint64]Listener
	nextID uint64
}

// NewLocal creates a store on top of backend.
func NewLocal(backend storage.Backend, opts ...Option) *Local {
	l := &Local{
		backend: backend,
		subs:    make(map[string]map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Set overwrites collection/key.
func (l *Local) Set(ctx context.Context, collection, key string, doc any) error {
	if err := Validate(collection, key); err != nil {
		return err
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}

	l.mu.Lock()
	if err := l.backend.Put(ctx, collection, key, body); err != nil {
		l.mu.Unlock()
		return err
	}
	l.metrics.Write(collection, "set")
	l.notifyLocked(ctx, collection)
	l.mu.Unlock()

	l.publish(ctx, collection)
	return nil
}

// Remove deletes collection/key.
func (l *Local) Remove(ctx context.Context, collection, key string) error {
	if err := Validate(collection, key); err != nil {
		return err
	}

	l.mu.Lock()
	if err := l.backend.Delete(ctx, collection, key); err != nil {
		l.mu.Unlock()
		return err
	}
	l.metrics.Write(collection, "remove")
	l.notifyLocked(ctx, collection)
	l.mu.Unlock()

	l.publish(ctx, collection)
	return nil
}

// Subscribe registers fn for collection. fn receives the current snapshot
// before Subscribe returns.
func (l *Local) Subscribe(ctx context.Context, collection string, fn Listener) (func(), error) {
	if err := ValidateCollection(collection); err != nil {
		return nil, err
	}

	l.mu.Lock()
	snap, err := l.snapshot(ctx, collection)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	l.nextID++
	id := l.nextID
	if l.subs[collection] == nil {
		l.subs[collection] = make(map[uint64]Listener)
	}
	l.subs[collection][id] = fn
	l.metrics.SubscriberAdded(collection)
	fn(snap)
	l.metrics.Notified(collection, 1)
	l.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			l.mu.Lock()
			delete(l.subs[collection], id)
			l.mu.Unlock()
			l.metrics.SubscriberRemoved(collection)
		})
	}
	stop := context.AfterFunc(ctx, unsubscribe)

	return func() {
		stop()
		unsubscribe()
	}, nil
}

// Refresh redelivers the current snapshot of collection to its subscribers.
// Used when another instance changed the shared backend.
func (l *Local) Refresh(ctx context.Context, collection string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.notifyLocked(ctx, collection)
}

// Follow applies changes announced by the notifier until ctx is done.
// It returns immediately when no notifier is configured.
func (l *Local) Follow(ctx context.Context) error {
	if l.notifier == nil {
		return nil
	}
	return l.notifier.Listen(ctx, func(collection string) {
		if err := ValidateCollection(collection); err != nil {
			slog.Warn("Ignoring change for unknown collection", "collection", collection)
			return
		}
		slog.Debug("Remote change received", "collection", collection)
		l.Refresh(ctx, collection)
	})
}

// Subscribers returns the number of active subscriptions to collection.
func (l *Local) Subscribers(collection string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.subs[collection])
}

func (l *Local) snapshot(ctx context.Context, collection string) (Snapshot, error) {
	docs, err := l.backend.List(ctx, collection)
	if err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Collection: collection, Docs: make([]Doc, len(docs))}
	for i, d := range docs {
		snap.Docs[i] = Doc{Key: d.Key, Body: d.Body}
	}
	return snap, nil
}

// notifyLocked must be called with l.mu held.
func (l *Local) notifyLocked(ctx context.Context, collection string) {
	listeners := l.subs[collection]
	if len(listeners) == 0 {
		return
	}
	snap, err := l.snapshot(ctx, collection)
	if err != nil {
		// The write itself succeeded; subscribers catch up on the next change.
		slog.Error("Failed to load snapshot", "collection", collection, "error", err)
		return
	}
	for _, fn := range listeners {
		fn(snap)
	}
	l.metrics.Notified(collection, len(listeners))
}

func (l *Local) publish(ctx context.Context, collection string) {
	if l.notifier == nil {
		return
	}
	if err := l.notifier.Publish(ctx, collection); err != nil {
		slog.Warn("Failed to publish change", "collection", collection, "error", err)
	}
}

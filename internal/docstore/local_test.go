package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mmynk/familyalbum/internal/models"
	"github.com/mmynk/familyalbum/internal/storage/sqlite"
)

func newTestStore(t *testing.T, opts ...Option) *Local {
	t.Helper()

	backend, err := sqlite.New(filepath.Join(t.TempDir(), "docs.db"))
	if err != nil {
		t.Fatalf("failed to create backend: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	return NewLocal(backend, opts...)
}

// recorder collects snapshots delivered to a listener.
type recorder struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recorder) listen(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, s)
}

func (r *recorder) last(t *testing.T) Snapshot {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snaps) == 0 {
		t.Fatal("no snapshot delivered")
	}
	return r.snaps[len(r.snaps)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

func TestLocal_SubscribeDeliversInitialSnapshot(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, Groups, "g1", models.Group{Name: "Family"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	rec := &recorder{}
	unsubscribe, err := store.Subscribe(ctx, Groups, rec.listen)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	if rec.count() != 1 {
		t.Fatalf("expected 1 snapshot before Subscribe returns, got %d", rec.count())
	}
	snap := rec.last(t)
	if snap.Collection != Groups || snap.Len() != 1 || snap.Docs[0].Key != "g1" {
		t.Errorf("unexpected initial snapshot: %+v", snap)
	}
}

func TestLocal_WritesReplaceWholeCollection(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &recorder{}
	unsubscribe, err := store.Subscribe(ctx, Events, rec.listen)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	if rec.last(t).Len() != 0 {
		t.Fatalf("expected empty initial snapshot")
	}

	key, err := Push(ctx, store, Events, models.Event{Title: "Wedding", Date: "2024-06-01"})
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	if _, err := Push(ctx, store, Events, models.Event{Title: "Birthday"}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	events, err := Decode[models.Event](rec.last(t))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	// Keys sort in creation order.
	if events[0].ID != key || events[0].Title != "Wedding" || events[1].Title != "Birthday" {
		t.Errorf("unexpected events: %+v", events)
	}

	if err := store.Remove(ctx, Events, key); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if rec.last(t).Len() != 1 {
		t.Errorf("expected 1 event after remove, got %d", rec.last(t).Len())
	}

	// initial + 2 pushes + 1 remove
	if rec.count() != 4 {
		t.Errorf("expected 4 snapshots, got %d", rec.count())
	}
}

func TestLocal_OnlySubscribersOfCollectionNotified(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	photos := &recorder{}
	unsubscribe, err := store.Subscribe(ctx, Photos, photos.listen)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	if err := store.Set(ctx, Users, "u1", models.User{Username: "bataa"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if photos.count() != 1 {
		t.Errorf("photos subscriber should not see users writes, got %d snapshots", photos.count())
	}
}

func TestLocal_Unsubscribe(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := &recorder{}
	unsubscribe, err := store.Subscribe(ctx, Groups, rec.listen)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if store.Subscribers(Groups) != 1 {
		t.Fatalf("expected 1 subscriber")
	}

	unsubscribe()
	unsubscribe() // idempotent

	if store.Subscribers(Groups) != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe")
	}
	if err := store.Set(ctx, Groups, "g1", models.Group{Name: "x"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if rec.count() != 1 {
		t.Errorf("unsubscribed listener was called: %d snapshots", rec.count())
	}
}

func TestLocal_ContextCancelEndsSubscription(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	unsubscribe, err := store.Subscribe(ctx, Groups, func(Snapshot) {})
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for store.Subscribers(Groups) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription still active after context cancel")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLocal_Validation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		collection string
		key        string
		wantErr    error
	}{
		{"unknown collection", "familyMembers", "k", ErrUnknownCollection},
		{"empty key", Groups, "", ErrInvalidKey},
		{"nested path", Groups, "a/b", ErrInvalidKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Set(ctx, tt.collection, tt.key, struct{}{}); !errors.Is(err, tt.wantErr) {
				t.Errorf("Set: expected %v, got %v", tt.wantErr, err)
			}
			if err := store.Remove(ctx, tt.collection, tt.key); !errors.Is(err, tt.wantErr) {
				t.Errorf("Remove: expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if _, err := store.Subscribe(ctx, "comments", func(Snapshot) {}); !errors.Is(err, ErrUnknownCollection) {
		t.Errorf("Subscribe: expected ErrUnknownCollection, got %v", err)
	}
}

func TestLocal_RawMessageStoredVerbatim(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Set(ctx, Photos, "p1", json.RawMessage(`{"url":"data:image/png;base64,AAAA","eventId":"e1","addedBy":"u1"}`)); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	rec := &recorder{}
	unsubscribe, err := store.Subscribe(ctx, Photos, rec.listen)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()

	photos, err := Decode[models.Photo](rec.last(t))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(photos) != 1 || photos[0].ID != "p1" || photos[0].EventID != "e1" || photos[0].AddedBy != "u1" {
		t.Errorf("unexpected photos: %+v", photos)
	}
}

// fakeNotifier records publishes and lets the test inject foreign changes.
type fakeNotifier struct {
	mu        sync.Mutex
	published []string
	changes   chan string
}

func (n *fakeNotifier) Publish(ctx context.Context, collection string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, collection)
	return nil
}

func (n *fakeNotifier) Listen(ctx context.Context, fn func(string)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c := <-n.changes:
			fn(c)
		}
	}
}

func TestLocal_Notifier(t *testing.T) {
	notifier := &fakeNotifier{changes: make(chan string)}
	store := newTestStore(t, WithNotifier(notifier))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.Set(ctx, Groups, "g1", models.Group{Name: "a"}); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Remove(ctx, Groups, "g1"); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	notifier.mu.Lock()
	if len(notifier.published) != 2 || notifier.published[0] != Groups {
		t.Errorf("unexpected publishes: %v", notifier.published)
	}
	notifier.mu.Unlock()

	delivered := make(chan Snapshot, 4)
	unsubscribe, err := store.Subscribe(ctx, Groups, func(s Snapshot) { delivered <- s })
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer unsubscribe()
	<-delivered // initial

	followErr := make(chan error, 1)
	go func() { followErr <- store.Follow(ctx) }()

	notifier.changes <- Groups
	if snap := <-delivered; snap.Collection != Groups {
		t.Errorf("expected refreshed groups snapshot, got %s", snap.Collection)
	}

	cancel()
	if err := <-followErr; !errors.Is(err, context.Canceled) {
		t.Errorf("Follow returned %v, want context.Canceled", err)
	}
}

func TestLocal_FollowWithoutNotifier(t *testing.T) {
	store := newTestStore(t)
	if err := store.Follow(context.Background()); err != nil {
		t.Errorf("Follow without notifier: %v", err)
	}
}

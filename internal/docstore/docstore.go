// Package docstore is the live document store behind the album.
//
// It exposes four flat collections (users, groups, events, photos) of JSON
// documents. Writers overwrite or remove whole documents by key; readers
// subscribe to a collection and receive the full collection every time it
// changes. There is no incremental diffing and no cross-key atomicity.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/mmynk/familyalbum/internal/models"
)

// Collection names.
const (
	Users  = "users"
	Groups = "groups"
	Events = "events"
	Photos = "photos"
)

// Collections lists every collection the store accepts.
var Collections = []string{Users, Groups, Events, Photos}

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrInvalidKey        = errors.New("invalid document key")
)

// Listener receives whole-collection snapshots.
type Listener func(Snapshot)

// Store is implemented by the local store and by the remote client.
type Store interface {
	// Set overwrites collection/key with doc encoded as JSON.
	// Pass json.RawMessage to store an already encoded body.
	Set(ctx context.Context, collection, key string, doc any) error

	// Remove deletes collection/key.
	Remove(ctx context.Context, collection, key string) error

	// Subscribe calls fn with the current snapshot of collection and then
	// again after every change, until unsubscribe is called or ctx is done.
	Subscribe(ctx context.Context, collection string, fn Listener) (unsubscribe func(), err error)
}

// Doc is one document of a snapshot.
type Doc struct {
	Key  string          `json:"key"`
	Body json.RawMessage `json:"body"`
}

// Snapshot is the full content of a collection at one point in time,
// ordered by key. Snapshots are shared between listeners and must not be
// modified.
type Snapshot struct {
	Collection string `json:"collection"`
	Docs       []Doc  `json:"docs"`
}

// Len returns the number of documents in the snapshot.
func (s Snapshot) Len() int { return len(s.Docs) }

// Decode decodes every document of s into a T and sets its ID from the key.
func Decode[T any, PT interface {
	*T
	models.Keyed
}](s Snapshot) ([]T, error) {
	out := make([]T, 0, len(s.Docs))
	for _, d := range s.Docs {
		var v T
		if err := json.Unmarshal(d.Body, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", s.Collection, d.Key, err)
		}
		PT(&v).SetID(d.Key)
		out = append(out, v)
	}
	return out, nil
}

// NewKey returns a fresh document key. Keys sort in creation order.
func NewKey() string {
	return ulid.Make().String()
}

// Push stores doc under a fresh key and returns the key.
func Push(ctx context.Context, s Store, collection string, doc any) (string, error) {
	key := NewKey()
	if err := s.Set(ctx, collection, key, doc); err != nil {
		return "", err
	}
	return key, nil
}

// ValidateCollection rejects names outside Collections.
func ValidateCollection(collection string) error {
	if !slices.Contains(Collections, collection) {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return nil
}

// Validate checks a collection/key path.
func Validate(collection, key string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	if key == "" || strings.ContainsAny(key, "/.#$[]") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Package storage provides abstractions for persistent document storage.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document exists for the key.
var ErrNotFound = errors.New("document not found")

// Document is one stored record of a collection.
type Document struct {
	Key  string
	Body []byte
}

// Backend defines the interface for document persistence.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the live store built on top of it.
type Backend interface {
	// Put writes body under collection/key, replacing any previous document.
	Put(ctx context.Context, collection, key string, body []byte) error

	// Get returns the document body stored under collection/key.
	// Returns ErrNotFound if there is none.
	Get(ctx context.Context, collection, key string) ([]byte, error)

	// Delete removes collection/key. Deleting a missing key is not an error.
	Delete(ctx context.Context, collection, key string) error

	// List returns every document of the collection ordered by key.
	List(ctx context.Context, collection string) ([]Document, error)

	// Close releases any resources held by the backend.
	Close() error
}

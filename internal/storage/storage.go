// Package storage defines the key-value persistence interface backing the
// knowledge base, plus its in-memory and SQLite implementations.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key does not exist. Callers use
// it to tell an ordinary miss apart from a failing backend.
var ErrNotFound = errors.New("storage: key not found")

// Store is the durable key-value capability the retrieval core depends on.
// It owns no domain logic; values are opaque bytes.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, overwriting any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// List returns all keys with the given prefix, sorted ascending.
	List(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// Package store provides namespaced persistent key-value storage.
//
// A Store hands out one Collection per namespace; a Collection can only
// see its own keys. Namespaces isolate independently-authored consumers
// (one per plugin) without any coordination between them.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get for absent keys.
	ErrNotFound = errors.New("store: key not found")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("store: closed")
)

// Collection is a namespaced view of a Store. Values are encoded by the
// backend; Get decodes into out, which must be a pointer.
type Collection interface {
	Get(ctx context.Context, key string, out any) error
	Put(ctx context.Context, key string, value any) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
}

// Store creates Collections on demand. Namespace is idempotent: asking
// for the same name twice yields views of the same data.
type Store interface {
	Namespace(name string) (Collection, error)
	Close(ctx context.Context) error
}

// Package storage provides the durable key/value store that backs widget
// state, the server-side counterpart of a browser's local storage.
package storage

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage closed")

// Storage is a single namespace of string items.
type Storage interface {
	// GetItem returns the value stored under key and whether it exists.
	GetItem(ctx context.Context, key string) (string, bool, error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing a missing key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// Backend stores items for many namespaces. Each widget instance (a terminal
// user, a Telegram chat) works inside its own namespace.
type Backend interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
	Close() error
}

// Maintainer is implemented by backends that need periodic housekeeping.
type Maintainer interface {
	RunMaintenance(ctx context.Context) error
}

// Namespace scopes b to a single namespace.
func Namespace(b Backend, namespace string) Storage {
	return scoped{backend: b, namespace: namespace}
}

type scoped struct {
	backend   Backend
	namespace string
}

func (s scoped) GetItem(ctx context.Context, key string) (string, bool, error) {
	return s.backend.Get(ctx, s.namespace, key)
}

func (s scoped) SetItem(ctx context.Context, key, value string) error {
	return s.backend.Set(ctx, s.namespace, key, value)
}

func (s scoped) RemoveItem(ctx context.Context, key string) error {
	return s.backend.Delete(ctx, s.namespace, key)
}

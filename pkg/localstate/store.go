// Package localstate provides the durable key-value store backing the
// storefront's persisted client state: the cart registry, the selected
// display currency and the UI language. Values are opaque byte payloads;
// callers own their encoding.
package localstate

import "context"

// Store is a durable key-value store. Get returns an error wrapping
// errors.ErrNotFound when the key has never been written.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

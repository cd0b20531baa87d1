package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetItem when the key holds no value
var ErrNotFound = errors.New("storage: key not found")

// Substrate is the persistent key-value layer the cache writes through.
// Values are opaque text; serialization belongs to the caller.
// Implementations must tolerate concurrent use and provide last-writer-wins
// semantics per key. No cross-key atomicity is required.
type Substrate interface {
	// GetItem returns the stored value or ErrNotFound
	GetItem(ctx context.Context, key string) (string, error)

	// SetItem overwrites the value stored under key
	SetItem(ctx context.Context, key string, value string) error

	// RemoveItem deletes key; removing a missing key is not an error
	RemoveItem(ctx context.Context, key string) error

	// GetAllKeys lists every key currently held
	GetAllKeys(ctx context.Context) ([]string, error)

	// MultiRemove deletes all given keys in one batch
	MultiRemove(ctx context.Context, keys []string) error
}

func ctxErr(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return nil
	}
}

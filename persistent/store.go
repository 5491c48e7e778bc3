package persistent

import (
	"context"
	"time"

	"github.com/pkg/errors"
)

// ErrContention is reported by stores for transient conditions worth a retry
// (lock contention, timeouts). It never reaches the callers of [Cache].
var ErrContention = errors.New("store contention")

// Store is the durable key-value storage underlying a [Cache].
//
// Get and Delete return an error matching [dircache.ErrNotFound] for missing
// keys. Expired keys must read as missing.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A non positive ttl means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// Keys returns every key known to the store, possibly including expired
	// ones not yet purged.
	Keys(ctx context.Context) ([]string, error)
	Clear(ctx context.Context) error
	Close() error
}

// ExpiryLabel names an expiry duration in storage layouts so that caches with
// different expirations never share entries.
func ExpiryLabel(expiry time.Duration) string {
	if expiry <= 0 {
		return "none"
	}

	return expiry.String()
}

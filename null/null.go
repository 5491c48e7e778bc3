// Package null provides the cache used when listing caching is disabled.
package null

import (
	"context"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/pkg/errors"
)

const Mode = dircache.ModeDisabled

func init() {
	dircache.Register(Mode, CreateCacheFromOptions)
}

// Cache stores nothing: every read misses and every write is discarded.
type Cache struct{}

// Get implements [dircache.Cache].
func (Cache) Get(ctx context.Context, path string) (dircache.Listing, error) {
	return nil, errors.WithStack(dircache.ErrNotFound)
}

// Set implements [dircache.Cache].
func (Cache) Set(ctx context.Context, path string, listing dircache.Listing) error {
	return nil
}

// Delete implements [dircache.Cache].
func (Cache) Delete(ctx context.Context, path string) error {
	return nil
}

// Contains implements [dircache.Cache].
func (Cache) Contains(ctx context.Context, path string) (bool, error) {
	return false, nil
}

// Clear implements [dircache.Cache].
func (Cache) Clear(ctx context.Context) error {
	return nil
}

// Keys implements [dircache.Cache].
func (Cache) Keys(ctx context.Context) ([]string, error) {
	return []string{}, nil
}

// Len implements [dircache.Cache].
func (Cache) Len(ctx context.Context) (int, error) {
	return 0, nil
}

// Config implements [dircache.Cache].
func (Cache) Config() dircache.Config {
	return dircache.Config{Mode: Mode}
}

// CreateCacheFromOptions ignores both expiry and options.
func CreateCacheFromOptions(expiry time.Duration, options any) (dircache.Cache, error) {
	return Cache{}, nil
}

var _ dircache.Cache = Cache{}

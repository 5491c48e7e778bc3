// Package persistent provides a listing cache over a durable key-value
// [Store]. Expiry is delegated to the store: the cache only passes the
// configured duration along with every write.
//
// Transient store failures ([ErrContention]) are retried according to a
// bounded [RetryPolicy]; every other failure, or exhausted retries, surfaces
// as [dircache.ErrIO].
package persistent

import (
	"context"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/bornholm/go-dircache/codec"
	"github.com/pkg/errors"
)

type Options struct {
	Mode        dircache.Mode
	Expiry      time.Duration
	Codec       codec.Codec[dircache.Listing]
	RetryPolicy RetryPolicy
	// Options returned as part of the cache configuration
	Config any
}

type OptionFunc func(opts *Options)

func WithCodec(c codec.Codec[dircache.Listing]) OptionFunc {
	return func(opts *Options) {
		opts.Codec = c
	}
}

func WithRetryPolicy(policy RetryPolicy) OptionFunc {
	return func(opts *Options) {
		opts.RetryPolicy = policy
	}
}

func WithExpiry(expiry time.Duration) OptionFunc {
	return func(opts *Options) {
		opts.Expiry = expiry
	}
}

// WithConfig sets the mode and backend options reported by [Cache.Config].
func WithConfig(mode dircache.Mode, options any) OptionFunc {
	return func(opts *Options) {
		opts.Mode = mode
		opts.Config = options
	}
}

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Codec:       codec.Msgpack[dircache.Listing]{},
		RetryPolicy: DefaultRetryPolicy,
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

type Cache struct {
	store Store
	opts  *Options
}

// Get implements [dircache.Cache].
func (c *Cache) Get(ctx context.Context, path string) (dircache.Listing, error) {
	data, err := retry(ctx, c.opts.RetryPolicy, "get", func() ([]byte, error) {
		return c.store.Get(ctx, path)
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	listing, err := c.opts.Codec.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(dircache.ErrIO, "could not decode listing of '%s': %s", path, err)
	}

	return listing, nil
}

// Set implements [dircache.Cache].
func (c *Cache) Set(ctx context.Context, path string, listing dircache.Listing) error {
	if listing == nil {
		listing = dircache.Listing{}
	}

	data, err := c.opts.Codec.Encode(listing)
	if err != nil {
		return errors.Wrapf(dircache.ErrIO, "could not encode listing of '%s': %s", path, err)
	}

	err = retryNoData(ctx, c.opts.RetryPolicy, "set", func() error {
		return c.store.Set(ctx, path, data, c.opts.Expiry)
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Delete implements [dircache.Cache].
func (c *Cache) Delete(ctx context.Context, path string) error {
	err := retryNoData(ctx, c.opts.RetryPolicy, "delete", func() error {
		return c.store.Delete(ctx, path)
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Contains implements [dircache.Cache].
//
// Only entries holding a non-empty listing are reported. Absent, expired and
// empty entries all read as false.
func (c *Cache) Contains(ctx context.Context, path string) (bool, error) {
	listing, err := c.Get(ctx, path)
	if err != nil {
		if errors.Is(err, dircache.ErrNotFound) {
			return false, nil
		}

		return false, errors.WithStack(err)
	}

	return len(listing) > 0, nil
}

// Clear implements [dircache.Cache].
func (c *Cache) Clear(ctx context.Context) error {
	err := retryNoData(ctx, c.opts.RetryPolicy, "clear", func() error {
		return c.store.Clear(ctx)
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return nil
}

// Keys implements [dircache.Cache].
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	all, err := c.storeKeys(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	keys := make([]string, 0, len(all))
	for _, k := range all {
		contains, err := c.Contains(ctx, k)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if contains {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Len implements [dircache.Cache].
func (c *Cache) Len(ctx context.Context) (int, error) {
	keys, err := c.storeKeys(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return len(keys), nil
}

// Config implements [dircache.Cache].
func (c *Cache) Config() dircache.Config {
	return dircache.Config{
		Mode:    c.opts.Mode,
		Expiry:  c.opts.Expiry,
		Options: c.opts.Config,
	}
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	if err := c.store.Close(); err != nil {
		return errors.WithStack(err)
	}

	return nil
}

func (c *Cache) storeKeys(ctx context.Context) ([]string, error) {
	return retry(ctx, c.opts.RetryPolicy, "keys", func() ([]string, error) {
		return c.store.Keys(ctx)
	})
}

func NewCache(store Store, funcs ...OptionFunc) *Cache {
	opts := NewOptions(funcs...)

	return &Cache{
		store: store,
		opts:  opts,
	}
}

var _ dircache.Cache = &Cache{}

// Package memory provides an in-process listing cache with optional expiry
// and an optional bound on the number of cached paths.
//
// The cache is not safe for concurrent use, wrap it with
// [dircache.Synchronized] when shared between goroutines.
package memory

import (
	"context"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

const Mode = dircache.ModeMemory

func init() {
	dircache.Register(Mode, CreateCacheFromOptions)
}

type Options struct {
	// Maximum number of cached paths, 0 means unbounded
	MaxPaths int `mapstructure:"maxPaths" validate:"gte=0"`
}

type Cache struct {
	expiry   time.Duration
	maxPaths int
	now      func() time.Time

	listings map[string]dircache.Listing
	times    map[string]time.Time
	recency  *recency
}

type OptionFunc func(c *Cache)

// WithClock replaces the time source used to timestamp and expire entries.
func WithClock(now func() time.Time) OptionFunc {
	return func(c *Cache) {
		c.now = now
	}
}

// Get implements [dircache.Cache].
func (c *Cache) Get(ctx context.Context, path string) (dircache.Listing, error) {
	listing, exists := c.listings[path]
	if !exists {
		return nil, errors.WithStack(dircache.ErrNotFound)
	}

	if c.expired(path) {
		c.remove(path)
		return nil, errors.WithStack(dircache.ErrNotFound)
	}

	if c.recency != nil {
		c.touch(path)
	}

	return listing, nil
}

// Set implements [dircache.Cache].
func (c *Cache) Set(ctx context.Context, path string, listing dircache.Listing) error {
	if c.recency != nil {
		c.touch(path)
	}

	c.listings[path] = listing

	if c.expiry > 0 {
		c.times[path] = c.now()
	}

	return nil
}

// Delete implements [dircache.Cache].
func (c *Cache) Delete(ctx context.Context, path string) error {
	if _, exists := c.listings[path]; !exists {
		return errors.WithStack(dircache.ErrNotFound)
	}

	c.remove(path)

	return nil
}

// Contains implements [dircache.Cache].
//
// Like Get, it drops the entry if it has expired and promotes it in the
// eviction order otherwise.
func (c *Cache) Contains(ctx context.Context, path string) (bool, error) {
	if _, err := c.Get(ctx, path); err != nil {
		if errors.Is(err, dircache.ErrNotFound) {
			return false, nil
		}

		return false, errors.WithStack(err)
	}

	return true, nil
}

// Clear implements [dircache.Cache].
func (c *Cache) Clear(ctx context.Context) error {
	clear(c.listings)
	clear(c.times)

	if c.recency != nil {
		c.recency.clear()
	}

	return nil
}

// Keys implements [dircache.Cache].
func (c *Cache) Keys(ctx context.Context) ([]string, error) {
	snapshot := make([]string, 0, len(c.listings))
	for path := range c.listings {
		snapshot = append(snapshot, path)
	}

	keys := make([]string, 0, len(snapshot))
	for _, path := range snapshot {
		contains, err := c.Contains(ctx, path)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		if contains {
			keys = append(keys, path)
		}
	}

	return keys, nil
}

// Len implements [dircache.Cache].
func (c *Cache) Len(ctx context.Context) (int, error) {
	return len(c.listings), nil
}

// Config implements [dircache.Cache].
func (c *Cache) Config() dircache.Config {
	return dircache.Config{
		Mode:   Mode,
		Expiry: c.expiry,
		Options: Options{
			MaxPaths: c.maxPaths,
		},
	}
}

func (c *Cache) expired(path string) bool {
	if c.expiry <= 0 {
		return false
	}

	return c.now().Sub(c.times[path]) > c.expiry
}

func (c *Cache) touch(path string) {
	if evicted, ok := c.recency.touch(path); ok {
		delete(c.listings, evicted)
		delete(c.times, evicted)
	}
}

func (c *Cache) remove(path string) {
	delete(c.listings, path)
	delete(c.times, path)

	if c.recency != nil {
		c.recency.remove(path)
	}
}

// NewCache creates an empty cache. A non positive expiry disables expiration
// and a non positive maxPaths disables the bound on cached paths.
func NewCache(expiry time.Duration, maxPaths int, funcs ...OptionFunc) *Cache {
	c := &Cache{
		expiry:   expiry,
		maxPaths: maxPaths,
		now:      time.Now,
		listings: make(map[string]dircache.Listing),
		times:    make(map[string]time.Time),
	}

	if maxPaths > 0 {
		c.recency = newRecency(maxPaths)
	}

	for _, fn := range funcs {
		fn(c)
	}

	return c
}

func CreateCacheFromOptions(expiry time.Duration, options any) (dircache.Cache, error) {
	opts := Options{}

	if err := mapstructure.Decode(options, &opts); err != nil {
		return nil, errors.Wrapf(dircache.ErrConfiguration, "could not parse '%s' cache options: %s", Mode, err)
	}

	validate := validator.New()
	if err := validate.Struct(&opts); err != nil {
		return nil, errors.Wrapf(dircache.ErrConfiguration, "could not validate '%s' cache options: %s", Mode, err)
	}

	return NewCache(expiry, opts.MaxPaths), nil
}

var _ dircache.Cache = &Cache{}

package dircache

import (
	"context"
	"io"
	"sync"
)

// SyncCache serializes every operation of its backend behind a single lock.
type SyncCache struct {
	mu      sync.Mutex
	backend Cache
}

// Get implements [Cache].
func (c *SyncCache) Get(ctx context.Context, path string) (Listing, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Get(ctx, path)
}

// Set implements [Cache].
func (c *SyncCache) Set(ctx context.Context, path string, listing Listing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Set(ctx, path, listing)
}

// Delete implements [Cache].
func (c *SyncCache) Delete(ctx context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Delete(ctx, path)
}

// Contains implements [Cache].
func (c *SyncCache) Contains(ctx context.Context, path string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Contains(ctx, path)
}

// Clear implements [Cache].
func (c *SyncCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Clear(ctx)
}

// Keys implements [Cache].
func (c *SyncCache) Keys(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Keys(ctx)
}

// Len implements [Cache].
func (c *SyncCache) Len(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backend.Len(ctx)
}

// Config implements [Cache].
func (c *SyncCache) Config() Config {
	return c.backend.Config()
}

// Close releases the backend resources, if it holds any.
func (c *SyncCache) Close() error {
	closer, ok := c.backend.(io.Closer)
	if !ok {
		return nil
	}

	return closer.Close()
}

// Synchronized makes backend safe for concurrent use. Caches already wrapped
// are returned as is.
func Synchronized(backend Cache) *SyncCache {
	if c, ok := backend.(*SyncCache); ok {
		return c
	}

	return &SyncCache{backend: backend}
}

var (
	_ Cache     = &SyncCache{}
	_ io.Closer = &SyncCache{}
)

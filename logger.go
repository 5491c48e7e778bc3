package dircache

import (
	"context"
	"io"
	"log/slog"
)

type LoggerCache struct {
	logger  *slog.Logger
	backend Cache
}

// Get implements [Cache].
func (c *LoggerCache) Get(ctx context.Context, path string) (Listing, error) {
	listing, err := c.backend.Get(ctx, path)
	switch {
	case IsNotFound(err):
		c.logger.DebugContext(ctx, "cache miss", slog.String("path", path))
	case err != nil:
		c.logger.ErrorContext(ctx, "could not read listing", slog.String("path", path), slog.Any("error", err))
	default:
		c.logger.DebugContext(ctx, "cache hit", slog.String("path", path), slog.Int("entries", len(listing)))
	}
	return listing, err
}

// Set implements [Cache].
func (c *LoggerCache) Set(ctx context.Context, path string, listing Listing) error {
	c.logger.DebugContext(ctx, "cache operation", slog.String("operation", "set"), slog.String("path", path), slog.Int("entries", len(listing)))
	return c.logError(ctx, "set", path, c.backend.Set(ctx, path, listing))
}

// Delete implements [Cache].
func (c *LoggerCache) Delete(ctx context.Context, path string) error {
	c.logger.DebugContext(ctx, "cache operation", slog.String("operation", "delete"), slog.String("path", path))
	return c.logError(ctx, "delete", path, c.backend.Delete(ctx, path))
}

// Contains implements [Cache].
func (c *LoggerCache) Contains(ctx context.Context, path string) (bool, error) {
	ok, err := c.backend.Contains(ctx, path)
	c.logger.DebugContext(ctx, "cache operation", slog.String("operation", "contains"), slog.String("path", path), slog.Bool("found", ok))
	return ok, c.logError(ctx, "contains", path, err)
}

// Clear implements [Cache].
func (c *LoggerCache) Clear(ctx context.Context) error {
	c.logger.DebugContext(ctx, "cache operation", slog.String("operation", "clear"))
	return c.logError(ctx, "clear", "", c.backend.Clear(ctx))
}

// Keys implements [Cache].
func (c *LoggerCache) Keys(ctx context.Context) ([]string, error) {
	keys, err := c.backend.Keys(ctx)
	c.logger.DebugContext(ctx, "cache operation", slog.String("operation", "keys"), slog.Int("total", len(keys)))
	return keys, c.logError(ctx, "keys", "", err)
}

// Len implements [Cache].
func (c *LoggerCache) Len(ctx context.Context) (int, error) {
	l, err := c.backend.Len(ctx)
	return l, c.logError(ctx, "len", "", err)
}

// Config implements [Cache].
func (c *LoggerCache) Config() Config {
	return c.backend.Config()
}

// Close releases the backend resources, if it holds any.
func (c *LoggerCache) Close() error {
	closer, ok := c.backend.(io.Closer)
	if !ok {
		return nil
	}

	return closer.Close()
}

func (c *LoggerCache) logError(ctx context.Context, operation string, path string, err error) error {
	if err == nil || IsNotFound(err) {
		return err
	}

	c.logger.ErrorContext(ctx, "cache operation failed", slog.String("operation", operation), slog.String("path", path), slog.Any("error", err))

	return err
}

func WithLogger(backend Cache, logger *slog.Logger) *LoggerCache {
	return &LoggerCache{
		backend: backend,
		logger:  logger,
	}
}

var (
	_ Cache     = &LoggerCache{}
	_ io.Closer = &LoggerCache{}
)

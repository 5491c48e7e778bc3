package redis

import (
	"context"
	"net"
	"strings"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/bornholm/go-dircache/persistent"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
)

const scanCount = 100

// Store is a [persistent.Store] over redis. Every key is namespaced by prefix
// and expiration relies on native redis TTLs.
type Store struct {
	rdb         goredis.UniversalClient
	prefix      string
	closeClient bool
}

// Get implements [persistent.Store].
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, errors.WithStack(dircache.ErrNotFound)
	}
	if err != nil {
		return nil, wrapError(err)
	}

	return value, nil
}

// Set implements [persistent.Store].
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}

	if err := s.rdb.Set(ctx, s.prefix+key, value, ttl).Err(); err != nil {
		return wrapError(err)
	}

	return nil
}

// Delete implements [persistent.Store].
func (s *Store) Delete(ctx context.Context, key string) error {
	deleted, err := s.rdb.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return wrapError(err)
	}

	if deleted == 0 {
		return errors.WithStack(dircache.ErrNotFound)
	}

	return nil
}

// Keys implements [persistent.Store].
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	keys := make([]string, 0)

	err := s.scan(ctx, func(key string) error {
		keys = append(keys, strings.TrimPrefix(key, s.prefix))
		return nil
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return keys, nil
}

// Clear implements [persistent.Store].
func (s *Store) Clear(ctx context.Context) error {
	batch := make([]string, 0, scanCount)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		if err := s.rdb.Del(ctx, batch...).Err(); err != nil {
			return wrapError(err)
		}

		batch = batch[:0]

		return nil
	}

	err := s.scan(ctx, func(key string) error {
		batch = append(batch, key)
		if len(batch) < scanCount {
			return nil
		}
		return flush()
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return flush()
}

// Close implements [persistent.Store]. The client is only closed when the
// store owns it.
func (s *Store) Close() error {
	if !s.closeClient {
		return nil
	}

	if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return errors.WithStack(err)
	}

	return nil
}

func (s *Store) scan(ctx context.Context, fn func(key string) error) error {
	iter := s.rdb.Scan(ctx, 0, escapePattern(s.prefix)+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		if err := fn(iter.Val()); err != nil {
			return errors.WithStack(err)
		}
	}

	if err := iter.Err(); err != nil {
		return wrapError(err)
	}

	return nil
}

var patternEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapePattern(s string) string {
	return patternEscaper.Replace(s)
}

// wrapError flags timeouts and redis "retry later" replies as transient.
func wrapError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return errors.Wrap(persistent.ErrContention, err.Error())
	}

	msg := err.Error()
	for _, prefix := range []string{"LOADING", "BUSY", "TRYAGAIN", "MASTERDOWN"} {
		if strings.HasPrefix(msg, prefix) {
			return errors.Wrap(persistent.ErrContention, msg)
		}
	}

	return errors.WithStack(err)
}

type StoreOptionFunc func(s *Store)

// WithOwnedClient makes Close also close the redis client.
func WithOwnedClient() StoreOptionFunc {
	return func(s *Store) {
		s.closeClient = true
	}
}

func NewStore(rdb goredis.UniversalClient, prefix string, funcs ...StoreOptionFunc) *Store {
	s := &Store{
		rdb:    rdb,
		prefix: prefix,
	}

	for _, fn := range funcs {
		fn(s)
	}

	return s
}

var _ persistent.Store = &Store{}

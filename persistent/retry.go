package persistent

import (
	"context"
	"log/slog"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/cenkalti/backoff/v4"
	"github.com/pkg/errors"
)

// RetryPolicy creates the backoff used for a single store operation. It must
// return a bounded backoff.
type RetryPolicy func() backoff.BackOff

const (
	DefaultMaxRetries      = 5
	DefaultInitialInterval = 10 * time.Millisecond
	DefaultMaxInterval     = 500 * time.Millisecond
	DefaultMaxElapsedTime  = 5 * time.Second
)

func DefaultRetryPolicy() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = DefaultInitialInterval
	b.MaxInterval = DefaultMaxInterval
	b.MaxElapsedTime = DefaultMaxElapsedTime
	return backoff.WithMaxRetries(b, DefaultMaxRetries)
}

// NoRetry gives up on the first failure.
func NoRetry() backoff.BackOff {
	return &backoff.StopBackOff{}
}

func retry[T any](ctx context.Context, policy RetryPolicy, operation string, fn func() (T, error)) (T, error) {
	var op backoff.OperationWithData[T] = func() (T, error) {
		value, err := fn()
		if err != nil && !errors.Is(err, ErrContention) {
			return value, backoff.Permanent(err)
		}
		return value, err
	}

	notify := func(err error, next time.Duration) {
		slog.DebugContext(ctx, "store contention, retrying", slog.String("operation", operation), slog.Duration("next", next), slog.Any("error", err))
	}

	value, err := backoff.RetryNotifyWithData(op, backoff.WithContext(policy(), ctx), notify)
	if err != nil {
		if errors.Is(err, dircache.ErrNotFound) {
			return value, err
		}

		if errors.Is(err, ErrContention) {
			return value, errors.Wrapf(dircache.ErrIO, "%s: retries exhausted: %s", operation, err)
		}

		if errors.Is(err, dircache.ErrIO) {
			return value, err
		}

		return value, errors.Wrapf(dircache.ErrIO, "%s: %s", operation, err)
	}

	return value, nil
}

func retryNoData(ctx context.Context, policy RetryPolicy, operation string, fn func() error) error {
	_, err := retry(ctx, policy, operation, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

package dircache

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when a path is absent from the cache or expired.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration is returned at construction time when the requested
	// backend is unknown, unavailable or misconfigured.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrIO is returned when the durable storage of a backend is unusable.
	ErrIO = errors.New("i/o error")
)

// IsNotFound reports whether err is, or wraps, [ErrNotFound].
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

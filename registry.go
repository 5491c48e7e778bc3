package dircache

import (
	"slices"
	"time"

	"github.com/pkg/errors"
)

type Mode string

const (
	ModeDisabled Mode = "disabled"
	ModeMemory   Mode = "memory"
	ModeFile     Mode = "file"
	ModeRedis    Mode = "redis"
)

// Packages providing the known modes, used to give actionable errors when a
// backend has not been linked in.
var knownModes = map[Mode]string{
	ModeDisabled: "github.com/bornholm/go-dircache/null",
	ModeMemory:   "github.com/bornholm/go-dircache/memory",
	ModeFile:     "github.com/bornholm/go-dircache/file",
	ModeRedis:    "github.com/bornholm/go-dircache/redis",
}

type Factory func(expiry time.Duration, options any) (Cache, error)

var factories = make(map[Mode]Factory, 0)

func Register(mode Mode, factory Factory) {
	factories[mode] = factory
}

func Registered() []Mode {
	modes := make([]Mode, 0, len(factories))
	for m := range factories {
		modes = append(modes, m)
	}
	slices.Sort(modes)
	return modes
}

// New creates a cache for the given mode. A non positive expiry disables
// expiration. Options are decoded by the backend and may be nil.
func New(mode Mode, expiry time.Duration, options any) (Cache, error) {
	factory, exists := factories[mode]
	if !exists {
		if pkg, known := knownModes[mode]; known {
			return nil, errors.Wrapf(ErrConfiguration, "cache mode '%s' is not available, import '%s' to enable it", mode, pkg)
		}

		return nil, errors.Wrapf(ErrConfiguration, "unknown cache mode '%s'", mode)
	}

	cache, err := factory(expiry, options)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return cache, nil
}

// FromConfig creates a new, empty cache configured like the one conf was
// retrieved from.
func FromConfig(conf Config) (Cache, error) {
	return New(conf.Mode, conf.Expiry, conf.Options)
}

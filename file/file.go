// Package file provides a listing cache persisted on disk in a sqlite
// database.
//
// Databases are laid out as <root>/dircache/<expiry>/dircache.db so that
// caches configured with different expirations never share their storage.
package file

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/bornholm/go-dircache/codec"
	"github.com/bornholm/go-dircache/persistent"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

const Mode = dircache.ModeFile

const (
	AppName      = "go-dircache"
	databaseName = "dircache.db"
)

func init() {
	dircache.Register(Mode, CreateCacheFromOptions)
}

type Options struct {
	// Root directory of the cache, defaults to the user cache directory
	Dir   string `mapstructure:"dir"`
	Codec string `mapstructure:"codec" validate:"omitempty,oneof=msgpack cbor json"`
}

// DefaultDir returns the root directory used when none is configured.
func DefaultDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", errors.WithStack(err)
	}

	return filepath.Join(dir, AppName), nil
}

// Dir returns the directory holding the database for the given root and
// expiry.
func Dir(root string, expiry time.Duration) string {
	return filepath.Join(root, "dircache", persistent.ExpiryLabel(expiry))
}

// NewCache creates the database directory if needed and opens the cache
// stored there.
func NewCache(expiry time.Duration, opts Options, funcs ...persistent.OptionFunc) (*persistent.Cache, error) {
	root := opts.Dir
	if root == "" {
		defaultDir, err := DefaultDir()
		if err != nil {
			return nil, errors.Wrapf(dircache.ErrIO, "could not resolve user cache directory: %s", err)
		}
		root = defaultDir
	}

	dir := Dir(root, expiry)

	if err := os.MkdirAll(dir, os.ModePerm|os.ModeDir); err != nil {
		slog.Error("directory for listing cache could not be created", slog.String("dir", dir), slog.Any("error", err))
		return nil, errors.Wrapf(dircache.ErrIO, "could not create directory '%s': %s", dir, err)
	}

	slog.Info("listing cache located", slog.String("dir", dir))

	c, err := codec.New[dircache.Listing](opts.Codec)
	if err != nil {
		return nil, errors.Wrapf(dircache.ErrConfiguration, "%s", err)
	}

	dbPath := filepath.Join(dir, databaseName)

	store, err := NewStore(dbPath)
	if err != nil {
		slog.Error("listing cache database could not be opened", slog.String("path", dbPath), slog.Any("error", err))
		return nil, errors.Wrapf(dircache.ErrIO, "could not open listing cache database '%s': %s", dbPath, err)
	}

	funcs = append([]persistent.OptionFunc{
		persistent.WithExpiry(expiry),
		persistent.WithCodec(c),
		persistent.WithConfig(Mode, opts),
	}, funcs...)

	return persistent.NewCache(store, funcs...), nil
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

	cache, err := NewCache(expiry, opts)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return cache, nil
}

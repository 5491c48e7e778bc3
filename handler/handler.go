// Package handler serves a [wd.FileSystem] over WebDAV, optionally caching
// directory listings.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	dircache "github.com/bornholm/go-dircache"
	"github.com/bornholm/go-dircache/middleware"
	"github.com/bornholm/go-dircache/middleware/cache"
	"github.com/pkg/errors"
	wd "golang.org/x/net/webdav"
)

type Logger func(r *http.Request, err error)

type Options struct {
	Prefix      string
	Middlewares []middleware.Middleware
	LockSystem  wd.LockSystem
	Logger      Logger

	ListingCache        dircache.Cache
	ListingCacheOptions []cache.OptionFunc
}

type OptionFunc func(opts *Options)

func WithPrefix(prefix string) OptionFunc {
	return func(opts *Options) {
		opts.Prefix = prefix
	}
}

func WithMiddlewares(middewares ...middleware.Middleware) OptionFunc {
	return func(opts *Options) {
		opts.Middlewares = middewares
	}
}

// WithListingCache serves directory listings from c. The cache middleware is
// applied closest to the filesystem, after every other middleware.
func WithListingCache(c dircache.Cache, funcs ...cache.OptionFunc) OptionFunc {
	return func(opts *Options) {
		opts.ListingCache = c
		opts.ListingCacheOptions = funcs
	}
}

func WithLockSystem(lockSystem wd.LockSystem) OptionFunc {
	return func(opts *Options) {
		opts.LockSystem = lockSystem
	}
}

func WithLogger(logger Logger) OptionFunc {
	return func(opts *Options) {
		opts.Logger = logger
	}
}

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Prefix:      "",
		Middlewares: []middleware.Middleware{},
		LockSystem:  wd.NewMemLS(),
		Logger: func(r *http.Request, err error) {
			if err != nil && !(errors.Is(err, context.Canceled)) {
				slog.ErrorContext(r.Context(), err.Error(), "method", r.Method, "path", r.URL.Path)
			}
		},
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

type Handler struct {
	webdav *wd.Handler
}

// ServeHTTP implements [http.Handler].
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.webdav.ServeHTTP(w, r)
}

func New(fs wd.FileSystem, funcs ...OptionFunc) *Handler {
	opts := NewOptions(funcs...)

	middlewares := opts.Middlewares
	if opts.ListingCache != nil {
		middlewares = append(middlewares[:len(middlewares):len(middlewares)], cache.Middleware(opts.ListingCache, opts.ListingCacheOptions...))
	}

	webdav := &wd.Handler{
		FileSystem: middleware.Chain(fs, middlewares...),
		LockSystem: opts.LockSystem,
		Prefix:     opts.Prefix,
		Logger:     opts.Logger,
	}

	return &Handler{
		webdav: webdav,
	}
}

var _ http.Handler = &Handler{}

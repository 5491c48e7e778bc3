// Package cache provides a [webdav.FileSystem] middleware caching directory
// listings in a [dircache.Cache].
package cache

import (
	"context"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	dircache "github.com/bornholm/go-dircache"
	"github.com/minio/minio-go/v7/pkg/singleflight"
	"github.com/pkg/errors"
	"golang.org/x/net/webdav"
)

type Options struct {
	Rule Rule
}

type OptionFunc func(opts *Options)

// WithRule restricts caching to the directories accepted by rule.
func WithRule(rule Rule) OptionFunc {
	return func(opts *Options) {
		opts.Rule = rule
	}
}

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Rule: alwaysRule{},
	}

	for _, fn := range funcs {
		fn(opts)
	}

	return opts
}

type FileSystem struct {
	backend             webdav.FileSystem
	cache               dircache.Cache
	rule                Rule
	readdirSingleFlight *singleflight.Group[string, []os.FileInfo]

	// epoch is bumped by every completed mutation. A listing read before a
	// mutation completed is never stored after it.
	epochMutex sync.Mutex
	epoch      uint64
}

func NewFileSystem(backend webdav.FileSystem, cache dircache.Cache, funcs ...OptionFunc) *FileSystem {
	opts := NewOptions(funcs...)

	return &FileSystem{
		backend:             backend,
		cache:               dircache.Synchronized(cache),
		rule:                opts.Rule,
		readdirSingleFlight: &singleflight.Group[string, []os.FileInfo]{},
	}
}

func (fs *FileSystem) Mkdir(ctx context.Context, name string, perm os.FileMode) error {
	return fs.mutate(ctx, func() error {
		return fs.backend.Mkdir(ctx, name, perm)
	}, name)
}

func (fs *FileSystem) OpenFile(ctx context.Context, name string, flag int, perm os.FileMode) (webdav.File, error) {
	isWrite := flag&os.O_RDWR != 0 || flag&os.O_WRONLY != 0 || flag&os.O_APPEND != 0 || flag&os.O_CREATE != 0 || flag&os.O_TRUNC != 0

	if !isWrite {
		f, err := fs.backend.OpenFile(ctx, name, flag, perm)
		if err != nil {
			return nil, err
		}

		return &fileWrapper{ctx: ctx, file: f, fs: fs, name: name}, nil
	}

	var f webdav.File

	err := fs.mutate(ctx, func() error {
		var err error
		f, err = fs.backend.OpenFile(ctx, name, flag, perm)
		return err
	}, name)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return nil, err
	}

	return &fileWrapper{ctx: ctx, file: f, fs: fs, name: name, isWrite: true}, nil
}

func (fs *FileSystem) RemoveAll(ctx context.Context, name string) error {
	return fs.mutateTree(ctx, func() error {
		return fs.backend.RemoveAll(ctx, name)
	}, name)
}

func (fs *FileSystem) Rename(ctx context.Context, oldName, newName string) error {
	return fs.mutateTree(ctx, func() error {
		return fs.backend.Rename(ctx, oldName, newName)
	}, oldName, newName)
}

func (fs *FileSystem) Stat(ctx context.Context, name string) (os.FileInfo, error) {
	return fs.backend.Stat(ctx, name)
}

func (fs *FileSystem) readdir(ctx context.Context, name string, readdir func() ([]os.FileInfo, error)) ([]os.FileInfo, error) {
	key := cacheKey(name)

	cacheable, err := fs.rule.Cacheable(key)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if !cacheable {
		return readdir()
	}

	listing, err := fs.cache.Get(ctx, key)
	if err == nil {
		slog.DebugContext(ctx, "cache hit", "name", key)
		return listing.Infos(), nil
	}

	if !dircache.IsNotFound(err) {
		return nil, errors.WithStack(err)
	}

	slog.DebugContext(ctx, "cache miss", "name", key)

	children, err, _ := fs.readdirSingleFlight.Do(key, func() ([]os.FileInfo, error) {
		epoch := fs.currentEpoch()

		children, err := readdir()
		if err != nil {
			return nil, err
		}

		// Empty listings are not reported by every backend's Keys and could not
		// be invalidated with their parent tree.
		if len(children) == 0 {
			return children, nil
		}

		if err := fs.store(ctx, key, epoch, dircache.NewListing(children)); err != nil {
			return nil, errors.WithStack(err)
		}

		return children, nil
	})

	return children, err
}

func (fs *FileSystem) currentEpoch() uint64 {
	fs.epochMutex.Lock()
	defer fs.epochMutex.Unlock()
	return fs.epoch
}

// store caches listing unless a mutation completed since epoch was read.
func (fs *FileSystem) store(ctx context.Context, key string, epoch uint64, listing dircache.Listing) error {
	fs.epochMutex.Lock()
	defer fs.epochMutex.Unlock()

	if fs.epoch != epoch {
		slog.DebugContext(ctx, "listing outdated by a concurrent mutation", "name", key)
		return nil
	}

	return fs.cache.Set(ctx, key, listing)
}

// mutate runs fn and drops the listings of names and their parents, both
// before and after fn.
func (fs *FileSystem) mutate(ctx context.Context, fn func() error, names ...string) error {
	return fs.doMutate(ctx, fn, fs.invalidateWithParent, names...)
}

// mutateTree is mutate also dropping every cached descendant of names.
func (fs *FileSystem) mutateTree(ctx context.Context, fn func() error, names ...string) error {
	return fs.doMutate(ctx, fn, fs.invalidateTree, names...)
}

func (fs *FileSystem) doMutate(ctx context.Context, fn func() error, invalidate func(ctx context.Context, name string) error, names ...string) error {
	for _, n := range names {
		if err := invalidate(ctx, n); err != nil {
			return err
		}
	}

	mutationErr := fn()

	fs.epochMutex.Lock()
	defer fs.epochMutex.Unlock()

	fs.epoch++

	for _, n := range names {
		if err := invalidate(ctx, n); err != nil {
			return err
		}
	}

	return mutationErr
}

func (fs *FileSystem) invalidate(ctx context.Context, key string) error {
	if err := fs.cache.Delete(ctx, key); err != nil && !dircache.IsNotFound(err) {
		return errors.WithStack(err)
	}

	return nil
}

func (fs *FileSystem) invalidateWithParent(ctx context.Context, name string) error {
	key := cacheKey(name)

	if err := fs.invalidate(ctx, key); err != nil {
		return err
	}

	if key == "/" {
		return nil
	}

	return fs.invalidate(ctx, path.Dir(key))
}

// invalidateTree drops name, its parent and every cached descendant of name.
func (fs *FileSystem) invalidateTree(ctx context.Context, name string) error {
	if err := fs.invalidateWithParent(ctx, name); err != nil {
		return err
	}

	prefix := strings.TrimSuffix(cacheKey(name), "/") + "/"

	keys, err := fs.cache.Keys(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, k := range keys {
		if !strings.HasPrefix(k, prefix) {
			continue
		}

		if err := fs.invalidate(ctx, k); err != nil {
			return err
		}
	}

	return nil
}

func cacheKey(name string) string {
	return path.Clean("/" + name)
}

var _ webdav.FileSystem = &FileSystem{}

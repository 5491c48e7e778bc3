package cache

import (
	dircache "github.com/bornholm/go-dircache"
	"github.com/bornholm/go-dircache/middleware"
	"golang.org/x/net/webdav"
)

func Middleware(cache dircache.Cache, funcs ...OptionFunc) middleware.Middleware {
	return func(next webdav.FileSystem) webdav.FileSystem {
		return NewFileSystem(next, cache, funcs...)
	}
}

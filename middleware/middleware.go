// Package middleware composes [webdav.FileSystem] wrappers.
package middleware

import "golang.org/x/net/webdav"

type Middleware func(next webdav.FileSystem) webdav.FileSystem

// Chain wraps fs with the given middlewares, the first one being the
// outermost.
func Chain(fs webdav.FileSystem, middlewares ...Middleware) webdav.FileSystem {
	for i := len(middlewares) - 1; i >= 0; i-- {
		fs = middlewares[i](fs)
	}

	return fs
}

// Package all registers every cache backend.
package all

import (
	_ "github.com/bornholm/go-dircache/file"
	_ "github.com/bornholm/go-dircache/memory"
	_ "github.com/bornholm/go-dircache/null"
	_ "github.com/bornholm/go-dircache/redis"
)

package cache_test

import (
	"io"
	"testing"
	"time"

	dircache "github.com/bornholm/go-dircache"
	_ "github.com/bornholm/go-dircache/file"
	_ "github.com/bornholm/go-dircache/memory"
	"github.com/bornholm/go-dircache/middleware"
	"github.com/bornholm/go-dircache/middleware/cache"
	"github.com/bornholm/go-dircache/middleware/cache/testsuite"
	_ "github.com/bornholm/go-dircache/null"
	"github.com/pkg/errors"
	"golang.org/x/net/webdav"
)

type backendTestCase struct {
	Mode    dircache.Mode
	Expiry  time.Duration
	Options func(t testing.TB) any
}

var backendTestCases = []backendTestCase{
	{
		Mode:    dircache.ModeDisabled,
		Options: func(t testing.TB) any { return nil },
	},
	{
		Mode:    dircache.ModeMemory,
		Expiry:  time.Minute,
		Options: func(t testing.TB) any { return map[string]any{"maxPaths": 4} },
	},
	{
		Mode:    dircache.ModeMemory,
		Options: func(t testing.TB) any { return nil },
	},
	{
		Mode:   dircache.ModeFile,
		Expiry: time.Minute,
		Options: func(t testing.TB) any {
			return map[string]any{"dir": t.TempDir(), "codec": "cbor"}
		},
	},
}

func createCachedFileSystem(t testing.TB, tc backendTestCase) webdav.FileSystem {
	t.Helper()

	c, err := dircache.New(tc.Mode, tc.Expiry, tc.Options(t))
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	t.Cleanup(func() {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				t.Errorf("%+v", errors.WithStack(err))
			}
		}
	})

	return middleware.Chain(webdav.Dir(t.TempDir()), cache.Middleware(c))
}

func TestCoherence(t *testing.T) {
	for _, tc := range backendTestCases {
		t.Run(string(tc.Mode)+"/"+tc.Expiry.String(), func(t *testing.T) {
			testsuite.TestFileSystem(t, createCachedFileSystem(t, tc))
		})
	}
}

func BenchmarkReaddir(b *testing.B) {
	b.Run("uncached", func(b *testing.B) {
		testsuite.RunBenchmarks(b, webdav.Dir(b.TempDir()))
	})

	for _, tc := range backendTestCases {
		b.Run(string(tc.Mode)+"/"+tc.Expiry.String(), func(b *testing.B) {
			testsuite.RunBenchmarks(b, createCachedFileSystem(b, tc))
		})
	}
}

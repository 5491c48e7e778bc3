package cache

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"

	dircache "github.com/bornholm/go-dircache"
	"github.com/bornholm/go-dircache/memory"
	"github.com/bornholm/go-dircache/middleware"
	"github.com/pkg/errors"
	"golang.org/x/net/webdav"
)

func createFileSystem(t *testing.T, funcs ...OptionFunc) (webdav.FileSystem, dircache.Cache, string) {
	t.Helper()

	dir := t.TempDir()
	cache := memory.NewCache(0, 0)

	fs := middleware.Chain(webdav.Dir(dir), Middleware(cache, funcs...))

	return fs, cache, dir
}

func readDir(ctx context.Context, fs webdav.FileSystem, name string) ([]string, error) {
	dir, err := fs.OpenFile(ctx, name, os.O_RDONLY, os.ModePerm)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	defer dir.Close()

	infos, err := dir.Readdir(0)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	names := make([]string, 0, len(infos))
	for _, info := range infos {
		names = append(names, info.Name())
	}

	slices.Sort(names)

	return names, nil
}

func createFile(ctx context.Context, fs webdav.FileSystem, name string) error {
	file, err := fs.OpenFile(ctx, name, os.O_CREATE|os.O_WRONLY, os.ModePerm)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(file.Close())
}

func TestReaddirIsCached(t *testing.T) {
	ctx := context.Background()
	fs, cache, dir := createFileSystem(t)

	if err := fs.Mkdir(ctx, "/Test", os.ModePerm); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	for _, n := range []string{"/Test/1.txt", "/Test/2.txt"} {
		if err := createFile(ctx, fs, n); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	names, err := readDir(ctx, fs, "/Test/")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := []string{"1.txt", "2.txt"}, names; !slices.Equal(e, g) {
		t.Fatalf("names: expected '%v', got '%v'", e, g)
	}

	contains, err := cache.Contains(ctx, "/Test")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if !contains {
		t.Fatalf("expected listing of '/Test' to be cached")
	}

	// Changes made behind the middleware are not visible until invalidation
	if err := os.WriteFile(filepath.Join(dir, "Test", "3.txt"), nil, 0o644); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	names, err = readDir(ctx, fs, "/Test")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 2, len(names); e != g {
		t.Errorf("len(names): expected '%d', got '%d'", e, g)
	}

	// Writes through the middleware invalidate the parent listing
	if err := createFile(ctx, fs, "/Test/4.txt"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	names, err = readDir(ctx, fs, "/Test")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := []string{"1.txt", "2.txt", "3.txt", "4.txt"}, names; !slices.Equal(e, g) {
		t.Errorf("names: expected '%v', got '%v'", e, g)
	}
}

func TestRemoveAllInvalidatesTree(t *testing.T) {
	ctx := context.Background()
	fs, cache, _ := createFileSystem(t)

	for _, d := range []string{"/a", "/a/b", "/a/b/c"} {
		if err := fs.Mkdir(ctx, d, os.ModePerm); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	for _, d := range []string{"/", "/a", "/a/b", "/a/b/c"} {
		if _, err := readDir(ctx, fs, d); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	if err := fs.RemoveAll(ctx, "/a/b"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	keys, err := cache.Keys(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	slices.Sort(keys)

	if e, g := []string{"/"}, keys; !slices.Equal(e, g) {
		t.Errorf("cache.Keys(): expected '%v', got '%v'", e, g)
	}
}

func TestRule(t *testing.T) {
	ctx := context.Background()

	rule, err := NewExprRule(`!hasPrefix(path, "/tmp")`)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	fs, cache, _ := createFileSystem(t, WithRule(rule))

	for _, d := range []string{"/tmp", "/data"} {
		if err := fs.Mkdir(ctx, d, os.ModePerm); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		if err := createFile(ctx, fs, d+"/file.txt"); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}

		if _, err := readDir(ctx, fs, d); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	keys, err := cache.Keys(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := []string{"/data"}, keys; !slices.Equal(e, g) {
		t.Errorf("cache.Keys(): expected '%v', got '%v'", e, g)
	}
}

func TestEmptyListingIsNotCached(t *testing.T) {
	ctx := context.Background()
	fs, cache, _ := createFileSystem(t)

	if err := fs.Mkdir(ctx, "/empty", os.ModePerm); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	names, err := readDir(ctx, fs, "/empty")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 0, len(names); e != g {
		t.Errorf("len(names): expected '%d', got '%d'", e, g)
	}

	length, err := cache.Len(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 0, length; e != g {
		t.Errorf("cache.Len(): expected '%d', got '%d'", e, g)
	}
}

func TestMutationDuringReaddir(t *testing.T) {
	ctx := context.Background()

	listings := memory.NewCache(0, 0)
	fs := NewFileSystem(webdav.Dir(t.TempDir()), listings)

	if err := fs.Mkdir(ctx, "/dir", os.ModePerm); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	started := make(chan struct{})
	resume := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := fs.readdir(ctx, "/dir", func() ([]os.FileInfo, error) {
			close(started)
			<-resume
			// Listing read before the mutation below completed
			return dircache.Listing{{Name: "old.txt"}}.Infos(), nil
		})
		done <- err
	}()

	<-started

	if err := createFile(ctx, fs, "/dir/new.txt"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	close(resume)

	if err := <-done; err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	contains, err := listings.Contains(ctx, "/dir")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if contains {
		t.Errorf("expected listing read before the mutation not to be cached")
	}

	names, err := readDir(ctx, fs, "/dir")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := []string{"new.txt"}, names; !slices.Equal(e, g) {
		t.Errorf("names: expected '%v', got '%v'", e, g)
	}
}

func TestInvalidRule(t *testing.T) {
	if _, err := NewExprRule(`len(path)`); err == nil {
		t.Errorf("expected non boolean rule to be rejected")
	}
}

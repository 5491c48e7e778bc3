package null

import (
	"context"
	"testing"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/pkg/errors"
)

func TestCache(t *testing.T) {
	ctx := context.Background()

	cache, err := dircache.New(dircache.ModeDisabled, time.Minute, nil)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	listing := dircache.Listing{{Name: "1"}, {Name: "2"}, {Name: "3"}}

	if err := cache.Set(ctx, "x", listing); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := cache.Get(ctx, "x"); !errors.Is(err, dircache.ErrNotFound) {
		t.Errorf("cache.Get(\"x\"): expected ErrNotFound, got '%v'", err)
	}

	contains, err := cache.Contains(ctx, "x")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if contains {
		t.Errorf("cache.Contains(\"x\"): expected false")
	}

	length, err := cache.Len(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 0, length; e != g {
		t.Errorf("cache.Len(): expected '%d', got '%d'", e, g)
	}

	keys, err := cache.Keys(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 0, len(keys); e != g {
		t.Errorf("len(keys): expected '%d', got '%d'", e, g)
	}

	if err := cache.Delete(ctx, "never-set"); err != nil {
		t.Errorf("cache.Delete(\"never-set\"): expected no error, got '%+v'", err)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Errorf("cache.Clear(): expected no error, got '%+v'", err)
	}

	if e, g := dircache.ModeDisabled, cache.Config().Mode; e != g {
		t.Errorf("cache.Config().Mode: expected '%s', got '%s'", e, g)
	}
}

package redis

import (
	"context"
	"fmt"
	"io"
	"slices"
	"testing"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/pkg/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestCache(t *testing.T) {
	ctx := context.Background()
	url := startRedis(t)

	cache, err := dircache.New(Mode, time.Hour, map[string]any{"url": url})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	defer cache.(io.Closer).Close()

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := cache.Get(ctx, "/dir"); !errors.Is(err, dircache.ErrNotFound) {
		t.Errorf("cache.Get(\"/dir\"): expected ErrNotFound, got '%v'", err)
	}

	for i := 0; i < 150; i++ {
		if err := cache.Set(ctx, fmt.Sprintf("/dir/[%d]*", i), dircache.Listing{{Name: "a"}}); err != nil {
			t.Fatalf("%+v", errors.WithStack(err))
		}
	}

	got, err := cache.Get(ctx, "/dir/[42]*")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "a", got[0].Name; e != g {
		t.Errorf("got[0].Name: expected '%s', got '%s'", e, g)
	}

	keys, err := cache.Keys(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 150, len(keys); e != g {
		t.Errorf("len(keys): expected '%d', got '%d'", e, g)
	}

	if !slices.Contains(keys, "/dir/[42]*") {
		t.Errorf("cache.Keys(): missing '/dir/[42]*'")
	}

	if err := cache.Delete(ctx, "/dir/[42]*"); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := cache.Delete(ctx, "/dir/[42]*"); !errors.Is(err, dircache.ErrNotFound) {
		t.Errorf("cache.Delete(): expected ErrNotFound, got '%v'", err)
	}

	if err := cache.Clear(ctx); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	length, err := cache.Len(ctx)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := 0, length; e != g {
		t.Errorf("cache.Len(): expected '%d', got '%d'", e, g)
	}
}

func TestExpiry(t *testing.T) {
	ctx := context.Background()
	url := startRedis(t)

	redisOpts, err := goredis.ParseURL(url)
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	rdb := goredis.NewClient(redisOpts)
	defer rdb.Close()

	cache, err := NewCache(rdb, time.Second, Options{URL: url})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	other, err := NewCache(rdb, 0, Options{URL: url})
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if err := cache.Set(ctx, "/dir", dircache.Listing{{Name: "a"}}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	ttl, err := rdb.TTL(ctx, KeyPrefix("", time.Second)+"/dir").Result()
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if ttl <= 0 || ttl > time.Second {
		t.Errorf("unexpected ttl '%v'", ttl)
	}

	contains, err := other.Contains(ctx, "/dir")
	if err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if contains {
		t.Errorf("caches with different expiries must not share entries")
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := cache.Get(ctx, "/dir"); !errors.Is(err, dircache.ErrNotFound) {
		t.Errorf("cache.Get(\"/dir\") after expiry: expected ErrNotFound, got '%v'", err)
	}
}

func TestMissingURL(t *testing.T) {
	if _, err := dircache.New(Mode, time.Minute, nil); !errors.Is(err, dircache.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got '%v'", err)
	}
}

func startRedis(t *testing.T) string {
	t.Helper()

	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("failed to start container: %+v", errors.WithStack(err))
	}

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(container); err != nil {
			t.Errorf("failed to terminate container: %+v", errors.WithStack(err))
		}
	})

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("could not retrieve endpoint: %+v", errors.WithStack(err))
	}

	return "redis://" + endpoint + "/0"
}

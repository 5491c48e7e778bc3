package main

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

func TestDuration(t *testing.T) {
	type testCase struct {
		Raw        string
		Expected   time.Duration
		ShouldFail bool
	}

	testCases := []testCase{
		{Raw: `"90s"`, Expected: 90 * time.Second},
		{Raw: `"1h30m"`, Expected: 90 * time.Minute},
		{Raw: `""`, Expected: 0},
		{Raw: `"tomorrow"`, ShouldFail: true},
		{Raw: `12`, ShouldFail: true},
	}

	for _, tc := range testCases {
		t.Run(tc.Raw, func(t *testing.T) {
			var d duration

			err := json.Unmarshal([]byte(tc.Raw), &d)
			if tc.ShouldFail {
				if err == nil {
					t.Errorf("expected an error, got nil")
				}
				return
			}

			if err != nil {
				t.Fatalf("%+v", errors.WithStack(err))
			}

			if e, g := tc.Expected, time.Duration(d); e != g {
				t.Errorf("duration: expected '%s', got '%s'", e, g)
			}
		})
	}
}

func TestCacheConfigFromEnv(t *testing.T) {
	t.Setenv("DIRCACHE_CACHE_MODE", "file")
	t.Setenv("DIRCACHE_CACHE_EXPIRY", "10m")
	t.Setenv("DIRCACHE_CACHE_OPTIONS", `{"dir":"/tmp/listings","codec":"cbor"}`)

	var conf config

	if err := env.ParseWithOptions(&conf, env.Options{Prefix: "DIRCACHE_"}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if e, g := "file", conf.Cache.Mode; e != g {
		t.Errorf("conf.Cache.Mode: expected '%s', got '%s'", e, g)
	}

	if e, g := 10*time.Minute, time.Duration(conf.Cache.Expiry); e != g {
		t.Errorf("conf.Cache.Expiry: expected '%s', got '%s'", e, g)
	}

	if conf.Cache.Options == nil {
		t.Fatalf("conf.Cache.Options: expected a value, got nil")
	}

	options, ok := conf.Cache.Options.Value.(map[string]any)
	if !ok {
		t.Fatalf("conf.Cache.Options.Value: expected a map, got '%T'", conf.Cache.Options.Value)
	}

	if e, g := "cbor", options["codec"]; e != g {
		t.Errorf("options[\"codec\"]: expected '%v', got '%v'", e, g)
	}

	if e, g := "./data", conf.Filesystem.Dir; e != g {
		t.Errorf("conf.Filesystem.Dir: expected '%s', got '%s'", e, g)
	}
}

func TestCreateListingCache(t *testing.T) {
	if _, err := createListingCache(cacheConfig{Mode: "memory", Expiry: duration(time.Minute), Rule: `path != "/"`}); err != nil {
		t.Fatalf("%+v", errors.WithStack(err))
	}

	if _, err := createListingCache(cacheConfig{Mode: "memory", Rule: `path +`}); err == nil {
		t.Errorf("expected an error for an invalid rule, got nil")
	}
}

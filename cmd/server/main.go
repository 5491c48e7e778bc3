package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	dircache "github.com/bornholm/go-dircache"
	"github.com/bornholm/go-dircache/handler"
	"github.com/bornholm/go-dircache/middleware/cache"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	sloghttp "github.com/samber/slog-http"
	"golang.org/x/net/webdav"

	_ "github.com/bornholm/go-dircache/all"
)

var (
	address     string = ":3000"
	configFile  string = "config.json"
	rawLogLevel string = slog.LevelInfo.String()
)

func init() {
	flag.StringVar(&address, "address", address, "server listening address")
	flag.StringVar(&configFile, "config", configFile, "configuration file")
	flag.StringVar(&rawLogLevel, "log-level", rawLogLevel, "log level")
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flag.Parse()

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(rawLogLevel)); err != nil {
		slog.ErrorContext(ctx, "could not parse log level", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	slog.SetLogLoggerLevel(logLevel)

	rawConfig, err := os.ReadFile(configFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.ErrorContext(ctx, "could not read configuration file", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	var conf config

	if rawConfig != nil {
		if err := json.Unmarshal(rawConfig, &conf); err != nil {
			slog.ErrorContext(ctx, "could not parse configuration file", slog.Any("error", errors.WithStack(err)))
			os.Exit(1)
		}
	}

	if err := env.ParseWithOptions(&conf, env.Options{Prefix: "DIRCACHE_"}); err != nil {
		slog.ErrorContext(ctx, "could not parse environment variables", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	validate := validator.New()
	if err := validate.StructCtx(ctx, &conf); err != nil {
		slog.ErrorContext(ctx, "could not validate config", slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	if err := os.MkdirAll(conf.Filesystem.Dir, os.ModePerm|os.ModeDir); err != nil {
		slog.ErrorContext(ctx, "could not create directory", slog.String("dir", conf.Filesystem.Dir), slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}

	listingCache, err := createListingCache(conf.Cache)
	if err != nil {
		slog.ErrorContext(ctx, "could not create listing cache", slog.Any("error", err))
		os.Exit(1)
	}

	var httpHandler http.Handler = handler.New(
		webdav.Dir(conf.Filesystem.Dir),
		listingCache,
		handler.WithLogger(func(r *http.Request, err error) {
			if err != nil && !(errors.Is(err, context.Canceled)) {
				slog.ErrorContext(r.Context(), err.Error(), slog.Any("error", errors.WithStack(err)))
				return
			}
		}),
	)

	slogMiddleware := sloghttp.New(slog.Default())
	httpHandler = slogMiddleware(httpHandler)

	if conf.Auth.Enabled && len(conf.Auth.Users) > 0 {
		slog.InfoContext(ctx, "enabling basic auth", "total_users", len(conf.Auth.Users))
		httpHandler = basicAuth(httpHandler, "go-dircache", conf.Auth.Users)
	}

	server := &http.Server{
		Addr:    address,
		Handler: httpHandler,
		BaseContext: func(l net.Listener) context.Context {
			return ctx
		},
	}

	slog.InfoContext(ctx, "listening", "address", address)

	if err := server.ListenAndServe(); err != nil {
		slog.ErrorContext(ctx, err.Error(), slog.Any("error", errors.WithStack(err)))
		os.Exit(1)
	}
}

func createListingCache(conf cacheConfig) (handler.OptionFunc, error) {
	var options any
	if conf.Options != nil {
		options = conf.Options.Value
	}

	expiry := time.Duration(conf.Expiry)

	slog.Info("creating listing cache", "mode", conf.Mode, "expiry", expiry)

	listings, err := dircache.New(dircache.Mode(conf.Mode), expiry, options)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	funcs := make([]cache.OptionFunc, 0)

	if conf.Rule != "" {
		rule, err := cache.NewExprRule(conf.Rule)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		slog.Info("restricting listing cache", "rule", rule.String())

		funcs = append(funcs, cache.WithRule(rule))
	}

	return handler.WithListingCache(dircache.WithLogger(listings, slog.Default()), funcs...), nil
}

func basicAuth(handler http.Handler, realm string, users map[string]string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()

		unauthorized := func() {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+realm+`"`)
			w.WriteHeader(401)
			w.Write([]byte("Unauthorised.\n"))
		}

		_, exists := users[user]
		if !exists {
			unauthorized()
			return
		}

		if !ok || subtle.ConstantTimeCompare([]byte(pass), []byte(users[user])) != 1 {
			unauthorized()
			return
		}

		handler.ServeHTTP(w, r)
	})
}

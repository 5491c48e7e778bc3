package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bornholm/go-dircache"
	_ "github.com/bornholm/go-dircache/all"
)

// Global flags
var (
	verbose  bool
	mode     string
	expiry   time.Duration
	dir      string
	maxPaths int
	codec    string
	url      string
)

var rootCmd = &cobra.Command{
	Use:   "dircache",
	Short: "Inspect and maintain directory listing caches",
	Long: `dircache opens an existing listing cache and lets you list, read,
remove or clear its entries.

Caches are scoped by expiry: use the same --expiry as the process
that filled the cache to open the same store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			slog.SetLogLoggerLevel(slog.LevelDebug)
		}
	},
}

// Execute runs the root command and exits on failure.
func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'dircache -h' for help")
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable debug logs")
	flags.StringVarP(&mode, "mode", "m", string(dircache.ModeFile), "Cache mode (disabled, memory, file, redis)")
	flags.DurationVarP(&expiry, "expiry", "e", 0, "Cache expiry, 0 for none")
	flags.StringVar(&dir, "dir", "", "Cache root directory (file mode)")
	flags.IntVar(&maxPaths, "max-paths", 0, "Maximum number of cached paths (memory mode)")
	flags.StringVar(&codec, "codec", "", "Value codec (msgpack, cbor, json)")
	flags.StringVar(&url, "url", "", "Redis URL (redis mode)")

	rootCmd.RegisterFlagCompletionFunc("mode", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		modes := dircache.Registered()
		names := make([]string, 0, len(modes))
		for _, m := range modes {
			names = append(names, string(m))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newKeysCmd(),
		newGetCmd(),
		newRmCmd(),
		newClearCmd(),
		newLenCmd(),
	)
}

// cacheOptions builds the backend options from the global flags.
func cacheOptions() map[string]any {
	options := map[string]any{}

	switch dircache.Mode(mode) {
	case dircache.ModeMemory:
		options["maxPaths"] = maxPaths
	case dircache.ModeFile:
		options["dir"] = dir
		options["codec"] = codec
	case dircache.ModeRedis:
		options["url"] = url
		options["codec"] = codec
	}

	return options
}

// withCache opens the cache described by the global flags, runs fn and
// releases the cache resources.
func withCache(ctx context.Context, fn func(ctx context.Context, cache dircache.Cache) error) (err error) {
	cache, err := dircache.New(dircache.Mode(mode), expiry, cacheOptions())
	if err != nil {
		return errors.Wrap(err, "could not open cache")
	}

	defer func() {
		closer, ok := cache.(io.Closer)
		if !ok {
			return
		}

		if closeErr := closer.Close(); closeErr != nil && err == nil {
			err = errors.Wrap(closeErr, "could not close cache")
		}
	}()

	return fn(ctx, dircache.WithLogger(cache, slog.Default()))
}

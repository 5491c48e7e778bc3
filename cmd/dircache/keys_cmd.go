package main

import (
	"context"
	"fmt"
	"slices"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bornholm/go-dircache"
)

func newKeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "keys",
		Short:   "List cached paths",
		Aliases: []string{"ls"},
		Long: `List the paths currently cached.

Expired entries are reclaimed while listing and are not printed.`,
		Example: `  dircache keys --expiry 5m
  dircache keys --mode redis --url redis://localhost:6379/0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), func(ctx context.Context, cache dircache.Cache) error {
				keys, err := cache.Keys(ctx)
				if err != nil {
					return errors.WithStack(err)
				}

				slices.Sort(keys)

				for _, k := range keys {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}

				return nil
			})
		},
	}

	return cmd
}

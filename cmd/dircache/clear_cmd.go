package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bornholm/go-dircache"
)

func newClearCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached path",
		Long: `Remove every cached path.

Only the store matching --expiry is cleared, caches created with another
expiry are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), func(ctx context.Context, cache dircache.Cache) error {
				if err := cache.Clear(ctx); err != nil {
					return errors.WithStack(err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")

				return nil
			})
		},
	}

	return cmd
}

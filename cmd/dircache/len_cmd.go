package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bornholm/go-dircache"
)

func newLenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "len",
		Short: "Print the number of stored entries",
		Long: `Print the number of stored entries.

The count may include expired entries not reclaimed yet, use 'keys' to
only see live paths.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), func(ctx context.Context, cache dircache.Cache) error {
				n, err := cache.Len(ctx)
				if err != nil {
					return errors.WithStack(err)
				}

				fmt.Fprintln(cmd.OutOrStdout(), n)

				return nil
			})
		},
	}

	return cmd
}

package main

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bornholm/go-dircache"
)

func newGetCmd() *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:   "get <path>",
		Short: "Print the cached listing of a path",
		Long: `Print the cached listing of a path as JSON.

Exits with an error when the path is not cached.`,
		Example: `  dircache get /photos
  dircache get /photos --compact`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), func(ctx context.Context, cache dircache.Cache) error {
				listing, err := cache.Get(ctx, args[0])
				if err != nil {
					if dircache.IsNotFound(err) {
						return errors.Wrapf(err, "path '%s' is not cached", args[0])
					}

					return errors.WithStack(err)
				}

				encoder := json.NewEncoder(cmd.OutOrStdout())
				if !compact {
					encoder.SetIndent("", "  ")
				}

				if err := encoder.Encode(listing); err != nil {
					return errors.WithStack(err)
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Print JSON on a single line")

	return cmd
}

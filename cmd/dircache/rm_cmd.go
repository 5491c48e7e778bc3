package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/bornholm/go-dircache"
)

func newRmCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:     "rm <path>...",
		Short:   "Remove cached paths",
		Aliases: []string{"remove"},
		Example: `  dircache rm /photos /music
  dircache rm --force /maybe-cached`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), func(ctx context.Context, cache dircache.Cache) error {
				for _, p := range args {
					if err := cache.Delete(ctx, p); err != nil {
						if force && dircache.IsNotFound(err) {
							continue
						}

						if dircache.IsNotFound(err) {
							return errors.Wrapf(err, "path '%s' is not cached", p)
						}

						return errors.WithStack(err)
					}

					fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", p)
				}

				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Ignore paths that are not cached")

	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/aurwrap/aurwrap/internal/config"
	"github.com/aurwrap/aurwrap/pkg/build"
	"github.com/aurwrap/aurwrap/pkg/pacman"
)

// newCleanCmd creates the clean command.
func newCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Clean the pacman cache and aurwrap build directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if err := pacman.CleanCache(ctx); err != nil {
				return err
			}
			if err := build.CleanDir(cfg.CacheDir()); err != nil {
				return err
			}
			printSuccess("caches cleaned")
			return nil
		},
	}
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/aurwrap/aurwrap/pkg/pacman"
)

// newPacCmd creates the pacman passthrough command. Flag parsing is disabled
// so pacman's own flags (-Syu, -Rns, ...) survive untouched.
func newPacCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "pac [pacman arguments...]",
		Short:              "Run pacman with the given arguments via sudo",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return pacman.Run(cmd.Context(), args...)
		},
	}
}

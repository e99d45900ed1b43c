package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/aurwrap/aurwrap/pkg/buildinfo"
)

// Execute runs the aurwrap CLI and returns an error if any command fails.
//
// The function sets up the root command with all subcommands (sync, upgrade,
// clean, pac), configures logging based on the --verbose flag, and executes
// the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          "aurwrap",
		Short:        "aurwrap builds and installs AUR packages",
		Long:         `aurwrap resolves AUR package dependencies, builds them with makepkg in the right order, and installs the results with pacman.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newSyncCmd())
	root.AddCommand(newUpgradeCmd())
	root.AddCommand(newCleanCmd())
	root.AddCommand(newPacCmd())

	return root.ExecuteContext(ctx)
}

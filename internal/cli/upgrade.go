package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aurwrap/aurwrap/internal/config"
	"github.com/aurwrap/aurwrap/pkg/aur"
	"github.com/aurwrap/aurwrap/pkg/build"
	"github.com/aurwrap/aurwrap/pkg/pacman"
)

// newUpgradeCmd creates the upgrade command for updating foreign packages.
func newUpgradeCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Upgrade installed AUR packages",
		Long: `Upgrade compares every foreign (non-repository) package against the
latest AUR metadata and rebuilds the outdated ones. By default an
interactive picker lets you choose which updates to apply.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(cmd, all)
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "apply every update without the interactive picker")
	return cmd
}

func runUpgrade(cmd *cobra.Command, all bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	installed, err := pacman.Foreign(ctx)
	if err != nil {
		return err
	}
	if len(installed) == 0 {
		printInfo("no foreign packages installed")
		return nil
	}

	source, err := newSource(cfg)
	if err != nil {
		return err
	}
	resolver := aur.NewResolver(source, logger.Debugf)

	names := make([]string, 0, len(installed))
	for name := range installed {
		names = append(names, name)
	}

	sp := newSpinner(ctx, fmt.Sprintf("checking %d package(s) for updates", len(names)))
	sp.Start()
	latest, err := resolver.InfoMap(ctx, names)
	if err != nil {
		sp.Stop()
		return err
	}
	updates := aur.Outdated(installed, latest, func(a, b string) (int, error) {
		return pacman.VerCmp(ctx, a, b)
	})
	if len(updates) == 0 {
		sp.StopWithSuccess("everything is up to date")
		return nil
	}
	sp.StopWithSuccess(fmt.Sprintf("%d update(s) available", len(updates)))

	if !all {
		updates, err = pickUpdates(updates)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			printInfo("nothing selected")
			return nil
		}
	}

	targets := make([]string, len(updates))
	for i, u := range updates {
		targets[i] = u.Name
		printDetail("%s %s %s %s", u.Name, u.Installed, iconArrow, u.Latest)
	}

	order, err := resolver.Resolve(ctx, targets)
	if err != nil {
		return err
	}
	bases, err := resolver.GroupBases(ctx, order)
	if err != nil {
		return err
	}

	ws, err := build.NewWorkspace(cfg.CacheDir())
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Remove(); err != nil {
			logger.Warn("removing workspace", "err", err)
		}
	}()

	failed, err := buildBases(cmd, cfg, ws, bases, true)
	if err != nil {
		return err
	}

	files, err := ws.Artifacts()
	if err != nil {
		return err
	}
	if len(files) > 0 {
		if err := pacman.InstallFiles(ctx, files, cfg.NoConfirm); err != nil {
			return err
		}
	}

	if len(failed) > 0 {
		printNewline()
		printWarning("%d build(s) failed", len(failed))
		for _, base := range failed {
			printDetail("%s", base)
		}
		return nil
	}
	printSuccess("upgraded %d package(s)", len(updates))
	return nil
}

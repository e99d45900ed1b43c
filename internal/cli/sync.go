package cli

import (
	"bufio"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aurwrap/aurwrap/internal/config"
	"github.com/aurwrap/aurwrap/pkg/aur"
	"github.com/aurwrap/aurwrap/pkg/build"
	"github.com/aurwrap/aurwrap/pkg/errors"
	"github.com/aurwrap/aurwrap/pkg/pacman"
)

// newSyncCmd creates the sync command for installing packages.
func newSyncCmd() *cobra.Command {
	var skipReview bool

	cmd := &cobra.Command{
		Use:     "sync <package>...",
		Aliases: []string{"install"},
		Short:   "Resolve, build, and install packages",
		Long: `Sync resolves the transitive AUR dependencies of the named packages,
builds them with makepkg in dependency order, and installs the artifacts
with pacman. Packages found in a sync repository are handed to pacman
directly instead of being built.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, args, skipReview)
		},
	}

	cmd.Flags().BoolVar(&skipReview, "skip-review", false, "do not offer to inspect PKGBUILDs before building")
	return cmd
}

func runSync(cmd *cobra.Command, args []string, skipReview bool) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	for _, name := range args {
		if err := errors.ValidateAURPackageName(name); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	repo, aurNames, err := pacman.SplitRepoAUR(ctx, args)
	if err != nil {
		return err
	}
	if len(repo) > 0 {
		logger.Debug("repo packages delegated to pacman", "packages", repo)
	}
	if len(aurNames) == 0 {
		if len(repo) == 0 {
			return nil
		}
		return pacman.Install(ctx, repo, cfg.NoConfirm)
	}

	source, err := newSource(cfg)
	if err != nil {
		return err
	}
	resolver := aur.NewResolver(source, logger.Debugf)

	sp := newSpinner(ctx, "resolving dependencies")
	sp.Start()
	order, err := resolver.Resolve(ctx, aurNames)
	if err != nil {
		sp.Stop()
		return err
	}
	bases, err := resolver.GroupBases(ctx, order)
	if err != nil {
		sp.Stop()
		return err
	}
	sp.StopWithSuccess(fmt.Sprintf("resolved %d package(s), %d build(s)", len(order), len(bases)))
	for _, base := range bases {
		printDetail("%s", base)
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

	failed, err := buildBases(cmd, cfg, ws, bases, skipReview)
	if err != nil {
		return err
	}

	files, err := ws.Artifacts()
	if err != nil {
		return err
	}
	if len(files) == 0 && len(repo) == 0 {
		return errors.New(errors.ErrCodeExec, "no packages were built")
	}
	for _, f := range files {
		printFile(f)
	}

	if err := pacman.InstallWithRepo(ctx, repo, files, cfg.NoConfirm); err != nil {
		return err
	}

	if len(failed) > 0 {
		printNewline()
		printWarning("%d build(s) failed: %s", len(failed), strings.Join(failed, ", "))
	} else {
		printSuccess("all packages installed")
	}
	return nil
}

// buildBases clones and builds each pkgbase in order, returning the names of
// the ones that failed. A failed base does not abort the remaining builds.
func buildBases(cmd *cobra.Command, cfg *config.Config, ws *build.Workspace, bases []string, skipReview bool) ([]string, error) {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	var failed []string
	for _, base := range bases {
		if err := ctx.Err(); err != nil {
			return failed, err
		}

		url := build.CloneURL(cfg.Mirror, cfg.MirrorBase, base)
		logger.Debug("cloning", "pkgbase", base, "url", url)
		if err := ws.Clone(ctx, url, base); err != nil {
			printError("clone %s: %v", base, err)
			failed = append(failed, base)
			continue
		}

		if !skipReview && !cfg.NoConfirm {
			if err := offerReview(cmd, cfg, ws, base); err != nil {
				return failed, err
			}
		}

		if err := ws.ImportPGPKeys(ctx, base); err != nil {
			logger.Warn("importing PGP keys", "pkgbase", base, "err", err)
		}

		if err := ws.VerifySources(ctx, base); err != nil {
			printError("verify sources %s: %v", base, err)
			failed = append(failed, base)
			continue
		}

		prog := newProgress(logger)
		printInfo("building %s", StyleHighlight.Render(base))
		if err := ws.Build(ctx, base); err != nil {
			printError("build %s: %v", base, err)
			failed = append(failed, base)
			continue
		}
		prog.done("built " + base)
	}
	return failed, nil
}

// offerReview asks whether to open the pkgbase checkout in the configured
// file manager and regenerates .SRCINFO afterwards in case the PKGBUILD
// changed.
func offerReview(cmd *cobra.Command, cfg *config.Config, ws *build.Workspace, base string) error {
	ctx := cmd.Context()

	if !promptYesNo(cmd, fmt.Sprintf("Review files for %s before building?", base)) {
		return nil
	}

	review := exec.CommandContext(ctx, cfg.FileManager, ws.PkgDir(base))
	review.Stdin = os.Stdin
	review.Stdout = os.Stdout
	review.Stderr = os.Stderr
	review.Env = append(os.Environ(), "EDITOR="+cfg.Editor)
	if err := review.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeExec, err, "running %s", cfg.FileManager)
	}

	return ws.RegenSRCINFO(ctx, base)
}

// promptYesNo reads a y/N answer from the command's input stream.
func promptYesNo(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// newSource picks the metadata source for the configured mirror.
func newSource(cfg *config.Config) (aur.Source, error) {
	if cfg.Mirror == config.MirrorGitHub && cfg.MirrorBase != "" {
		return aur.NewMirrorSource(cfg.MirrorBase)
	}
	return aur.NewRPCSource(), nil
}

// Package build drives the external tooling that turns a resolved build
// order into installed packages: git checkouts of pkgbase repositories,
// SRCINFO regeneration, makepkg builds, PGP key import, and artifact
// collection. It owns the per-run build workspace.
package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/aurwrap/aurwrap/pkg/errors"
)

// Workspace is the per-run build area. Each run gets a fresh uuid-named
// directory under the cache so concurrent invocations cannot collide.
type Workspace struct {
	Dir string
}

// NewWorkspace creates the run directory under cacheDir.
func NewWorkspace(cacheDir string) (*Workspace, error) {
	dir := filepath.Join(cacheDir, "temp", "run-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeExec, err, "creating workspace %s", dir)
	}
	return &Workspace{Dir: dir}, nil
}

// PkgDir returns the checkout directory for a pkgbase.
func (w *Workspace) PkgDir(pkgbase string) string {
	return filepath.Join(w.Dir, pkgbase)
}

// Remove deletes the run directory and everything under it.
func (w *Workspace) Remove() error {
	return os.RemoveAll(w.Dir)
}

// CloneURL builds the git URL for a pkgbase. With mirror "github" the
// configured mirror base hosts one repo (or branch fork) per pkgbase;
// otherwise the canonical AUR git host serves it.
func CloneURL(mirror, mirrorBase, pkgbase string) string {
	if strings.EqualFold(mirror, "github") {
		base := mirrorBase
		if base == "" {
			base = "https://github.com/archlinux-aur"
		}
		return strings.TrimRight(base, "/") + "/" + pkgbase + ".git"
	}
	return "https://aur.archlinux.org/" + pkgbase + ".git"
}

// Clone checks out a pkgbase into the workspace. An existing checkout is
// left alone.
func (w *Workspace) Clone(ctx context.Context, url, pkgbase string) error {
	target := w.PkgDir(pkgbase)
	if _, err := os.Stat(target); err == nil {
		return nil
	}
	if err := run(ctx, "", "git", "clone", url, target); err != nil {
		return errors.Wrap(errors.ErrCodeExec, err, "git clone %s", pkgbase)
	}
	return nil
}

// RegenSRCINFO regenerates .SRCINFO after the user edited a PKGBUILD.
func (w *Workspace) RegenSRCINFO(ctx context.Context, pkgbase string) error {
	dir := w.PkgDir(pkgbase)
	cmd := exec.CommandContext(ctx, "makepkg", "--printsrcinfo")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return errors.Wrap(errors.ErrCodeExec, err, "makepkg --printsrcinfo in %s", dir)
	}
	if err := os.WriteFile(filepath.Join(dir, ".SRCINFO"), out, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeExec, err, "writing .SRCINFO in %s", dir)
	}
	return nil
}

// Build runs a clean makepkg build, letting pacman pull missing repo
// dependencies (-s) and overwriting previous artifacts (-f).
func (w *Workspace) Build(ctx context.Context, pkgbase string) error {
	dir := w.PkgDir(pkgbase)
	if err := run(ctx, dir, "makepkg", "-s", "-f", "--cleanbuild", "--noconfirm"); err != nil {
		return errors.Wrap(errors.ErrCodeExec, err, "makepkg build in %s", dir)
	}
	return nil
}

// VerifySources fetches and verifies sources and signatures before the
// heavy build step.
func (w *Workspace) VerifySources(ctx context.Context, pkgbase string) error {
	dir := w.PkgDir(pkgbase)
	if err := run(ctx, dir, "makepkg", "--verifysource", "--noconfirm"); err != nil {
		return errors.Wrap(errors.ErrCodeExec, err, "makepkg --verifysource in %s", dir)
	}
	return nil
}

// ImportPGPKeys sources the PKGBUILD's validpgpkeys array and imports the
// keys from the conventional keyserver. A PKGBUILD without keys is a no-op.
func (w *Workspace) ImportPGPKeys(ctx context.Context, pkgbase string) error {
	dir := w.PkgDir(pkgbase)
	script := `set -a; source PKGBUILD >/dev/null 2>&1 || true; for k in "${validpgpkeys[@]}"; do echo "$k"; done`
	cmd := exec.CommandContext(ctx, "bash", "-c", script)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return errors.Wrap(errors.ErrCodeExec, err, "reading validpgpkeys in %s", dir)
	}

	var keys []string
	for _, line := range strings.Split(string(out), "\n") {
		if k := strings.TrimSpace(line); k != "" {
			keys = append(keys, k)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	args := append([]string{"--keyserver", "hkps://keys.openpgp.org", "--recv-keys"}, keys...)
	if err := run(ctx, "", "gpg", args...); err != nil {
		return errors.Wrap(errors.ErrCodeExec, err, "gpg --recv-keys for %s", pkgbase)
	}
	return nil
}

// Artifacts returns every *.pkg.tar.zst produced under the workspace.
func (w *Workspace) Artifacts() ([]string, error) {
	var out []string
	err := filepath.WalkDir(w.Dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".pkg.tar.zst") {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExec, err, "collecting artifacts under %s", w.Dir)
	}
	return out, nil
}

// CleanDir removes the contents of dir but keeps the directory itself.
func CleanDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func run(ctx context.Context, dir, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stdout
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// Package pacman wraps the system package manager commands aurwrap
// depends on: the foreign-package inventory, the vercmp version
// comparator, repo membership probes, and install operations.
//
// All mutations run through sudo; queries run unprivileged. Command output
// for interactive operations is passed through to the terminal.
package pacman

import (
	"bytes"
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/aurwrap/aurwrap/pkg/errors"
)

// Foreign returns the installed packages that are not present in any sync
// repository (pacman -Qm), keyed by name with the installed version as
// value. These are typically the AUR-built packages.
func Foreign(ctx context.Context) (map[string]string, error) {
	out, err := output(ctx, "pacman", "-Qm")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeExec, err, "pacman -Qm")
	}
	return ParseForeign(out), nil
}

// ParseForeign parses `pacman -Qm` output: one "name version" pair per line.
func ParseForeign(out string) map[string]string {
	m := make(map[string]string)
	for _, line := range strings.Split(out, "\n") {
		if name, version, ok := strings.Cut(strings.TrimSpace(line), " "); ok {
			m[name] = version
		}
	}
	return m
}

// VerCmp compares two version strings with pacman's vercmp tool, returning
// a negative, zero, or positive ordering. Version syntax is entirely
// vercmp's business; aurwrap never interprets version strings itself.
func VerCmp(ctx context.Context, a, b string) (int, error) {
	out, err := output(ctx, "vercmp", a, b)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeExec, err, "vercmp %s %s", a, b)
	}
	v, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, errors.New(errors.ErrCodeExec, "invalid vercmp output: %q", strings.TrimSpace(out))
	}
	return v, nil
}

// InRepo reports whether name exists in a sync repository (pacman -Si).
func InRepo(ctx context.Context, name string) (bool, error) {
	cmd := exec.CommandContext(ctx, "pacman", "-Si", "--", name)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !stderrors.As(err, &exitErr) {
			return false, errors.Wrap(errors.ErrCodeExec, err, "pacman -Si %s", name)
		}
		return false, nil // unknown target exits nonzero
	}
	return stdout.Len() > 0, nil
}

// SplitRepoAUR partitions names into repo packages and presumed AUR
// packages using InRepo probes.
func SplitRepoAUR(ctx context.Context, names []string) (repo, aur []string, err error) {
	for _, name := range names {
		ok, err := InRepo(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		if ok {
			repo = append(repo, name)
		} else {
			aur = append(aur, name)
		}
	}
	return repo, aur, nil
}

// Run executes `sudo pacman <args...>` with terminal passthrough.
func Run(ctx context.Context, args ...string) error {
	return passthrough(ctx, "sudo", append([]string{"pacman"}, args...)...)
}

// Install installs repo packages with `sudo pacman -S`.
func Install(ctx context.Context, names []string, noconfirm bool) error {
	args := []string{"-S"}
	if noconfirm {
		args = append(args, "--noconfirm")
	}
	return Run(ctx, append(args, names...)...)
}

// InstallFiles installs built package archives with `sudo pacman -U`.
func InstallFiles(ctx context.Context, files []string, noconfirm bool) error {
	args := []string{"-U"}
	if noconfirm {
		args = append(args, "--noconfirm")
	}
	return Run(ctx, append(args, files...)...)
}

// InstallWithRepo installs repo packages first (so pacman resolves their
// dependencies), then all built AUR archives in a single -U transaction.
func InstallWithRepo(ctx context.Context, repo, files []string, noconfirm bool) error {
	if len(repo) > 0 {
		if err := Install(ctx, repo, noconfirm); err != nil {
			return err
		}
	}
	return InstallFiles(ctx, files, noconfirm)
}

// CleanCache runs `sudo pacman -Scc`.
func CleanCache(ctx context.Context) error {
	return Run(ctx, "-Scc")
}

func output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stdout
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return stdout.String(), nil
}

func passthrough(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stdout
	if err := cmd.Run(); err != nil {
		return errors.Wrap(errors.ErrCodeExec, err, "%s %s", name, strings.Join(args, " "))
	}
	return nil
}

// Package config loads aurwrap configuration: built-in defaults, then the
// user's TOML config file, then AURWRAP_* environment overrides (highest
// precedence).
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aurwrap/aurwrap/pkg/errors"
)

// Mirror selection values for Config.Mirror.
const (
	MirrorAUR    = "aur"    // canonical AUR host
	MirrorGitHub = "github" // raw-file GitHub mirror
)

// Config holds the user-tunable settings.
type Config struct {
	Editor      string `toml:"editor"`        // PKGBUILD editor
	FileManager string `toml:"file_manager"`  // pre-build review file manager
	RootDirName string `toml:"root_dir_name"` // workspace dir under $HOME
	Mirror      string `toml:"mirror"`        // "aur" or "github"
	MirrorBase  string `toml:"mirror_base"`   // custom github mirror base URL
	NoConfirm   bool   `toml:"noconfirm"`     // pass --noconfirm to pacman
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Editor:      "nvim",
		FileManager: "nnn",
		RootDirName: "aurwrap",
		Mirror:      MirrorAUR,
	}
}

// Load builds the effective configuration. A missing config file is fine;
// a present but unparseable one is a CONFIG_ERROR.
func Load() (*Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "aurwrap", "config.toml")
		if _, statErr := os.Stat(path); statErr == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, errors.Wrap(errors.ErrCodeConfig, err, "parsing %s", path)
			}
		}
	}

	cfg.applyEnv()

	if cfg.Mirror != MirrorAUR && cfg.Mirror != MirrorGitHub {
		return nil, errors.New(errors.ErrCodeConfig, "unknown mirror %q (want %q or %q)",
			cfg.Mirror, MirrorAUR, MirrorGitHub)
	}
	return cfg, nil
}

// applyEnv overlays AURWRAP_* environment variables; empty values are
// ignored so an exported-but-blank variable cannot clear a setting.
func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv("AURWRAP_EDITOR")); v != "" {
		c.Editor = v
	}
	if v := strings.TrimSpace(os.Getenv("AURWRAP_FM")); v != "" {
		c.FileManager = v
	}
	if v := strings.TrimSpace(os.Getenv("AURWRAP_ROOT_DIR_NAME")); v != "" {
		c.RootDirName = v
	}
	if v := strings.TrimSpace(os.Getenv("AURWRAP_MIRROR")); v != "" {
		c.Mirror = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("AURWRAP_MIRROR_BASE")); v != "" {
		c.MirrorBase = v
	}
	if v := strings.TrimSpace(os.Getenv("AURWRAP_NOCONFIRM")); v != "" {
		c.NoConfirm = strings.EqualFold(v, "true") || v == "1"
	}
}

// RootDir is the aurwrap workspace directory under the user's home.
func (c *Config) RootDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "/"
	}
	return filepath.Join(home, c.RootDirName)
}

// CacheDir holds per-run build workspaces.
func (c *Config) CacheDir() string {
	return filepath.Join(c.RootDir(), "cache")
}

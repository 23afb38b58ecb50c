// Package config resolves the directory ncmdump persists its session file
// under, following the adrg/xdg convention used across the Go ecosystem for
// locating a per-user config home, with an explicit override for tests and
// containerized deployments.
package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

// envOverride, when set, takes priority over XDG resolution entirely.
const envOverride = "NCMDUMP_CONFIG_DIR"

// Dir returns the directory ncmdump's own files (today: session.json) live
// under: $NCMDUMP_CONFIG_DIR if set, otherwise "<xdg config home>/ncmdump".
func Dir() (string, error) {
	if v := os.Getenv(envOverride); v != "" {
		return v, nil
	}
	return filepath.Join(xdg.ConfigHome, "ncmdump"), nil
}

// SessionPath returns the full path to the persisted session file.
func SessionPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.json"), nil
}

// EnsureDir creates the config directory (and any parents) if absent.
func EnsureDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", err
	}
	return dir, nil
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// EnsureUserConfig makes sure dataDir carries an app.yml, seeding it from
// the repo default on first run so operators edit their own copy. When
// neither exists the returned path simply does not exist yet; Load treats
// that as all-defaults.
func EnsureUserConfig(dataDir string, defaultPath string) (string, error) {
	userPath := filepath.Join(dataDir, "app.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	src, err := os.Open(defaultPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return userPath, nil
		}
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(userPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}
	return userPath, nil
}

// Boot is the startup sequence shared by the engine binaries: resolve the
// data dir, seed the user config on first run, load it, fold in env
// overrides and normalize. The caller logs the validation warnings and
// refuses to start on Validation.Err().
func Boot(defaultPath string) (Config, Validation, error) {
	dataDir := strings.TrimSpace(os.Getenv("DATA_DIR"))
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return Config{}, Validation{}, fmt.Errorf("create data dir: %w", err)
	}

	userPath, err := EnsureUserConfig(dataDir, defaultPath)
	if err != nil {
		return Config{}, Validation{}, fmt.Errorf("seed user config: %w", err)
	}
	cfg, err := Load(userPath)
	if err != nil {
		return Config{}, Validation{}, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, Validation{}, err
	}

	out, v := NormalizeAndValidate(cfg)
	if v.OK() {
		if err := os.MkdirAll(out.App.DataDir, 0o755); err != nil {
			return Config{}, v, fmt.Errorf("create data dir: %w", err)
		}
	}
	return out, v, nil
}

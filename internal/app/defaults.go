package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Environment variables that override the default locations.
const (
	EnvConfigPath = "HYDRANTMAP_CONFIG_PATH"
	EnvHome       = "HYDRANTMAP_HOME"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - HYDRANTMAP_CONFIG_PATH: config file location (default: ~/.config/hydrantmap.toml)
//   - HYDRANTMAP_HOME: base directory for data, uploads and logs (default: ~/.local/share/hydrantmap)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"data_dir":    filepath.Join(baseDir, "data"),
		"uploads_dir": filepath.Join(baseDir, "uploads"),
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// LoadEnvFiles loads variables from the given .env files into the process
// environment. Missing files are skipped; variables already set win.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

func getConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "hydrantmap.toml"), nil
}

func getBaseDir() (string, error) {
	if path := os.Getenv(EnvHome); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "hydrantmap"), nil
}

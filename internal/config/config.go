// Package config loads CLI defaults from an optional .env file and the
// process environment. Command-line flags override these values.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvProfile      = "IMG2ASCII_PROFILE"
	EnvProfilesFile = "IMG2ASCII_PROFILES_FILE"
	EnvDevice       = "IMG2ASCII_DEVICE"
	EnvLanes        = "IMG2ASCII_LANES"
	EnvLogFile      = "IMG2ASCII_LOG_FILE"
	EnvWorkers      = "IMG2ASCII_WORKERS"
)

const DefaultProfile = "classic"

type Config struct {
	Profile      string
	ProfilesFile string // YAML file with custom profiles
	Device       string // empty means first available
	Lanes        int    // 0 means the device default
	LogFile      string
	Workers      int // 0 means one per CPU
}

// Load reads envFile (skipped when empty or missing) into the environment
// without overriding variables that are already set, then builds a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		Profile:      os.Getenv(EnvProfile),
		ProfilesFile: os.Getenv(EnvProfilesFile),
		Device:       os.Getenv(EnvDevice),
		LogFile:      os.Getenv(EnvLogFile),
	}
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}

	var err error
	if cfg.Lanes, err = parseCount(EnvLanes); err != nil {
		return nil, err
	}
	if cfg.Workers, err = parseCount(EnvWorkers); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseCount reads a non-negative integer; unset means 0.
func parseCount(key string) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s: want a non-negative integer, got %q", key, s)
	}
	return n, nil
}

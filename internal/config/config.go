package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/logging"
	"github.com/illarion/credvault/internal/storage"
)

const appName = "credvault"

// Environment variables consulted by Load
const (
	EnvConfig    = "CREDVAULT_CONFIG"
	EnvVault     = "CREDVAULT_VAULT"
	EnvLogLevel  = "CREDVAULT_LOG_LEVEL"
	EnvLogFormat = "CREDVAULT_LOG_FORMAT"
	EnvNoKeyring = "CREDVAULT_NO_KEYRING"
	EnvPassword  = "CREDVAULT_PASSWORD"
)

// Config holds runtime settings for the credvault CLI.
//
// Iterations only applies when a new vault is created.
type Config struct {
	VaultPath   string
	Iterations  int
	LockTimeout time.Duration
	LogLevel    string
	LogFormat   string
	Keyring     bool
}

// LoadDefaults populates c with sensible defaults
func (c *Config) LoadDefaults() {
	c.VaultPath = DefaultVaultPath()
	c.Iterations = crypto.DefaultIterations
	c.LockTimeout = storage.DefaultLockTimeout
	c.LogLevel = "warn"
	c.LogFormat = logging.FormatText
	c.Keyring = true
}

// Load builds a Config from defaults, the JSON file (if any) and the
// environment. Flags are applied afterwards by the caller's FlagSet.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	path, explicit := configFilePath()
	if path != "" {
		if err := cfg.loadJSON(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	cfg.loadEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a command
func (c *Config) Validate() error {
	if c.VaultPath == "" {
		return errors.New("vault path is empty")
	}
	if c.Iterations < crypto.MinIterations || c.Iterations > crypto.MaxIterations {
		return fmt.Errorf("iterations must be between %d and %d", crypto.MinIterations, crypto.MaxIterations)
	}
	if c.LockTimeout <= 0 {
		return errors.New("lock timeout must be positive")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	return nil
}

// DefaultVaultPath returns $XDG_DATA_HOME/credvault/vault.db, falling back
// to ~/.local/share and finally the working directory.
func DefaultVaultPath() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName, "vault.db")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appName, "vault.db")
	}
	return "vault.db"
}

// configFilePath reports the JSON file to read and whether it was named
// explicitly. An implicit file may be absent.
func configFilePath() (string, bool) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, true
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, appName, "config.json"), false
}

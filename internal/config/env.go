package config

import (
	"os"
	"strconv"
)

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvVault); v != "" {
		c.VaultPath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.LogFormat = v
	}
	if v := os.Getenv(EnvNoKeyring); v != "" {
		if off, err := strconv.ParseBool(v); err == nil {
			c.Keyring = !off
		}
	}
}

// PasswordFromEnv returns a copy of $CREDVAULT_PASSWORD, or nil when unset.
// The caller should wipe the result.
func PasswordFromEnv() []byte {
	password := os.Getenv(EnvPassword)
	if password == "" {
		return nil
	}
	return []byte(password)
}

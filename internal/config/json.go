package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"
)

// Duration is a time.Duration that unmarshals from "2s" or nanoseconds
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(parsed)
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// jsonConfig is a DTO for the config file. Pointer fields distinguish
// "absent" from zero values so the file only overrides what it names.
type jsonConfig struct {
	VaultPath   *string   `json:"vault_path"`
	Iterations  *int      `json:"iterations"`
	LockTimeout *Duration `json:"lock_timeout"`
	LogLevel    *string   `json:"log_level"`
	LogFormat   *string   `json:"log_format"`
	Keyring     *bool     `json:"keyring"`
}

func (c *Config) loadJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if jc.VaultPath != nil {
		c.VaultPath = *jc.VaultPath
	}
	if jc.Iterations != nil {
		c.Iterations = *jc.Iterations
	}
	if jc.LockTimeout != nil {
		c.LockTimeout = time.Duration(*jc.LockTimeout)
	}
	if jc.LogLevel != nil {
		c.LogLevel = *jc.LogLevel
	}
	if jc.LogFormat != nil {
		c.LogFormat = *jc.LogFormat
	}
	if jc.Keyring != nil {
		c.Keyring = *jc.Keyring
	}
	return nil
}

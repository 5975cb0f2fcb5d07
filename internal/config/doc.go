// Package config loads runtime configuration for the credvault CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file: $CREDVAULT_CONFIG, or config.json in the user
//     config directory under credvault/.
//  3. Environment variables (CREDVAULT_VAULT, CREDVAULT_LOG_LEVEL,
//     CREDVAULT_LOG_FORMAT, CREDVAULT_NO_KEYRING).
//  4. Command-line flags registered with (*Config).RegisterFlags.
//
// # JSON schema
//
// Durations accept strings like "2s" or integer nanoseconds:
//
//	{
//	  "vault_path": "/home/alice/.local/share/credvault/vault.db",
//	  "iterations": 210000,
//	  "lock_timeout": "1s",
//	  "log_level": "warn",
//	  "log_format": "text",
//	  "keyring": true
//	}
//
// The master password is never read from configuration files.
package config

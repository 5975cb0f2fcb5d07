package config

import "flag"

// RegisterFlags binds the global options to fs, using the current values
// as defaults. Parsing fs then overrides them.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.VaultPath, "vault", c.VaultPath, "path to the vault file")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log level (debug, info, warn, error)")
	fs.BoolFunc("no-keyring", "do not read or write the OS keyring", func(string) error {
		c.Keyring = false
		return nil
	})
}

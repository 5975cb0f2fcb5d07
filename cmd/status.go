package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/illarion/credvault/internal/git"
	"github.com/illarion/credvault/internal/keyring"
	"github.com/illarion/credvault/internal/security"
)

// Status describes the vault file without asking for a password
func Status(ctx context.Context, env *Env) error {
	if _, err := os.Stat(env.Config.VaultPath); os.IsNotExist(err) {
		fmt.Fprintf(env.Out, "No vault at %s\n", env.Config.VaultPath)
		fmt.Fprintln(env.Out, "Run 'credvault init' to create one")
		return nil
	}

	s, err := env.newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := s.store.Info()
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "Vault:      %s\n", s.store.Path())
	if !info.Exists {
		fmt.Fprintln(env.Out, "State:      empty (run 'credvault init')")
		return nil
	}

	rec, err := s.store.Load()
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "Vault ID:   %s\n", info.VaultID)
	fmt.Fprintf(env.Out, "Format:     v%s\n", info.Version)
	fmt.Fprintf(env.Out, "Created:    %s\n", info.Created.Local().Format(time.RFC3339))
	fmt.Fprintf(env.Out, "Modified:   %s\n", info.Modified.Local().Format(time.RFC3339))
	fmt.Fprintf(env.Out, "Encryption: AES-256-GCM, PBKDF2-SHA256 (%d iterations)\n", rec.Iterations)
	if st, err := os.Stat(s.store.Path()); err == nil {
		fmt.Fprintf(env.Out, "Size:       %s\n", formatSize(st.Size()))
	}

	keyringState := "disabled"
	if env.Config.Keyring {
		keyringState = "not stored"
		if keyring.HasPassword(info.VaultID) {
			keyringState = "stored"
		}
	}
	fmt.Fprintf(env.Out, "Keyring:    %s\n", keyringState)

	if err := security.CheckVaultFile(s.store.Path()); err != nil {
		fmt.Fprintf(env.Out, "\nwarning: %s\n", err)
	}
	if w := git.CheckVault(ctx, s.store.Path()).Warning(s.store.Path()); w != "" {
		fmt.Fprintf(env.Out, "\n%s\n", w)
	}
	return nil
}

// formatSize formats a file size in human-readable form
func formatSize(size int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case size >= GB:
		return fmt.Sprintf("%.1f GB", float64(size)/GB)
	case size >= MB:
		return fmt.Sprintf("%.1f MB", float64(size)/MB)
	case size >= KB:
		return fmt.Sprintf("%.1f KB", float64(size)/KB)
	default:
		return fmt.Sprintf("%d bytes", size)
	}
}

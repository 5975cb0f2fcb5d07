package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/credvault/internal/keyring"
	"github.com/illarion/credvault/internal/security"
	"github.com/illarion/credvault/internal/storage"
)

// Reset erases the vault and every credential in it. Without force the user
// must type "reset" to confirm. No password is needed, and a file too damaged
// to open is removed from disk instead.
func Reset(_ context.Context, env *Env, force bool) error {
	s, err := env.newSession()
	if errors.Is(err, storage.ErrCorrupted) {
		return env.destroyDamaged(force, err)
	}
	if err != nil {
		return err
	}
	defer s.Close()

	vaultID, _ := s.store.VaultID()

	if !env.confirmReset(s.store.Path(), force) {
		return ErrAborted
	}

	if err := s.mgr.Reset(); err != nil {
		return err
	}

	if vaultID != "" {
		if err := keyring.DeletePassword(vaultID); err != nil && !errors.Is(err, keyring.ErrNotFound) {
			fmt.Fprintf(env.Err, "warning: failed to remove keyring entry: %s\n", err)
		}
	}

	if err := s.store.Compact(); err != nil {
		fmt.Fprintf(env.Err, "warning: compaction failed: %s\n", err)
	}

	fmt.Fprintln(env.Out, "Vault erased. Run 'credvault init' to create a new one.")
	return nil
}

// destroyDamaged deletes a vault file that storage.Open rejected. Its vault
// id is unreadable, so any keyring entry for it is left behind.
func (e *Env) destroyDamaged(force bool, cause error) error {
	path, err := security.ValidateVaultPath(e.Config.VaultPath)
	if err != nil {
		return err
	}

	fmt.Fprintf(e.Err, "The vault file cannot be opened: %s\n", cause)
	if !e.confirmReset(path, force) {
		return ErrAborted
	}

	if err := storage.Destroy(path); err != nil {
		return err
	}
	e.Logger.Warn("damaged vault file removed", "path", path)

	fmt.Fprintln(e.Out, "Vault erased. Run 'credvault init' to create a new one.")
	return nil
}

func (e *Env) confirmReset(path string, force bool) bool {
	if force {
		return true
	}
	fmt.Fprintf(e.Err, "This permanently erases %s and all credentials in it.\n", path)
	answer, err := e.readLine("Type 'reset' to confirm: ")
	return err == nil && answer == "reset"
}

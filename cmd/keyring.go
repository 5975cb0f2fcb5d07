package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/keyring"
)

// KeyringSave verifies the master password and stores it in the OS keyring
func KeyringSave(ctx context.Context, env *Env) error {
	s, err := env.openExisting()
	if err != nil {
		return err
	}
	defer s.Close()

	vaultID, err := s.store.VaultID()
	if err != nil {
		return err
	}

	password, err := env.ReadPassword("Enter password: ")
	if err != nil {
		return err
	}
	defer crypto.ClearBytes(password)
	if err := ctx.Err(); err != nil {
		return err
	}

	ok, err := s.mgr.Unlock(password)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWrongPassword
	}

	if err := keyring.SavePassword(vaultID, password); err != nil {
		return err
	}
	fmt.Fprintln(env.Out, "Password saved to keyring")
	return nil
}

// KeyringDelete removes the password from the OS keyring
func KeyringDelete(_ context.Context, env *Env) error {
	s, err := env.openExisting()
	if err != nil {
		return err
	}
	defer s.Close()

	vaultID, err := s.store.VaultID()
	if err != nil {
		return err
	}

	if err := keyring.DeletePassword(vaultID); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			fmt.Fprintln(env.Out, "No password stored in keyring")
			return nil
		}
		return err
	}
	fmt.Fprintln(env.Out, "Password removed from keyring")
	return nil
}

// KeyringStatus reports whether a password is stored in the keyring
func KeyringStatus(_ context.Context, env *Env) error {
	s, err := env.openExisting()
	if err != nil {
		return err
	}
	defer s.Close()

	vaultID, err := s.store.VaultID()
	if err != nil || !keyring.HasPassword(vaultID) {
		fmt.Fprintln(env.Out, "Password: not stored")
		return nil
	}
	fmt.Fprintln(env.Out, "Password: stored in keyring")
	return nil
}

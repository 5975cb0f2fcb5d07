package cmd

import (
	"context"
	"fmt"

	"github.com/illarion/credvault/internal/config"
	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/git"
)

// Init creates a new empty vault protected by a master password
func Init(ctx context.Context, env *Env) error {
	s, err := env.newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	info, err := s.store.Info()
	if err != nil {
		return err
	}
	if info.Exists {
		return ErrAlreadyExists
	}

	password, source, err := env.newPassword()
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

	fmt.Fprintf(env.Out, "Initialized vault at %s\n", s.store.Path())
	if w := git.CheckVault(ctx, s.store.Path()).Warning(s.store.Path()); w != "" {
		fmt.Fprintln(env.Err, w)
	}

	if source == SourcePrompt {
		vaultID, err := s.store.VaultID()
		if err == nil {
			env.offerToSavePassword(vaultID, password)
		}
	}
	return nil
}

// newPassword reads a master password for a vault that does not exist yet
func (e *Env) newPassword() ([]byte, PasswordSource, error) {
	if password := config.PasswordFromEnv(); password != nil {
		return password, SourceEnv, nil
	}

	password, err := e.readPasswordConfirm("New master password: ")
	if err != nil {
		return nil, SourcePrompt, err
	}
	if len(password) == 0 {
		return nil, SourcePrompt, ErrEmptyPassword
	}
	return password, SourcePrompt, nil
}

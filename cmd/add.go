package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/vault"
)

// AddOptions describes a new credential. An empty Secret is read from the
// terminal without echo.
type AddOptions struct {
	Kind      vault.Kind
	Service   string
	Principal string
	Secret    []byte
	Notes     string
	Tags      []string
	Inactive  bool
}

// Add stores a new password or API key
func Add(ctx context.Context, env *Env, opts AddOptions) error {
	if strings.TrimSpace(opts.Service) == "" {
		return errors.New("service is required")
	}

	s, err := env.unlocked(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	secret := opts.Secret
	if len(secret) == 0 {
		secret, err = env.ReadPassword(secretPrompt(opts.Kind))
		if err != nil {
			return err
		}
		defer crypto.ClearBytes(secret)
	}
	if len(secret) == 0 {
		return errors.New("secret must not be empty")
	}

	var c vault.Credential
	switch opts.Kind {
	case vault.KindPassword:
		c, err = s.mgr.AddPassword(opts.Service, opts.Principal, secret, opts.Notes, opts.Tags)
	case vault.KindAPIKey:
		c, err = s.mgr.AddAPIKey(opts.Service, opts.Principal, secret, opts.Notes, !opts.Inactive, opts.Tags)
	default:
		return fmt.Errorf("unsupported credential kind %s", opts.Kind)
	}
	if err != nil {
		return err
	}
	defer c.Wipe()

	fmt.Fprintf(env.Out, "Added %s %s (%s)\n", c.Kind, shortID(c.ID), c.Service)
	return nil
}

func secretPrompt(k vault.Kind) string {
	if k == vault.KindAPIKey {
		return "API key: "
	}
	return "Password: "
}

// ParseTags splits a comma-separated tag list
func ParseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return vault.NormalizeTags(strings.Split(s, ","))
}

package cmd

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/illarion/credvault/internal/vault"
)

// Show prints one credential. The secret is masked unless reveal is set.
func Show(ctx context.Context, env *Env, ref string, reveal bool) error {
	s, err := env.unlocked(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	c, err := lookup(s.mgr, ref)
	if err != nil {
		return err
	}
	defer c.Wipe()

	principal := "Username"
	if c.Kind == vault.KindAPIKey {
		principal = "Account"
	}

	fmt.Fprintf(env.Out, "ID:        %s\n", c.ID)
	fmt.Fprintf(env.Out, "Kind:      %s\n", c.Kind)
	fmt.Fprintf(env.Out, "Service:   %s\n", c.Service)
	fmt.Fprintf(env.Out, "%-10s %s\n", principal+":", c.Principal)
	if reveal {
		fmt.Fprintf(env.Out, "Secret:    %s\n", c.Secret)
	} else {
		fmt.Fprintf(env.Out, "Secret:    %s\n", strings.Repeat("*", 8))
	}
	if c.Kind == vault.KindAPIKey {
		fmt.Fprintf(env.Out, "Active:    %t\n", c.IsActive)
	}
	if len(c.Tags) > 0 {
		fmt.Fprintf(env.Out, "Tags:      %s\n", strings.Join(c.Tags, ", "))
	}
	for _, k := range slices.Sorted(maps.Keys(c.CustomFields)) {
		fmt.Fprintf(env.Out, "%s: %s\n", k, c.CustomFields[k])
	}
	fmt.Fprintf(env.Out, "Created:   %s\n", c.CreatedAt.Local().Format(time.RFC3339))
	fmt.Fprintf(env.Out, "Updated:   %s\n", c.UpdatedAt.Local().Format(time.RFC3339))
	if c.Notes != "" {
		fmt.Fprintf(env.Out, "\n%s\n", c.Notes)
	}
	return nil
}

// lookup resolves an id or id prefix and returns a copy of the credential
func lookup(mgr *vault.Manager, ref string) (vault.Credential, error) {
	list, err := mgr.ListCredentials()
	if err != nil {
		return vault.Credential{}, err
	}
	id, err := resolveID(list, ref)
	wipeAll(list)
	if err != nil {
		return vault.Credential{}, err
	}
	return mgr.Get(id)
}

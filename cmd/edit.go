package cmd

import (
	"context"
	"fmt"
	"maps"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/vault"
)

// EditOptions carries the patch built from flags. PromptSecret asks for a
// new secret on the terminal. SetFields merges into the existing custom
// fields, where an empty value removes the key; ClearFields drops them all
// first.
type EditOptions struct {
	Patch        vault.Patch
	PromptSecret bool
	SetFields    map[string]string
	ClearFields  bool
}

func (o EditOptions) isEmpty() bool {
	return o.Patch.IsEmpty() && !o.PromptSecret && len(o.SetFields) == 0 && !o.ClearFields
}

func mergeFields(current, set map[string]string, clearAll bool) map[string]string {
	out := make(map[string]string, len(current)+len(set))
	if !clearAll {
		maps.Copy(out, current)
	}
	for k, v := range set {
		if v == "" {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// Edit applies a partial update and prints what changed
func Edit(ctx context.Context, env *Env, ref string, opts EditOptions) error {
	if opts.isEmpty() {
		return fmt.Errorf("nothing to change")
	}

	s, err := env.unlocked(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	before, err := lookup(s.mgr, ref)
	if err != nil {
		return err
	}
	defer before.Wipe()

	patch := opts.Patch
	if len(opts.SetFields) > 0 || opts.ClearFields {
		patch.CustomFields = vault.Set(mergeFields(before.CustomFields, opts.SetFields, opts.ClearFields))
	}
	if opts.PromptSecret {
		secret, err := env.ReadPassword(secretPrompt(before.Kind))
		if err != nil {
			return err
		}
		defer crypto.ClearBytes(secret)
		patch.Secret = vault.Set(secret)
	}

	after, err := s.mgr.UpdateCredential(before.ID, patch)
	if err != nil {
		return err
	}
	defer after.Wipe()

	changes := vault.DescribeChanges(before, after)
	if len(changes) == 0 {
		fmt.Fprintf(env.Out, "%s: no changes\n", shortID(after.ID))
		return nil
	}
	fmt.Fprintf(env.Out, "Updated %s (%s)\n", shortID(after.ID), after.Service)
	for _, line := range changes {
		fmt.Fprintf(env.Out, "  %s\n", line)
	}
	return nil
}

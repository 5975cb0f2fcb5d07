package cmd

import (
	"context"
	"errors"
	"fmt"
)

// Remove deletes credentials by id or id prefix, then compacts the file so
// removed ciphertext does not linger in free pages.
func Remove(ctx context.Context, env *Env, refs []string) error {
	if len(refs) == 0 {
		return errors.New("rm requires at least one credential id")
	}

	s, err := env.unlocked(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			return err
		}
		c, err := lookup(s.mgr, ref)
		if err != nil {
			return err
		}
		c.Wipe()

		if err := s.mgr.RemoveCredential(c.ID); err != nil {
			return err
		}
		fmt.Fprintf(env.Out, "Removed %s (%s)\n", shortID(c.ID), c.Service)
	}

	if err := s.store.Compact(); err != nil {
		fmt.Fprintf(env.Err, "warning: compaction failed: %s\n", err)
	}
	return nil
}

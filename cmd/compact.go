package cmd

import (
	"context"
	"fmt"
	"os"
)

// Compact rewrites the vault file to reclaim unused space
func Compact(_ context.Context, env *Env) error {
	s, err := env.openExisting()
	if err != nil {
		return err
	}
	defer s.Close()

	before, err := os.Stat(s.store.Path())
	if err != nil {
		return err
	}

	if err := s.store.Compact(); err != nil {
		return err
	}

	after, err := os.Stat(s.store.Path())
	if err != nil {
		return err
	}

	fmt.Fprintf(env.Out, "Compacted: %s -> %s\n", formatSize(before.Size()), formatSize(after.Size()))
	return nil
}

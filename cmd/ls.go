package cmd

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/illarion/credvault/internal/vault"
)

// ListFilter narrows the ls output. Zero values match everything.
type ListFilter struct {
	Tag     string
	Kind    vault.Kind
	Service string
}

func (f ListFilter) match(c *vault.Credential) bool {
	if f.Tag != "" && !c.HasTag(f.Tag) {
		return false
	}
	if f.Kind != 0 && c.Kind != f.Kind {
		return false
	}
	if f.Service != "" && !strings.Contains(strings.ToLower(c.Service), strings.ToLower(f.Service)) {
		return false
	}
	return true
}

// List prints credentials without their secrets
func List(ctx context.Context, env *Env, filter ListFilter) error {
	s, err := env.unlocked(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	list, err := s.mgr.ListCredentials()
	if err != nil {
		return err
	}
	defer wipeAll(list)

	var shown int
	tw := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKIND\tSERVICE\tPRINCIPAL\tTAGS\tUPDATED")
	for i := range list {
		c := &list[i]
		if !filter.match(c) {
			continue
		}
		shown++
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(c.ID), kindLabel(c), c.Service, c.Principal,
			strings.Join(c.Tags, ","), c.UpdatedAt.Local().Format(time.DateTime))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if shown == 0 {
		fmt.Fprintln(env.Out, "(no credentials)")
	}
	return nil
}

func kindLabel(c *vault.Credential) string {
	if c.Kind == vault.KindAPIKey && !c.IsActive {
		return "api_key (inactive)"
	}
	return c.Kind.String()
}

// shortID is the display form of a credential id; any unique prefix is
// accepted back by show, edit and rm.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package vault

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// Repository is the in-memory id -> credential set of an unlocked vault.
// It is not safe for concurrent use; the Manager serializes access.
type Repository struct {
	items map[string]*Credential
}

func NewRepository() *Repository {
	return &Repository{items: make(map[string]*Credential)}
}

func (r *Repository) Len() int {
	return len(r.items)
}

// Get returns the stored credential itself, not a copy
func (r *Repository) Get(id string) (*Credential, bool) {
	c, ok := r.items[id]
	return c, ok
}

// Put inserts or replaces the credential under its ID
func (r *Repository) Put(c *Credential) {
	r.items[c.ID] = c
}

// Delete removes and returns the credential
func (r *Repository) Delete(id string) (*Credential, bool) {
	c, ok := r.items[id]
	if ok {
		delete(r.items, id)
	}
	return c, ok
}

// List returns deep copies ordered by service (case-insensitive), creation
// time and ID.
func (r *Repository) List() []Credential {
	out := make([]Credential, 0, len(r.items))
	for _, c := range r.items {
		out = append(out, c.Clone())
	}
	slices.SortFunc(out, func(a, b Credential) int {
		if c := strings.Compare(strings.ToLower(a.Service), strings.ToLower(b.Service)); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Wipe zeroes every secret and empties the repository
func (r *Repository) Wipe() {
	for id, c := range r.items {
		c.Wipe()
		delete(r.items, id)
	}
}

func (r *Repository) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.items)
}

// UnmarshalJSON decodes an id -> credential mapping and checks that every
// entry is keyed by its own ID and has a known kind.
func (r *Repository) UnmarshalJSON(data []byte) error {
	var items map[string]*Credential
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	if items == nil {
		items = make(map[string]*Credential)
	}

	if err := validateItems(items); err != nil {
		for _, c := range items {
			if c != nil {
				c.Wipe()
			}
		}
		return err
	}

	r.items = items
	return nil
}

func validateItems(items map[string]*Credential) error {
	for id, c := range items {
		switch {
		case c == nil:
			return fmt.Errorf("%w: null credential %q", ErrInvalidPayload, id)
		case c.ID != id:
			return fmt.Errorf("%w: credential %q stored under %q", ErrInvalidPayload, c.ID, id)
		case c.Kind != KindPassword && c.Kind != KindAPIKey:
			return fmt.Errorf("%w: credential %q has no kind", ErrInvalidPayload, id)
		}
	}
	return nil
}

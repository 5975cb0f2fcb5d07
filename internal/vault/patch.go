package vault

import (
	"bytes"
	"maps"
	"time"

	"github.com/illarion/credvault/internal/crypto"
)

// Field is an optional patch value. Only fields with Set true are applied.
type Field[T any] struct {
	Value T
	Set   bool
}

// Set returns a present Field holding v
func Set[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// Patch describes a partial update of a credential.
// CustomFields replaces the whole map when set.
type Patch struct {
	Service      Field[string]
	Principal    Field[string]
	Secret       Field[[]byte]
	Notes        Field[string]
	Tags         Field[[]string]
	IsActive     Field[bool]
	CustomFields Field[map[string]string]
}

// IsEmpty reports whether no field is set
func (p Patch) IsEmpty() bool {
	return !p.Service.Set && !p.Principal.Set && !p.Secret.Set && !p.Notes.Set &&
		!p.Tags.Set && !p.IsActive.Set && !p.CustomFields.Set
}

// apply builds the patched credential from a copy of c; c is not modified.
// UpdatedAt always moves forward, even when the clock has not.
func (p Patch) apply(c *Credential, now time.Time) *Credential {
	out := c.Clone()

	if p.Service.Set {
		out.Service = p.Service.Value
	}
	if p.Principal.Set {
		out.Principal = p.Principal.Value
	}
	if p.Secret.Set {
		out.Secret = replaceSecret(out.Secret, p.Secret.Value)
	}
	if p.Notes.Set {
		out.Notes = p.Notes.Value
	}
	if p.Tags.Set {
		out.Tags = NormalizeTags(p.Tags.Value)
	}
	if p.IsActive.Set && out.Kind == KindAPIKey {
		out.IsActive = p.IsActive.Value
	}
	if p.CustomFields.Set {
		out.CustomFields = normalizeFields(p.CustomFields.Value)
	}

	if !now.After(c.UpdatedAt) {
		now = c.UpdatedAt.Add(time.Nanosecond)
	}
	out.UpdatedAt = now

	return &out
}

// replaceSecret wipes old and returns a private copy of v
func replaceSecret(old, v []byte) []byte {
	crypto.ClearBytes(old)
	return bytes.Clone(v)
}

func normalizeFields(fields map[string]string) map[string]string {
	out := maps.Clone(fields)
	delete(out, "")
	if len(out) == 0 {
		return nil
	}
	return out
}

package vault

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/illarion/credvault/internal/crypto"
)

// Kind distinguishes the credential variants
type Kind int

const (
	KindPassword Kind = iota + 1
	KindAPIKey
)

func (k Kind) String() string {
	switch k {
	case KindPassword:
		return "password"
	case KindAPIKey:
		return "api_key"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses the String form of a Kind
func ParseKind(s string) (Kind, error) {
	switch s {
	case "password":
		return KindPassword, nil
	case "api_key", "apikey":
		return KindAPIKey, nil
	default:
		return 0, fmt.Errorf("unknown credential kind %q", s)
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if k != KindPassword && k != KindAPIKey {
		return nil, fmt.Errorf("unknown credential kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Credential is one stored secret entry. Principal is the username for
// passwords and the account name for API keys. IsActive only applies to
// API keys.
type Credential struct {
	ID           string            `json:"id"`
	Kind         Kind              `json:"kind"`
	Service      string            `json:"service"`
	Principal    string            `json:"principal"`
	Secret       []byte            `json:"secret"`
	Notes        string            `json:"notes,omitempty"`
	Tags         []string          `json:"tags,omitempty"`
	IsActive     bool              `json:"is_active,omitempty"`
	CustomFields map[string]string `json:"custom_fields,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func newCredential(kind Kind, service, principal string, secret []byte, notes string, tags []string, now time.Time) *Credential {
	return &Credential{
		ID:        uuid.NewString(),
		Kind:      kind,
		Service:   service,
		Principal: principal,
		Secret:    bytes.Clone(secret),
		Notes:     notes,
		Tags:      NormalizeTags(tags),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy that shares no memory with c
func (c *Credential) Clone() Credential {
	out := *c
	out.Secret = bytes.Clone(c.Secret)
	out.Tags = slices.Clone(c.Tags)
	out.CustomFields = maps.Clone(c.CustomFields)
	return out
}

// Wipe overwrites the secret bytes
func (c *Credential) Wipe() {
	crypto.ClearBytes(c.Secret)
	c.Secret = nil
}

// HasTag reports whether tag is one of the credential's labels
func (c *Credential) HasTag(tag string) bool {
	return slices.Contains(c.Tags, strings.TrimSpace(tag))
}

// NormalizeTags trims labels, drops empty ones and duplicates, and keeps the
// first-seen order for display.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

package vault

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/logging"
	"github.com/illarion/credvault/internal/storage"
)

// Store persists the single encrypted vault record.
// *storage.Storage satisfies it.
type Store interface {
	Load() (*storage.Record, error)
	Save(rec *storage.Record) error
	Reset() error
}

// Option configures a Manager
type Option func(*Manager)

// WithLogger sets the structured logger. Secrets are never logged.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithIterations sets the PBKDF2 iteration count used when a new vault is
// created. Existing vaults keep the count they were created with.
func WithIterations(n int) Option {
	return func(m *Manager) {
		m.iterations = n
	}
}

// WithClock overrides the time source for credential timestamps
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager owns the lock/unlock state of one vault session. All methods are
// safe for concurrent use; each holds the manager's mutex for its whole
// critical section, persistence included.
type Manager struct {
	mu         sync.Mutex
	store      Store
	logger     *slog.Logger
	iterations int
	now        func() time.Time

	// Session state, set only while unlocked.
	enc      *crypto.Encryptor
	salt     []byte
	kdfIters uint32
	repo     *Repository
}

// NewManager creates a locked manager over store
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		logger:     logging.Discard(),
		iterations: crypto.DefaultIterations,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Unlock opens the vault with password. When no vault exists yet, a new one
// is created and password becomes its master password.
//
// A wrong password returns false with a nil error. Errors are reserved for
// storage failures, corruption, and crypto invariant violations. Calling
// Unlock on an unlocked manager discards the current session first.
func (m *Manager) Unlock(password []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.discard()

	rec, err := m.store.Load()
	if err != nil {
		return false, err
	}
	if rec == nil {
		return m.create(password)
	}

	enc, err := crypto.NewEncryptor(crypto.DeriveKey(password, rec.Salt, int(rec.Iterations)))
	if err != nil {
		return false, err
	}

	plaintext, err := enc.Open(rec.Ciphertext, rec.Nonce)
	if err != nil {
		enc.Destroy()
		if errors.Is(err, crypto.ErrAuthFailed) {
			m.logger.Warn("unlock failed", "reason", "wrong password")
			return false, nil
		}
		return false, err
	}
	defer crypto.ClearBytes(plaintext)

	repo := NewRepository()
	if err := json.Unmarshal(plaintext, repo); err != nil {
		enc.Destroy()
		repo.Wipe()
		m.logger.Error("decrypted vault payload is unreadable", "error", err)
		return false, fmt.Errorf("%w: %w", ErrVaultCorrupted, err)
	}

	m.enc = enc
	m.salt = rec.Salt
	m.kdfIters = rec.Iterations
	m.repo = repo
	m.logger.Info("vault unlocked", "credentials", repo.Len())
	return true, nil
}

// create initializes an empty vault under a fresh salt
func (m *Manager) create(password []byte) (bool, error) {
	kdf, err := crypto.NewKDF(m.iterations)
	if err != nil {
		return false, err
	}

	enc, err := crypto.NewEncryptor(kdf.DeriveKey(password))
	if err != nil {
		return false, err
	}

	m.enc = enc
	m.salt = kdf.Salt
	m.kdfIters = uint32(kdf.Iterations)
	m.repo = NewRepository()

	if err := m.persist(); err != nil {
		m.discard()
		return false, err
	}

	m.logger.Info("vault created", "iterations", kdf.Iterations)
	return true, nil
}

// Lock wipes key material and credential secrets. It always succeeds.
func (m *Manager) Lock() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enc != nil {
		m.logger.Info("vault locked")
	}
	m.discard()
}

// discard drops the session; callers hold m.mu
func (m *Manager) discard() {
	if m.enc != nil {
		m.enc.Destroy()
		m.enc = nil
	}
	if m.repo != nil {
		m.repo.Wipe()
		m.repo = nil
	}
	m.salt = nil
	m.kdfIters = 0
}

// IsUnlocked reports the lifecycle state
func (m *Manager) IsUnlocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enc != nil
}

// Save re-encrypts the whole credential set under a new nonce and writes it.
// The salt never changes.
func (m *Manager) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enc == nil {
		return ErrVaultLocked
	}
	return m.persist()
}

// persist serializes, encrypts and stores the repository; callers hold m.mu
func (m *Manager) persist() error {
	plaintext, err := json.Marshal(m.repo)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}
	defer crypto.ClearBytes(plaintext)

	nonce, sealed, err := m.enc.Seal(plaintext)
	if err != nil {
		return err
	}

	if err := m.store.Save(&storage.Record{
		Iterations: m.kdfIters,
		Salt:       m.salt,
		Nonce:      nonce,
		Ciphertext: sealed,
	}); err != nil {
		m.logger.Error("failed to persist vault", "error", err)
		return err
	}
	return nil
}

// AddPassword stores a new password credential. secret is copied.
func (m *Manager) AddPassword(service, username string, secret []byte, notes string, tags []string) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.add(newCredential(KindPassword, service, username, secret, notes, tags, m.now()))
}

// AddAPIKey stores a new API key credential. secret is copied.
func (m *Manager) AddAPIKey(service, account string, secret []byte, notes string, isActive bool, tags []string) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := newCredential(KindAPIKey, service, account, secret, notes, tags, m.now())
	c.IsActive = isActive
	return m.add(c)
}

func (m *Manager) add(c *Credential) (Credential, error) {
	if m.enc == nil {
		c.Wipe()
		return Credential{}, ErrVaultLocked
	}

	m.repo.Put(c)
	if err := m.persist(); err != nil {
		m.repo.Delete(c.ID)
		c.Wipe()
		return Credential{}, err
	}

	m.logger.Info("credential added", "id", c.ID, "kind", c.Kind.String())
	return c.Clone(), nil
}

// UpdateCredential applies the fields set in patch and persists the result.
// On any failure the stored credential is left as it was.
func (m *Manager) UpdateCredential(id string, patch Patch) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enc == nil {
		return Credential{}, ErrVaultLocked
	}

	current, ok := m.repo.Get(id)
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}

	updated := patch.apply(current, m.now())
	m.repo.Put(updated)
	if err := m.persist(); err != nil {
		m.repo.Put(current)
		updated.Wipe()
		return Credential{}, err
	}
	current.Wipe()

	m.logger.Info("credential updated", "id", id)
	return updated.Clone(), nil
}

// RemoveCredential deletes the credential and persists the result
func (m *Manager) RemoveCredential(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enc == nil {
		return ErrVaultLocked
	}

	removed, ok := m.repo.Delete(id)
	if !ok {
		return ErrCredentialNotFound
	}
	if err := m.persist(); err != nil {
		m.repo.Put(removed)
		return err
	}
	removed.Wipe()

	m.logger.Info("credential removed", "id", id)
	return nil
}

// Get returns a copy of one credential
func (m *Manager) Get(id string) (Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enc == nil {
		return Credential{}, ErrVaultLocked
	}
	c, ok := m.repo.Get(id)
	if !ok {
		return Credential{}, ErrCredentialNotFound
	}
	return c.Clone(), nil
}

// ListCredentials returns copies of all credentials, ordered by service.
// Callers own the copies and may wipe them.
func (m *Manager) ListCredentials() ([]Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.enc == nil {
		return nil, ErrVaultLocked
	}
	return m.repo.List(), nil
}

// Reset erases the stored vault from any state and leaves the manager
// locked. The next Unlock creates a brand-new vault. Confirmation is the
// caller's job.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.discard()
	if err := m.store.Reset(); err != nil {
		return err
	}

	m.logger.Warn("vault reset")
	return nil
}

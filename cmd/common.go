package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/illarion/credvault/internal/config"
	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/keyring"
	"github.com/illarion/credvault/internal/security"
	"github.com/illarion/credvault/internal/storage"
	"github.com/illarion/credvault/internal/vault"
)

var (
	ErrNotInitialized = errors.New("vault not initialized")
	ErrAlreadyExists  = errors.New("vault already exists")
	ErrWrongPassword  = errors.New("wrong password")
	ErrEmptyPassword  = errors.New("password must not be empty")
	ErrMismatch       = errors.New("passwords do not match")
	ErrAborted        = errors.New("aborted")
	ErrAmbiguousID    = errors.New("id prefix matches more than one credential")
)

// PasswordSource records where an unlocking password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

// Env is what every command runs against. Tests swap the readers.
type Env struct {
	Config *config.Config
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer

	// ReadPassword reads one line without echo
	ReadPassword func(prompt string) ([]byte, error)
	in           *bufio.Reader
}

// NewEnv wires a command environment to the process terminal
func NewEnv(cfg *config.Config, logger *slog.Logger) *Env {
	return &Env{
		Config:       cfg,
		Logger:       logger,
		Out:          os.Stdout,
		Err:          os.Stderr,
		ReadPassword: readTerminalPassword,
		in:           bufio.NewReader(os.Stdin),
	}
}

// SetInput replaces the reader used for confirmations and plain answers
func (e *Env) SetInput(r io.Reader) {
	e.in = bufio.NewReader(r)
}

func readTerminalPassword(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

// readLine prints prompt and returns the trimmed answer
func (e *Env) readLine(prompt string) (string, error) {
	fmt.Fprint(e.Err, prompt)
	line, err := e.in.ReadString('\n')
	if err != nil && line == "" {
		if errors.Is(err, io.EOF) {
			return "", ErrAborted
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a yes/no question; anything but y/yes is no
func (e *Env) confirm(prompt string) bool {
	answer, err := e.readLine(prompt + " [y/N] ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true
	}
	return false
}

// readPasswordConfirm reads a password twice and ensures they match
func (e *Env) readPasswordConfirm(prompt string) ([]byte, error) {
	first, err := e.ReadPassword(prompt)
	if err != nil {
		return nil, err
	}

	second, err := e.ReadPassword("Confirm password: ")
	if err != nil {
		crypto.ClearBytes(first)
		return nil, err
	}
	defer crypto.ClearBytes(second)

	if !crypto.ConstantTimeCompare(first, second) {
		crypto.ClearBytes(first)
		return nil, ErrMismatch
	}
	return first, nil
}

// session is an open vault file plus its manager
type session struct {
	store *storage.Storage
	mgr   *vault.Manager
}

func (s *session) Close() {
	s.mgr.Lock()
	s.store.Close()
}

func (e *Env) openStore() (*storage.Storage, error) {
	path, err := security.ValidateVaultPath(e.Config.VaultPath)
	if err != nil {
		return nil, err
	}
	if err := security.CheckVaultFile(path); err != nil {
		e.Logger.Warn("vault file check failed", "path", path, "error", err)
	}
	return storage.Open(path, &storage.Options{LockTimeout: e.Config.LockTimeout})
}

func (e *Env) newSession() (*session, error) {
	store, err := e.openStore()
	if err != nil {
		return nil, err
	}
	mgr := vault.NewManager(store,
		vault.WithLogger(e.Logger),
		vault.WithIterations(e.Config.Iterations),
	)
	return &session{store: store, mgr: mgr}, nil
}

// openExisting opens the vault and fails when it has not been created
func (e *Env) openExisting() (*session, error) {
	s, err := e.newSession()
	if err != nil {
		return nil, err
	}
	info, err := s.store.Info()
	if err != nil {
		s.Close()
		return nil, err
	}
	if !info.Exists {
		s.Close()
		return nil, ErrNotInitialized
	}
	return s, nil
}

// unlocked opens the existing vault and unlocks it. The caller closes the
// returned session.
func (e *Env) unlocked(ctx context.Context) (*session, error) {
	s, err := e.openExisting()
	if err != nil {
		return nil, err
	}

	vaultID, err := s.store.VaultID()
	if err != nil {
		s.Close()
		return nil, err
	}

	password, source, err := e.unlockWithRetry(ctx, s.mgr, vaultID)
	if err != nil {
		s.Close()
		return nil, err
	}
	defer crypto.ClearBytes(password)

	if source == SourcePrompt {
		e.offerToSavePassword(vaultID, password)
	}
	return s, nil
}

// unlockWithRetry tries the environment, then the keyring, then the
// terminal. A stale keyring entry is removed and the user is prompted once.
// Each key derivation is preceded by a check of ctx.
func (e *Env) unlockWithRetry(ctx context.Context, mgr *vault.Manager, vaultID string) ([]byte, PasswordSource, error) {
	if err := ctx.Err(); err != nil {
		return nil, SourceEnv, err
	}
	if password := config.PasswordFromEnv(); password != nil {
		ok, err := mgr.Unlock(password)
		if err != nil || !ok {
			crypto.ClearBytes(password)
			return nil, SourceEnv, unlockErr(err)
		}
		return password, SourceEnv, nil
	}

	if e.Config.Keyring && vaultID != "" {
		password, err := keyring.GetPassword(vaultID)
		if err == nil {
			ok, err := mgr.Unlock(password)
			if err != nil {
				crypto.ClearBytes(password)
				return nil, SourceKeyring, err
			}
			if ok {
				return password, SourceKeyring, nil
			}
			crypto.ClearBytes(password)
			fmt.Fprintln(e.Err, "Password in keyring is stale, removing it")
			if err := keyring.DeletePassword(vaultID); err != nil {
				e.Logger.Warn("failed to delete stale keyring entry", "error", err)
			}
		} else if !errors.Is(err, keyring.ErrNotFound) {
			e.Logger.Warn("keyring unavailable", "error", err)
		}
	}

	password, err := e.ReadPassword("Enter password: ")
	if err != nil {
		return nil, SourcePrompt, err
	}
	if err := ctx.Err(); err != nil {
		crypto.ClearBytes(password)
		return nil, SourcePrompt, err
	}
	ok, err := mgr.Unlock(password)
	if err != nil || !ok {
		crypto.ClearBytes(password)
		return nil, SourcePrompt, unlockErr(err)
	}
	return password, SourcePrompt, nil
}

func unlockErr(err error) error {
	if err != nil {
		return err
	}
	return ErrWrongPassword
}

// offerToSavePassword asks once whether a typed password should go to the
// keyring.
func (e *Env) offerToSavePassword(vaultID string, password []byte) {
	if !e.Config.Keyring || vaultID == "" || keyring.HasPassword(vaultID) {
		return
	}
	if !e.confirm("Save password to OS keyring?") {
		return
	}
	if err := keyring.SavePassword(vaultID, password); err != nil {
		fmt.Fprintf(e.Err, "warning: %s\n", err)
		return
	}
	fmt.Fprintln(e.Out, "Password saved to keyring")
}

// resolveID maps a full id or a unique id prefix to a credential id
func resolveID(list []vault.Credential, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", vault.ErrCredentialNotFound
	}

	var match string
	for _, c := range list {
		if c.ID == ref {
			return c.ID, nil
		}
		if strings.HasPrefix(c.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("%w: %s", ErrAmbiguousID, ref)
			}
			match = c.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", vault.ErrCredentialNotFound, ref)
	}
	return match, nil
}

func wipeAll(list []vault.Credential) {
	for i := range list {
		list[i].Wipe()
	}
}

// HandleError prints a user-facing message for err and exits
func HandleError(err error) {
	fmt.Fprintln(os.Stderr, ErrorMessage(err))
	os.Exit(1)
}

// ErrorMessage maps known errors to what the user should read
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, ErrNotInitialized):
		return "Error: no vault found\nRun 'credvault init' first"
	case errors.Is(err, ErrAlreadyExists):
		return "Error: a vault already exists\nUse 'credvault reset' to start over"
	case errors.Is(err, ErrWrongPassword):
		return "Error: wrong password"
	case errors.Is(err, storage.ErrVaultBusy):
		return "Error: vault is in use by another credvault process"
	case errors.Is(err, context.Canceled):
		return "Interrupted"
	case errors.Is(err, vault.ErrVaultCorrupted):
		return fmt.Sprintf("Error: %s\nThe vault file was left untouched. 'credvault reset' erases it.", err)
	default:
		return fmt.Sprintf("Error: %s", err)
	}
}

package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gokeyring "github.com/zalando/go-keyring"
	bolt "go.etcd.io/bbolt"

	"github.com/illarion/credvault/internal/config"
	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/keyring"
	"github.com/illarion/credvault/internal/logging"
	"github.com/illarion/credvault/internal/storage"
	"github.com/illarion/credvault/internal/vault"
)

type testEnv struct {
	*Env
	out       *bytes.Buffer
	errOut    *bytes.Buffer
	passwords []string
}

// newTestEnv builds an Env over a temp vault with an in-memory keyring.
// Passwords handed to prompts come from te.passwords in order.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gokeyring.MockInit()
	t.Setenv(config.EnvPassword, "")

	te := &testEnv{out: &bytes.Buffer{}, errOut: &bytes.Buffer{}}
	te.Env = &Env{
		Config: &config.Config{
			VaultPath:   filepath.Join(t.TempDir(), "vault.db"),
			Iterations:  crypto.MinIterations,
			LockTimeout: 100 * time.Millisecond,
			LogLevel:    "warn",
			LogFormat:   logging.FormatText,
			Keyring:     true,
		},
		Logger: logging.Discard(),
		Out:    te.out,
		Err:    te.errOut,
		ReadPassword: func(string) ([]byte, error) {
			if len(te.passwords) == 0 {
				return nil, errors.New("unexpected password prompt")
			}
			pw := te.passwords[0]
			te.passwords = te.passwords[1:]
			return []byte(pw), nil
		},
	}
	te.SetInput(strings.NewReader(""))
	return te
}

func (te *testEnv) prompt(pw ...string) *testEnv {
	te.passwords = append(te.passwords, pw...)
	return te
}

func (te *testEnv) answer(s string) *testEnv {
	te.SetInput(strings.NewReader(s))
	return te
}

func (te *testEnv) vaultID(t *testing.T) string {
	t.Helper()
	s, err := te.openExisting()
	require.NoError(t, err)
	defer s.Close()
	id, err := s.store.VaultID()
	require.NoError(t, err)
	return id
}

func initVault(t *testing.T, te *testEnv, pw string) {
	t.Helper()
	te.prompt(pw, pw).answer("n\n")
	require.NoError(t, Init(t.Context(), te.Env))
	te.out.Reset()
}

func addPassword(t *testing.T, te *testEnv, service, user string) {
	t.Helper()
	t.Setenv(config.EnvPassword, "pw")
	require.NoError(t, Add(t.Context(), te.Env, AddOptions{
		Kind:      vault.KindPassword,
		Service:   service,
		Principal: user,
		Secret:    []byte("s3cr3t-" + service),
		Tags:      []string{"dev"},
	}))
	t.Setenv(config.EnvPassword, "")
	te.out.Reset()
}

func listIDs(t *testing.T, te *testEnv) []vault.Credential {
	t.Helper()
	s, err := te.openExisting()
	require.NoError(t, err)
	defer s.Close()
	ok, err := s.mgr.Unlock([]byte("pw"))
	require.NoError(t, err)
	require.True(t, ok)
	list, err := s.mgr.ListCredentials()
	require.NoError(t, err)
	return list
}

func TestInit(t *testing.T) {
	te := newTestEnv(t)
	te.prompt("pw", "pw").answer("y\n")

	require.NoError(t, Init(t.Context(), te.Env))
	assert.Contains(t, te.out.String(), "Initialized vault")
	assert.Contains(t, te.out.String(), "Password saved to keyring")
	assert.True(t, keyring.HasPassword(te.vaultID(t)))

	assert.ErrorIs(t, Init(t.Context(), te.Env), ErrAlreadyExists)
}

func TestInit_PasswordMismatchAndEmpty(t *testing.T) {
	te := newTestEnv(t)

	te.prompt("one", "two")
	assert.ErrorIs(t, Init(t.Context(), te.Env), ErrMismatch)

	te.prompt("", "")
	assert.ErrorIs(t, Init(t.Context(), te.Env), ErrEmptyPassword)

	assert.ErrorIs(t, List(t.Context(), te.Env, ListFilter{}), ErrNotInitialized)
}

func TestInit_FromEnv(t *testing.T) {
	te := newTestEnv(t)
	t.Setenv(config.EnvPassword, "env-pw")

	require.NoError(t, Init(t.Context(), te.Env))
	assert.False(t, keyring.HasPassword(te.vaultID(t)), "env passwords are not offered to the keyring")
}

func TestAddAndList(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")
	addPassword(t, te, "github", "alice")

	t.Setenv(config.EnvPassword, "pw")
	require.NoError(t, Add(t.Context(), te.Env, AddOptions{
		Kind:      vault.KindAPIKey,
		Service:   "stripe",
		Principal: "billing",
		Secret:    []byte("sk_live_123"),
		Inactive:  true,
	}))
	assert.Contains(t, te.out.String(), "Added api_key")
	te.out.Reset()

	require.NoError(t, List(t.Context(), te.Env, ListFilter{}))
	out := te.out.String()
	assert.Contains(t, out, "github")
	assert.Contains(t, out, "alice")
	assert.Contains(t, out, "api_key (inactive)")
	assert.NotContains(t, out, "s3cr3t")
	assert.NotContains(t, out, "sk_live")

	te.out.Reset()
	require.NoError(t, List(t.Context(), te.Env, ListFilter{Kind: vault.KindPassword, Tag: "dev"}))
	assert.Contains(t, te.out.String(), "github")
	assert.NotContains(t, te.out.String(), "stripe")

	te.out.Reset()
	require.NoError(t, List(t.Context(), te.Env, ListFilter{Service: "nothing"}))
	assert.Contains(t, te.out.String(), "(no credentials)")
}

func TestAdd_PromptsForSecret(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")

	// Unlock password, then the secret itself.
	te.prompt("pw", "typed-secret").answer("n\n")
	require.NoError(t, Add(t.Context(), te.Env, AddOptions{Kind: vault.KindPassword, Service: "mail", Principal: "bob"}))

	list := listIDs(t, te)
	require.Len(t, list, 1)
	assert.Equal(t, []byte("typed-secret"), list[0].Secret)
}

func TestAdd_RequiresService(t *testing.T) {
	te := newTestEnv(t)
	assert.Error(t, Add(t.Context(), te.Env, AddOptions{Kind: vault.KindPassword}))
}

func TestWrongPassword(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")

	te.prompt("nope")
	assert.ErrorIs(t, List(t.Context(), te.Env, ListFilter{}), ErrWrongPassword)

	t.Setenv(config.EnvPassword, "nope")
	assert.ErrorIs(t, List(t.Context(), te.Env, ListFilter{}), ErrWrongPassword)
}

func TestKeyringUnlockAndStaleRetry(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")
	id := te.vaultID(t)

	require.NoError(t, keyring.SavePassword(id, []byte("pw")))
	require.NoError(t, List(t.Context(), te.Env, ListFilter{}), "keyring password unlocks without a prompt")

	require.NoError(t, keyring.SavePassword(id, []byte("stale")))
	te.prompt("pw").answer("n\n")
	require.NoError(t, List(t.Context(), te.Env, ListFilter{}))
	assert.Contains(t, te.errOut.String(), "stale")
	assert.False(t, keyring.HasPassword(id))
}

func TestKeyringDisabled(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")
	require.NoError(t, keyring.SavePassword(te.vaultID(t), []byte("pw")))

	te.Config.Keyring = false
	te.prompt("pw")
	require.NoError(t, List(t.Context(), te.Env, ListFilter{}))
	assert.Empty(t, te.passwords, "prompt was used instead of the keyring")
}

func TestShow(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")
	addPassword(t, te, "github", "alice")
	id := listIDs(t, te)[0].ID

	t.Setenv(config.EnvPassword, "pw")
	require.NoError(t, Show(t.Context(), te.Env, id[:6], false))
	assert.Contains(t, te.out.String(), "Username:  alice")
	assert.NotContains(t, te.out.String(), "s3cr3t")

	te.out.Reset()
	require.NoError(t, Show(t.Context(), te.Env, id, true))
	assert.Contains(t, te.out.String(), "s3cr3t-github")

	assert.ErrorIs(t, Show(t.Context(), te.Env, "zzzz", false), vault.ErrCredentialNotFound)
}

func TestEdit(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")
	addPassword(t, te, "github", "alice")
	id := listIDs(t, te)[0].ID

	t.Setenv(config.EnvPassword, "pw")
	require.NoError(t, Edit(t.Context(), te.Env, id[:8], EditOptions{
		Patch:     vault.Patch{Principal: vault.Set("bob"), Notes: vault.Set("work account")},
		SetFields: map[string]string{"url": "https://github.com"},
	}))
	out := te.out.String()
	assert.Contains(t, out, `username: "alice" -> "bob"`)
	assert.Contains(t, out, "notes: {+work account+}")
	assert.Contains(t, out, "field url: added")

	te.out.Reset()
	te.prompt("rotated")
	require.NoError(t, Edit(t.Context(), te.Env, id, EditOptions{PromptSecret: true, SetFields: map[string]string{"url": ""}}))
	assert.Contains(t, te.out.String(), "secret: changed")
	assert.Contains(t, te.out.String(), "field url: removed")
	assert.NotContains(t, te.out.String(), "rotated")

	got := listIDs(t, te)[0]
	assert.Equal(t, "bob", got.Principal)
	assert.Equal(t, []byte("rotated"), got.Secret)
	assert.Nil(t, got.CustomFields)

	assert.Error(t, Edit(t.Context(), te.Env, id, EditOptions{}))
}

func TestRemove(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")
	addPassword(t, te, "github", "alice")
	addPassword(t, te, "gitlab", "alice")
	list := listIDs(t, te)
	require.Len(t, list, 2)

	t.Setenv(config.EnvPassword, "pw")
	assert.ErrorIs(t, Remove(t.Context(), te.Env, []string{"zzzz"}), vault.ErrCredentialNotFound)
	assert.Len(t, listIDs(t, te), 2)

	require.NoError(t, Remove(t.Context(), te.Env, []string{list[0].ID}))
	assert.Contains(t, te.out.String(), "Removed")
	remaining := listIDs(t, te)
	require.Len(t, remaining, 1)
	assert.Equal(t, list[1].ID, remaining[0].ID)

	assert.Error(t, Remove(t.Context(), te.Env, nil))
}

func TestReset(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")
	addPassword(t, te, "github", "alice")
	oldID := te.vaultID(t)
	require.NoError(t, keyring.SavePassword(oldID, []byte("pw")))

	te.answer("no\n")
	assert.ErrorIs(t, Reset(t.Context(), te.Env, false), ErrAborted)
	assert.Len(t, listIDs(t, te), 1)

	te.answer("reset\n")
	require.NoError(t, Reset(t.Context(), te.Env, false))
	assert.False(t, keyring.HasPassword(oldID))
	assert.ErrorIs(t, List(t.Context(), te.Env, ListFilter{}), ErrNotInitialized)

	initVault(t, te, "new-pw")
	assert.NotEqual(t, oldID, te.vaultID(t))
}

func TestResetForce(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")
	require.NoError(t, Reset(t.Context(), te.Env, true))
	assert.Contains(t, te.out.String(), "Vault erased")
}

func TestReset_DamagedFile(t *testing.T) {
	te := newTestEnv(t)
	path := te.Config.VaultPath
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte{0xAB}, 8192), 0o600))
	require.NoError(t, os.WriteFile(path+".backup", []byte("leftover"), 0o600))

	assert.ErrorIs(t, List(t.Context(), te.Env, ListFilter{}), vault.ErrVaultCorrupted)

	te.answer("no\n")
	assert.ErrorIs(t, Reset(t.Context(), te.Env, false), ErrAborted)
	assert.FileExists(t, path)

	require.NoError(t, Reset(t.Context(), te.Env, true))
	assert.Contains(t, te.out.String(), "Vault erased")
	assert.NoFileExists(t, path)
	assert.NoFileExists(t, path+".backup")

	initVault(t, te, "pw")
	addPassword(t, te, "github", "alice")
	assert.Len(t, listIDs(t, te), 1)
}

func TestVaultBucketWithoutRecord(t *testing.T) {
	te := newTestEnv(t)
	db, err := bolt.Open(te.Config.VaultPath, 0o600, nil)
	require.NoError(t, err)
	require.NoError(t, db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucket(storage.VaultBucket)
		return err
	}))
	require.NoError(t, db.Close())

	t.Setenv(config.EnvPassword, "pw")
	err = List(t.Context(), te.Env, ListFilter{})
	assert.ErrorIs(t, err, vault.ErrVaultCorrupted)
	assert.Contains(t, ErrorMessage(err), "credvault reset")
	assert.ErrorIs(t, Init(t.Context(), te.Env), ErrAlreadyExists)

	t.Setenv(config.EnvPassword, "")
	require.NoError(t, Reset(t.Context(), te.Env, true))
	initVault(t, te, "pw")
}

func TestCanceledContext(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")
	addPassword(t, te, "github", "alice")

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	t.Setenv(config.EnvPassword, "pw")
	assert.ErrorIs(t, List(ctx, te.Env, ListFilter{}), context.Canceled)
	assert.ErrorIs(t, Remove(ctx, te.Env, []string{"anything"}), context.Canceled)
	assert.Equal(t, "Interrupted", ErrorMessage(context.Canceled))
	assert.Len(t, listIDs(t, te), 1)
}

func TestStatus(t *testing.T) {
	te := newTestEnv(t)

	require.NoError(t, Status(t.Context(), te.Env))
	assert.Contains(t, te.out.String(), "No vault")

	initVault(t, te, "pw")
	require.NoError(t, Status(t.Context(), te.Env))
	out := te.out.String()
	assert.Contains(t, out, "Vault ID:")
	assert.Contains(t, out, "100000 iterations")
	assert.Contains(t, out, "Keyring:    not stored")
}

func TestCompact(t *testing.T) {
	te := newTestEnv(t)
	assert.ErrorIs(t, Compact(t.Context(), te.Env), ErrNotInitialized)

	initVault(t, te, "pw")
	require.NoError(t, Compact(t.Context(), te.Env))
	assert.Contains(t, te.out.String(), "Compacted:")
	assert.Len(t, listIDs(t, te), 0)
}

func TestKeyringCommands(t *testing.T) {
	te := newTestEnv(t)
	initVault(t, te, "pw")

	require.NoError(t, KeyringStatus(t.Context(), te.Env))
	assert.Contains(t, te.out.String(), "not stored")

	te.prompt("wrong")
	assert.ErrorIs(t, KeyringSave(t.Context(), te.Env), ErrWrongPassword)

	te.out.Reset()
	te.prompt("pw")
	require.NoError(t, KeyringSave(t.Context(), te.Env))
	require.NoError(t, KeyringStatus(t.Context(), te.Env))
	assert.Contains(t, te.out.String(), "stored in keyring")

	te.out.Reset()
	require.NoError(t, KeyringDelete(t.Context(), te.Env))
	require.NoError(t, KeyringDelete(t.Context(), te.Env))
	assert.Contains(t, te.out.String(), "Password removed from keyring")
	assert.Contains(t, te.out.String(), "No password stored in keyring")
}

func TestResolveID(t *testing.T) {
	list := []vault.Credential{{ID: "abc123"}, {ID: "abd456"}}

	id, err := resolveID(list, "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	_, err = resolveID(list, "ab")
	assert.ErrorIs(t, err, ErrAmbiguousID)

	_, err = resolveID(list, "x")
	assert.ErrorIs(t, err, vault.ErrCredentialNotFound)

	_, err = resolveID(list, " ")
	assert.ErrorIs(t, err, vault.ErrCredentialNotFound)
}

func TestParseTags(t *testing.T) {
	assert.Nil(t, ParseTags(""))
	assert.Equal(t, []string{"dev", "ops"}, ParseTags("dev, ops,,dev"))
}

func TestCompletion(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish"} {
		var buf bytes.Buffer
		require.NoError(t, Completion(&buf, shell))
		assert.Contains(t, buf.String(), "credvault")
	}
	assert.Error(t, Completion(&bytes.Buffer{}, "tcsh"))
}

func TestErrorMessage(t *testing.T) {
	assert.Contains(t, ErrorMessage(ErrNotInitialized), "credvault init")
	assert.Contains(t, ErrorMessage(vault.ErrVaultCorrupted), "credvault reset")
	assert.Equal(t, "Error: boom", ErrorMessage(errors.New("boom")))
}

package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gitRepo(t *testing.T) string {
	t.Helper()
	if !Available() {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	run("init", "-q")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "test")
	return dir
}

func TestCheckVault_OutsideRepo(t *testing.T) {
	if !Available() {
		t.Skip("git not installed")
	}
	// TempDir may itself live in a repo on some CI machines.
	dir := t.TempDir()
	if IsGitRepo(t.Context(), dir) {
		t.Skip("temp dir is inside a git work tree")
	}

	e := CheckVault(t.Context(), filepath.Join(dir, "vault.db"))
	assert.False(t, e.IsRepo)
	assert.Empty(t, e.Warning("vault.db"))
}

func TestCheckVault_NotIgnored(t *testing.T) {
	dir := gitRepo(t)
	path := filepath.Join(dir, "vault.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	e := CheckVault(t.Context(), path)
	assert.True(t, e.IsRepo)
	assert.False(t, e.Tracked)
	assert.False(t, e.Ignored)
	assert.Contains(t, e.Warning(path), "not in .gitignore")
}

func TestCheckVault_Ignored(t *testing.T) {
	dir := gitRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("*.db\n"), 0o600))
	path := filepath.Join(dir, "vault.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	e := CheckVault(t.Context(), path)
	assert.True(t, e.Ignored)
	assert.Empty(t, e.Warning(path))
}

func TestCheckVault_Tracked(t *testing.T) {
	dir := gitRepo(t)
	path := filepath.Join(dir, "vault.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	cmd := exec.Command("git", "add", "vault.db")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	e := CheckVault(t.Context(), path)
	assert.True(t, e.Tracked)
	assert.Contains(t, e.Warning(path), "git rm --cached")
}

func TestCheckVault_CanceledContext(t *testing.T) {
	dir := gitRepo(t)
	path := filepath.Join(dir, "vault.db")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	e := CheckVault(ctx, path)
	assert.False(t, e.IsRepo)
	assert.Empty(t, e.Warning(path))
}

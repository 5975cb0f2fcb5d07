package security

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateVaultPath(t *testing.T) {
	dir := t.TempDir()

	got, err := ValidateVaultPath(filepath.Join(dir, "a", "..", "vault.db"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "vault.db"), got)

	got, err = ValidateVaultPath("vault.db")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))

	_, err = ValidateVaultPath("")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = ValidateVaultPath(dir)
	assert.ErrorIs(t, err, ErrIsDirectory)
}

func TestCheckVaultFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "vault.db")

	// Missing file and missing directory are fine.
	assert.NoError(t, CheckVaultFile(path))
	assert.NoError(t, CheckVaultFile(filepath.Join(dir, "nope", "vault.db")))

	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	assert.NoError(t, CheckVaultFile(path))

	require.NoError(t, os.Chmod(path, 0o644))
	assert.ErrorIs(t, CheckVaultFile(path), ErrInsecurePerm)

	link := filepath.Join(dir, "link.db")
	require.NoError(t, os.Symlink(path, link))
	assert.ErrorIs(t, CheckVaultFile(link), ErrSymlink)

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o700))
	assert.ErrorIs(t, CheckVaultFile(sub), ErrNotRegular)
}

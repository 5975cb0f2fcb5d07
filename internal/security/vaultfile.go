// Package security checks that the vault file location is safe to use.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

var (
	ErrEmptyPath    = errors.New("empty path not allowed")
	ErrIsDirectory  = errors.New("vault path is a directory")
	ErrSymlink      = errors.New("vault file is a symbolic link")
	ErrNotRegular   = errors.New("vault file is not a regular file")
	ErrInsecurePerm = errors.New("vault file is accessible by other users")
)

// ValidateVaultPath cleans p into an absolute path and rejects paths that
// cannot hold a vault file. The file itself need not exist.
func ValidateVaultPath(p string) (string, error) {
	if p == "" {
		return "", ErrEmptyPath
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	if st, err := os.Stat(abs); err == nil && st.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrIsDirectory, abs)
	}
	return abs, nil
}

// CheckVaultFile inspects an existing vault file through an os.Root on its
// directory, so the check never follows the final path element out of it.
// A missing file is not an error.
func CheckVaultFile(path string) error {
	root, err := os.OpenRoot(filepath.Dir(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to open vault directory: %w", err)
	}
	defer root.Close()

	st, err := root.Lstat(filepath.Base(path))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	switch mode := st.Mode(); {
	case mode&fs.ModeSymlink != 0:
		return ErrSymlink
	case !mode.IsRegular():
		return ErrNotRegular
	case mode.Perm()&0o077 != 0:
		return fmt.Errorf("%w (mode %04o, expected 0600)", ErrInsecurePerm, mode.Perm())
	}
	return nil
}

// Package git reports whether the vault file sits inside a git work tree.
//
// The vault is encrypted, but a committed copy can still be attacked
// offline. Checks performed:
//   - Whether the vault's directory is inside a git repository
//   - Whether the vault file is tracked by git (should not be)
//   - Whether the vault file is covered by .gitignore (should be)
package git

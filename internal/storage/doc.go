// Package storage provides the BBolt-backed vault store for credvault.
//
// Database structure uses two buckets:
//   - config: format version, vault ID, created/modified timestamps (unencrypted)
//   - vault: the single encrypted record (salt, nonce, ciphertext)
//
// The unencrypted config bucket lets credvault status report on a vault
// without asking for the master password.
//
// BBolt provides ACID transactions, exclusive file locking, and corruption
// detection. A second process opening the same vault fails with ErrVaultBusy
// once the lock timeout elapses.
package storage

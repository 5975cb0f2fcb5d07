// Package crypto provides cryptographic operations for credvault.
//
// Encryption uses AES-256-GCM with:
//   - 32-byte key derived from the master password via PBKDF2
//   - 12-byte random nonce per encryption operation, stored next to the ciphertext
//   - 16-byte authentication tag appended to the ciphertext
//
// Key derivation uses PBKDF2-HMAC-SHA256 with:
//   - 32-byte random salt, generated once per vault (stored unencrypted)
//   - 210,000 iterations by default, never fewer than 100,000
//
// Memory safety:
//   - Key material lives in a SecureKey (mlocked memguard buffer)
//   - Use ClearBytes() to zero other sensitive data after use
//   - Call Encryptor.Destroy() when done with encryption operations
package crypto

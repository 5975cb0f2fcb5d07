// Package vault provides the credential model and the lock/unlock lifecycle
// of a credvault vault.
//
// A Manager owns one session over a Store:
//   - Unlock: create a new vault on first use, or decrypt the stored record
//   - AddPassword/AddAPIKey/UpdateCredential/RemoveCredential: mutate and persist
//   - Lock: wipe key material and credential secrets from memory
//   - Reset: erase the stored vault
//
// Every mutation re-encrypts the whole credential set under a fresh nonce and
// writes it back before returning. If the write fails the in-memory change is
// rolled back, so memory never diverges from what is stored.
package vault

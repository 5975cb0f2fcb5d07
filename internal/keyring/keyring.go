// Package keyring caches vault master passwords in the OS keyring, keyed by
// the vault's random id so that a reset vault never picks up a stale entry.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const serviceName = "credvault"

// ErrNotFound is returned when no password is stored for the vault
var ErrNotFound = errors.New("no password stored in keyring")

// SavePassword stores a password in the OS keyring
func SavePassword(vaultID string, password []byte) error {
	if vaultID == "" {
		return errors.New("vault id is empty")
	}
	if err := keyring.Set(serviceName, vaultID, string(password)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// GetPassword retrieves a password from the OS keyring.
// The caller owns the returned slice and should wipe it.
func GetPassword(vaultID string) ([]byte, error) {
	pw, err := keyring.Get(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read keyring: %w", err)
	}
	return []byte(pw), nil
}

// DeletePassword removes a password from the OS keyring
func DeletePassword(vaultID string) error {
	err := keyring.Delete(serviceName, vaultID)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// HasPassword checks if a password is stored in the keyring
func HasPassword(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}

package vault

import (
	"errors"

	"github.com/illarion/credvault/internal/crypto"
	"github.com/illarion/credvault/internal/storage"
)

var (
	ErrVaultLocked        = errors.New("vault is locked")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrInvalidPayload     = errors.New("invalid credential payload")

	// Re-exported so callers can branch on them without importing the lower layers.
	ErrVaultCorrupted = storage.ErrCorrupted
	ErrStorageIO      = storage.ErrIO
	ErrCrypto         = crypto.ErrCrypto
)

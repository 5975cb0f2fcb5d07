package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltSize          = 32      // Salt size in bytes
	KeySize           = 32      // AES-256 key size
	NonceSize         = 12      // GCM nonce size
	TagSize           = 16      // GCM authentication tag size
	DefaultIterations = 210_000 // Default PBKDF2 iterations (OWASP recommendation)
	MinIterations     = 100_000 // Lowest iteration count a vault may be created with
	MaxIterations     = 10 * DefaultIterations
)

var (
	// ErrMalformed is wrapped by every input-shape error detected before decryption.
	ErrMalformed         = errors.New("malformed input")
	ErrInvalidNonce      = fmt.Errorf("%w: invalid nonce length", ErrMalformed)
	ErrInvalidCiphertext = fmt.Errorf("%w: ciphertext too short", ErrMalformed)
	ErrAuthFailed        = errors.New("authentication failed")

	// ErrCrypto is wrapped by failures on internally controlled inputs.
	ErrCrypto     = errors.New("crypto failure")
	ErrInvalidKey = fmt.Errorf("%w: invalid key length", ErrCrypto)
	ErrWeakKDF    = fmt.Errorf("%w: iteration count below minimum", ErrCrypto)
	ErrCostlyKDF  = fmt.Errorf("%w: iteration count above maximum", ErrCrypto)
)

// KDF handles key derivation from passwords
type KDF struct {
	Salt       []byte
	Iterations int
}

// NewKDF creates a new KDF with a random salt
func NewKDF(iterations int) (*KDF, error) {
	switch {
	case iterations < MinIterations:
		return nil, ErrWeakKDF
	case iterations > MaxIterations:
		return nil, ErrCostlyKDF
	}

	salt, err := GenerateRandom(SaltSize)
	if err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	return &KDF{
		Salt:       salt,
		Iterations: iterations,
	}, nil
}

// DeriveKey derives an encryption key from a password
func (k *KDF) DeriveKey(password []byte) []byte {
	return DeriveKey(password, k.Salt, k.Iterations)
}

// DeriveKey stretches password with PBKDF2-HMAC-SHA256 into a KeySize key.
// The same inputs always yield the same key.
func DeriveKey(password, salt []byte, iterations int) []byte {
	return pbkdf2.Key(password, salt, iterations, KeySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create cipher: %w", ErrCrypto, err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create GCM: %w", ErrCrypto, err)
	}
	return gcm, nil
}

// Encrypt seals plaintext with AES-256-GCM under a freshly generated nonce.
// The returned sealed slice is ciphertext with the tag appended.
func Encrypt(plaintext, key []byte) (nonce, sealed []byte, err error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce, err = GenerateRandom(NonceSize)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to generate nonce: %w", ErrCrypto, err)
	}

	return nonce, gcm.Seal(nil, nonce, plaintext, nil), nil
}

// Decrypt opens a sealed payload produced by Encrypt.
// A wrong key and tampered bytes both report ErrAuthFailed.
func Decrypt(sealed, nonce, key []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, ErrInvalidNonce
	}
	if len(sealed) < TagSize {
		return nil, ErrInvalidCiphertext
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, ErrAuthFailed
	}

	return plaintext, nil
}

// Encryptor provides authenticated encryption under one owned key
type Encryptor struct {
	key *SecureKey
}

// NewEncryptor creates a new encryptor with the given key.
// The key is moved into locked memory and the source slice is wiped.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != KeySize {
		ClearBytes(key)
		return nil, ErrInvalidKey
	}
	return &Encryptor{key: NewSecureKey(key)}, nil
}

// Seal encrypts plaintext under a new nonce
func (e *Encryptor) Seal(plaintext []byte) (nonce, sealed []byte, err error) {
	if !e.key.Alive() {
		return nil, nil, ErrInvalidKey
	}
	return Encrypt(plaintext, e.key.Bytes())
}

// Open decrypts and verifies sealed
func (e *Encryptor) Open(sealed, nonce []byte) ([]byte, error) {
	if !e.key.Alive() {
		return nil, ErrInvalidKey
	}
	return Decrypt(sealed, nonce, e.key.Bytes())
}

// Destroy clears the encryptor's key from memory
func (e *Encryptor) Destroy() {
	if e == nil {
		return
	}
	e.key.Destroy()
}

// ConstantTimeCompare performs a constant-time comparison of two byte slices
func ConstantTimeCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// GenerateRandom generates n random bytes
func GenerateRandom(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return b, nil
}

package crypto

import "github.com/awnumar/memguard"

// SecureKey holds key material in a guarded, mlocked buffer that is
// overwritten when destroyed.
type SecureKey struct {
	buf *memguard.LockedBuffer
}

// NewSecureKey moves b into locked memory. b is wiped.
func NewSecureKey(b []byte) *SecureKey {
	buf := memguard.NewBufferFromBytes(b)
	buf.Freeze()
	return &SecureKey{buf: buf}
}

// Bytes returns the key. The slice is only valid until Destroy.
func (k *SecureKey) Bytes() []byte {
	if !k.Alive() {
		return nil
	}
	return k.buf.Bytes()
}

// Alive reports whether the key has not been destroyed
func (k *SecureKey) Alive() bool {
	return k != nil && k.buf != nil && k.buf.IsAlive()
}

// Destroy wipes and releases the key. Safe to call more than once.
func (k *SecureKey) Destroy() {
	if k == nil || k.buf == nil {
		return
	}
	k.buf.Destroy()
}

// ClearBytes securely clears a byte slice
func ClearBytes(b []byte) {
	memguard.WipeBytes(b)
}

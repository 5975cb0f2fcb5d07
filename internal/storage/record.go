package storage

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/illarion/credvault/internal/crypto"
)

const (
	recordMagic   = "CVLT"
	recordVersion = 0x01
)

var ErrInvalidRecord = errors.New("invalid vault record")

// Record is the single durable artifact of a vault. Salt and Iterations are
// fixed when the vault is created; Nonce and Ciphertext belong to the most
// recent save.
type Record struct {
	Iterations uint32
	Salt       []byte
	Nonce      []byte
	Ciphertext []byte // AES-GCM output with the tag appended
}

// Validate checks field lengths against the crypto scheme
func (r *Record) Validate() error {
	switch {
	case r.Iterations < crypto.MinIterations:
		return fmt.Errorf("%w: iterations %d below minimum", ErrInvalidRecord, r.Iterations)
	case r.Iterations > crypto.MaxIterations:
		return fmt.Errorf("%w: iterations %d above maximum", ErrInvalidRecord, r.Iterations)
	case len(r.Salt) != crypto.SaltSize:
		return fmt.Errorf("%w: salt is %d bytes", ErrInvalidRecord, len(r.Salt))
	case len(r.Nonce) != crypto.NonceSize:
		return fmt.Errorf("%w: nonce is %d bytes", ErrInvalidRecord, len(r.Nonce))
	case len(r.Ciphertext) < crypto.TagSize:
		return fmt.Errorf("%w: ciphertext is %d bytes", ErrInvalidRecord, len(r.Ciphertext))
	}
	return nil
}

// MarshalBinary encodes the record as
// magic | version | iterations | salt len | salt | nonce len | nonce | ciphertext.
func (r *Record) MarshalBinary() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(make([]byte, 0, 4+1+4+1+len(r.Salt)+1+len(r.Nonce)+len(r.Ciphertext)))
	buf.WriteString(recordMagic)
	buf.WriteByte(recordVersion)
	if err := binary.Write(buf, binary.BigEndian, r.Iterations); err != nil {
		return nil, err
	}
	buf.WriteByte(uint8(len(r.Salt)))
	buf.Write(r.Salt)
	buf.WriteByte(uint8(len(r.Nonce)))
	buf.Write(r.Nonce)
	buf.Write(r.Ciphertext)

	return buf.Bytes(), nil
}

// UnmarshalBinary decodes data produced by MarshalBinary. Any structural
// problem is reported as ErrCorrupted.
func (r *Record) UnmarshalBinary(data []byte) error {
	rd := bytes.NewReader(data)

	magic := make([]byte, len(recordMagic))
	if _, err := io.ReadFull(rd, magic); err != nil || string(magic) != recordMagic {
		return fmt.Errorf("%w: bad magic", ErrCorrupted)
	}

	version, err := rd.ReadByte()
	if err != nil || version != recordVersion {
		return fmt.Errorf("%w: unsupported record version", ErrCorrupted)
	}

	var rec Record
	if err := binary.Read(rd, binary.BigEndian, &rec.Iterations); err != nil {
		return fmt.Errorf("%w: truncated header", ErrCorrupted)
	}
	if rec.Salt, err = readSized(rd); err != nil {
		return fmt.Errorf("%w: salt: %v", ErrCorrupted, err)
	}
	if rec.Nonce, err = readSized(rd); err != nil {
		return fmt.Errorf("%w: nonce: %v", ErrCorrupted, err)
	}

	rec.Ciphertext = make([]byte, rd.Len())
	if _, err := io.ReadFull(rd, rec.Ciphertext); err != nil {
		return fmt.Errorf("%w: ciphertext: %v", ErrCorrupted, err)
	}

	if err := rec.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	*r = rec
	return nil
}

func readSized(rd *bytes.Reader) ([]byte, error) {
	n, err := rd.ReadByte()
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(rd, b); err != nil {
		return nil, err
	}
	return b, nil
}

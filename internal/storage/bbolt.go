package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	berrors "go.etcd.io/bbolt/errors"
)

const (
	DirPermSecure      = 0700
	FilePermSecure     = 0600
	DefaultLockTimeout = time.Second
	formatVersion      = "1"
)

// Bucket names
var (
	ConfigBucket = []byte("config") // version, vault ID, timestamps - unencrypted
	VaultBucket  = []byte("vault")  // the encrypted record
)

// Keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigVaultID  = []byte("vault_id")
	RecordKey      = []byte("record")
)

var (
	ErrIO        = errors.New("storage i/o error")
	ErrCorrupted = errors.New("vault data is corrupted")
	ErrVaultBusy = errors.New("vault is in use by another process")
)

// Options tunes how the database file is opened
type Options struct {
	// LockTimeout bounds the wait for the exclusive file lock.
	LockTimeout time.Duration
}

func (o *Options) boltOptions() *bolt.Options {
	timeout := DefaultLockTimeout
	if o != nil && o.LockTimeout > 0 {
		timeout = o.LockTimeout
	}
	return &bolt.Options{Timeout: timeout}
}

// Storage provides BBolt-based storage for one vault record
type Storage struct {
	db   *bolt.DB
	path string
	opts *Options
}

// Open opens or creates a vault database, holding an exclusive lock on it
// until Close.
func Open(path string, opts *Options) (*Storage, error) {
	if err := os.MkdirAll(filepath.Dir(path), DirPermSecure); err != nil {
		return nil, fmt.Errorf("%w: failed to create vault directory: %w", ErrIO, err)
	}

	db, err := openDB(path, opts)
	if err != nil {
		return nil, err
	}

	return &Storage{db: db, path: path, opts: opts}, nil
}

func openDB(path string, opts *Options) (*bolt.DB, error) {
	db, err := bolt.Open(path, FilePermSecure, opts.boltOptions())
	switch {
	case err == nil:
		return db, nil
	case errors.Is(err, berrors.ErrTimeout):
		return nil, ErrVaultBusy
	case errors.Is(err, berrors.ErrInvalid),
		errors.Is(err, berrors.ErrVersionMismatch),
		errors.Is(err, berrors.ErrChecksum):
		return nil, fmt.Errorf("%w: %w", ErrCorrupted, err)
	default:
		return nil, fmt.Errorf("%w: failed to open database: %w", ErrIO, err)
	}
}

// Close closes the database and releases the file lock
func (s *Storage) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.path
}

// Load returns the stored record, or nil when no vault has been created yet
func (s *Storage) Load() (*Record, error) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(VaultBucket)
		if bucket == nil {
			return nil
		}
		data := bucket.Get(RecordKey)
		if data == nil {
			return fmt.Errorf("%w: vault bucket has no record", ErrCorrupted)
		}
		// Make a copy since the slice is only valid during the transaction
		raw = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCorrupted) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to read record: %w", ErrIO, err)
	}
	if raw == nil {
		return nil, nil
	}

	rec := &Record{}
	if err := rec.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return rec, nil
}

// Save replaces the stored record. The record and the modified timestamp are
// written in one transaction, so a crash leaves either the old or the new
// record in place.
func (s *Storage) Save(rec *Record) error {
	data, err := rec.MarshalBinary()
	if err != nil {
		return err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		config, err := tx.CreateBucketIfNotExists(ConfigBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", ConfigBucket, err)
		}
		vault, err := tx.CreateBucketIfNotExists(VaultBucket)
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", VaultBucket, err)
		}

		now, _ := time.Now().MarshalBinary()
		if config.Get(ConfigVersion) == nil {
			if err := config.Put(ConfigVersion, []byte(formatVersion)); err != nil {
				return err
			}
			if err := config.Put(ConfigCreated, now); err != nil {
				return err
			}
			if err := config.Put(ConfigVaultID, []byte(uuid.NewString())); err != nil {
				return err
			}
		}
		if err := config.Put(ConfigModified, now); err != nil {
			return err
		}

		return vault.Put(RecordKey, data)
	})
	if err != nil {
		return fmt.Errorf("%w: failed to save record: %w", ErrIO, err)
	}
	return nil
}

// Reset erases all stored state. It cannot be undone.
func (s *Storage) Reset() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		var names [][]byte
		if err := tx.ForEach(func(name []byte, _ *bolt.Bucket) error {
			names = append(names, append([]byte(nil), name...))
			return nil
		}); err != nil {
			return err
		}
		for _, name := range names {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("failed to delete bucket %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: failed to reset vault: %w", ErrIO, err)
	}
	return nil
}

// Destroy removes the vault file at path together with leftovers of an
// interrupted Compact. It is the way out when the file is too damaged for
// Open; it takes no lock, so callers confirm with the user first.
func Destroy(path string) error {
	for _, p := range []string{path, path + ".compact", path + ".backup"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: failed to remove %s: %w", ErrIO, p, err)
		}
	}
	return nil
}

// Info describes a vault without decrypting it
type Info struct {
	Exists   bool
	VaultID  string
	Version  string
	Created  time.Time
	Modified time.Time
}

// Info reads the unencrypted vault metadata
func (s *Storage) Info() (*Info, error) {
	info := &Info{}
	err := s.db.View(func(tx *bolt.Tx) error {
		// A vault bucket without its record still counts: Load reports it as
		// corrupted, and init must not paper over that.
		info.Exists = tx.Bucket(VaultBucket) != nil

		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return nil
		}
		info.VaultID = string(config.Get(ConfigVaultID))
		info.Version = string(config.Get(ConfigVersion))
		if data := config.Get(ConfigCreated); data != nil {
			if err := info.Created.UnmarshalBinary(data); err != nil {
				return fmt.Errorf("%w: created time: %w", ErrCorrupted, err)
			}
		}
		if data := config.Get(ConfigModified); data != nil {
			if err := info.Modified.UnmarshalBinary(data); err != nil {
				return fmt.Errorf("%w: modified time: %w", ErrCorrupted, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCorrupted) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return info, nil
}

// VaultID returns the identifier assigned when the vault was first saved
func (s *Storage) VaultID() (string, error) {
	info, err := s.Info()
	if err != nil {
		return "", err
	}
	if info.VaultID == "" {
		return "", fmt.Errorf("%w: vault_id not found", ErrCorrupted)
	}
	return info.VaultID, nil
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after a reset or many saves to reclaim disk space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	// Create new database
	dst, err := bolt.Open(tmpPath, FilePermSecure, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create compact database: %w", ErrIO, err)
	}

	// Copy all buckets
	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})

	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to copy data: %w", ErrIO, err)
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to close compact database: %w", ErrIO, err)
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: failed to close source database: %w", ErrIO, err)
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return s.reopen(fmt.Errorf("%w: failed to backup original: %w", ErrIO, err))
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return s.reopen(fmt.Errorf("%w: failed to replace database: %w", ErrIO, err))
	}
	os.Remove(backupPath)

	return s.reopen(nil)
}

// reopen restores s.db after Compact closed it, returning cause if set
func (s *Storage) reopen(cause error) error {
	db, err := openDB(s.path, s.opts)
	if err != nil {
		return errors.Join(cause, fmt.Errorf("failed to reopen database: %w", err))
	}
	s.db = db
	return cause
}

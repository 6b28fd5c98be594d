// Package storage provides the key-value store behind the submission journal.
package storage

import "errors"

// ErrNotFound is returned by Get for a missing key.
var ErrNotFound = errors.New("key not found")

// DB is the key-value store the submission journal writes to. Records are
// only ever overwritten, never removed.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	// ForEach iterates over all keys with the given prefix in key order.
	// The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Open returns a Badger database at path, or an in-memory one when path is empty.
func Open(path string) (DB, error) {
	if path == "" {
		return NewMemory(), nil
	}
	return NewBadger(path)
}

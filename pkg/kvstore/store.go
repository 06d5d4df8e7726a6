// Package kvstore is the durable embedded key-value store shared by the
// Local Artifact Store and the Background Sync Engine. Both page-side and
// worker-side storage in spec.md are required to survive process restarts
// ("offline-durable"); an in-memory map cannot honor that, so entries live
// on disk in a BadgerDB instance, one per owning context.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v3"
)

// ErrNotFound is returned when a key has no value (or its value has been
// reaped by expiry elsewhere in the stack).
var ErrNotFound = errors.New("kvstore: key not found")

// Store wraps a single BadgerDB database under a directory. Keys are plain
// strings; callers own their own key-prefixing scheme (LAS uses "conv_",
// the sync engine uses "webhook-sync-queue/...").
type Store struct {
	db   *badger.DB
	name string
}

// Open opens (creating if necessary) a BadgerDB database rooted at dir.
// Pass dir == "" for an in-memory instance, used by tests and by any
// deployment that intentionally opts out of durability.
func Open(name, dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts = opts.WithLogger(nil) // we log at the call site with slog instead
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("kvstore: failed to open %q: %w", name, err)
	}

	return &Store{db: db, name: name}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Set writes key to raw bytes.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	if err != nil {
		slog.ErrorContext(ctx, "kvstore: set failed", "store", s.name, "key", key, "error", err)

		return fmt.Errorf("kvstore: set %q: %w", key, err)
	}

	return nil
}

// Get reads the raw bytes stored at key. It returns ErrNotFound if absent.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)

			return nil
		})
	})
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		slog.ErrorContext(ctx, "kvstore: get failed", "store", s.name, "key", key, "error", err)

		return nil, fmt.Errorf("kvstore: get %q: %w", key, err)
	}

	return out, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		slog.ErrorContext(ctx, "kvstore: delete failed", "store", s.name, "key", key, "error", err)

		return fmt.Errorf("kvstore: delete %q: %w", key, err)
	}

	return nil
}

// Entry is one key/value pair surfaced by PrefixScan.
type Entry struct {
	Key   string
	Value []byte
}

// PrefixScan returns every entry whose key starts with prefix, in key order.
func (s *Store) PrefixScan(ctx context.Context, prefix string) ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.ValidForPrefix([]byte(prefix)); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			err := item.Value(func(val []byte) error {
				entries = append(entries, Entry{Key: key, Value: append([]byte(nil), val...)})

				return nil
			})
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "kvstore: prefix scan failed", "store", s.name, "prefix", prefix, "error", err)

		return nil, fmt.Errorf("kvstore: prefix scan %q: %w", prefix, err)
	}

	return entries, nil
}

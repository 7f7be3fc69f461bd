// Package tracker is the persistent push ledger: which native objects have
// already been submitted to the DAG store (id → content address) and which
// identifier each reference was last synchronized at (ref name → id). It is
// the only state shared across push invocations and process restarts.
package tracker

import (
	"bytes"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v3"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/ipfs/go-cid"
)

const (
	objPrefix = "obj/"
	refPrefix = "ref/"
)

// Tracker owns the embedded transactional store backing the ledger. Every
// mutation runs inside a single badger transaction, so a failed call leaves
// the ledger unchanged.
type Tracker struct {
	db *badger.DB
}

// Open opens or creates the ledger at path, creating the directory if absent.
func Open(path string) (*Tracker, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("tracker: create %s: %w", path, err)
	}
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("tracker: open %s: %w", path, err)
	}
	return &Tracker{db: db}, nil
}

// Close releases the embedded store.
func (t *Tracker) Close() error {
	return t.db.Close()
}

// LookupObject returns the content address recorded for id, if any.
func (t *Tracker) LookupObject(id plumbing.Hash) (cid.Cid, bool, error) {
	var (
		ca    cid.Cid
		found bool
	)
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(objKey(id))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := cid.Cast(val)
			if err != nil {
				return fmt.Errorf("corrupt entry for object %s: %w", id, err)
			}
			ca = parsed
			found = true
			return nil
		})
	})
	if err != nil {
		return cid.Undef, false, fmt.Errorf("tracker: lookup object: %w", err)
	}
	return ca, found, nil
}

// RecordObject inserts id → ca. Re-recording the identical pair is a no-op.
// Content for a fixed id never changes, so a different address for an
// existing id is an invariant violation and fails.
func (t *Tracker) RecordObject(id plumbing.Hash, ca cid.Cid) error {
	if !ca.Defined() {
		return fmt.Errorf("tracker: record object %s: undefined content address", id)
	}
	err := t.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(objKey(id))
		if err == nil {
			return item.Value(func(val []byte) error {
				if bytes.Equal(val, ca.Bytes()) {
					return nil
				}
				return fmt.Errorf("object %s already recorded with a different address", id)
			})
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		return txn.Set(objKey(id), ca.Bytes())
	})
	if err != nil {
		return fmt.Errorf("tracker: record object: %w", err)
	}
	return nil
}

// LookupRef returns the identifier a reference was last synchronized at.
func (t *Tracker) LookupRef(name string) (plumbing.Hash, bool, error) {
	var (
		id    plumbing.Hash
		found bool
	)
	err := t.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(refKey(name))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != len(id) {
				return fmt.Errorf("corrupt entry for ref %q", name)
			}
			copy(id[:], val)
			found = true
			return nil
		})
	})
	if err != nil {
		return plumbing.ZeroHash, false, fmt.Errorf("tracker: lookup ref: %w", err)
	}
	return id, found, nil
}

// SetRef upserts name → id. The write is a single transaction: concurrent
// readers observe either the old value or the new one, never a partial write.
func (t *Tracker) SetRef(name string, id plumbing.Hash) error {
	err := t.db.Update(func(txn *badger.Txn) error {
		return txn.Set(refKey(name), id[:])
	})
	if err != nil {
		return fmt.Errorf("tracker: set ref %q: %w", name, err)
	}
	return nil
}

func objKey(id plumbing.Hash) []byte {
	return append([]byte(objPrefix), id[:]...)
}

func refKey(name string) []byte {
	return []byte(refPrefix + name)
}

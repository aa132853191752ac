// Package keyring implements stowry.KeySource over an immutable in-memory
// snapshot. Reads are lock-free; reloads swap the whole snapshot atomically
// so a verification in progress always sees a consistent key set.
package keyring

import (
	"fmt"
	"sync/atomic"

	"github.com/sagarc03/stowry"
)

// ErrKeyNotFound is returned when an access key id is not in the store.
// It wraps stowry.ErrUnauthorized.
var ErrKeyNotFound = fmt.Errorf("access key not found: %w", stowry.ErrUnauthorized)

type snapshot struct {
	byID   map[string]stowry.AccessKey
	active stowry.AccessKey
}

// Store holds the gateway's access keys. The zero value is unusable; use
// NewStore. Safe for concurrent use.
type Store struct {
	snap atomic.Pointer[snapshot]
}

// NewStore builds a Store from keys. The last key in the slice becomes the
// active signing key, so appending a key rotates signing without
// invalidating URLs signed by earlier keys. Duplicate ids and keys with an
// empty id or secret are rejected.
func NewStore(keys []stowry.AccessKey) (*Store, error) {
	snap, err := buildSnapshot(keys)
	if err != nil {
		return nil, err
	}

	s := &Store{}
	s.snap.Store(snap)
	return s, nil
}

// Resolve returns the key pair for id, or ErrKeyNotFound.
func (s *Store) Resolve(id string) (stowry.AccessKey, error) {
	key, ok := s.snap.Load().byID[id]
	if !ok {
		return stowry.AccessKey{}, ErrKeyNotFound
	}
	return key, nil
}

// Active returns the current signing key.
func (s *Store) Active() (stowry.AccessKey, error) {
	snap := s.snap.Load()
	if snap.active.ID == "" {
		return stowry.AccessKey{}, ErrKeyNotFound
	}
	return snap.active, nil
}

// Len returns the number of keys in the current snapshot.
func (s *Store) Len() int {
	return len(s.snap.Load().byID)
}

// Replace swaps the entire key set in one atomic step. In-flight
// verifications keep the snapshot they started with.
func (s *Store) Replace(keys []stowry.AccessKey) error {
	snap, err := buildSnapshot(keys)
	if err != nil {
		return err
	}
	s.snap.Store(snap)
	return nil
}

func buildSnapshot(keys []stowry.AccessKey) (*snapshot, error) {
	snap := &snapshot{byID: make(map[string]stowry.AccessKey, len(keys))}

	for _, k := range keys {
		if k.ID == "" || k.Secret == "" {
			return nil, fmt.Errorf("keyring: key with empty id or secret")
		}
		if _, dup := snap.byID[k.ID]; dup {
			return nil, fmt.Errorf("keyring: duplicate access key id: %s", k.ID)
		}
		snap.byID[k.ID] = k
		snap.active = k
	}

	return snap, nil
}

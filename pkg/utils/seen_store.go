package utils

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// seenBatch bounds the number of keys written per transaction so large
// snapshots stay under badger's transaction size limit.
const seenBatch = 1000

var seenPrefix = []byte("seen/")

// SeenStore records the first time each node id was observed. It lives in
// memory for the session.
type SeenStore struct {
	db  *badger.DB
	now func() time.Time
}

func OpenSeenStore() (*SeenStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	// Decrease logging verbosity
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open seen store: %w", err)
	}
	return &SeenStore{db: db, now: time.Now}, nil
}

func (s *SeenStore) Close() error {
	return s.db.Close()
}

func seenKey(id string) []byte {
	key := make([]byte, 0, len(seenPrefix)+len(id))
	key = append(key, seenPrefix...)
	return append(key, id...)
}

// MarkSeen records ids and returns those that were not known before, in
// input order. Repeated ids within one call are reported once. When a batch
// fails, the ids from batches that already committed are still returned
// alongside the error.
func (s *SeenStore) MarkSeen(ids []string) ([]string, error) {
	var fresh []string
	stamp := make([]byte, 8)
	binary.BigEndian.PutUint64(stamp, uint64(s.now().UnixNano()))

	for start := 0; start < len(ids); start += seenBatch {
		end := min(start+seenBatch, len(ids))
		var batch []string
		err := s.db.Update(func(txn *badger.Txn) error {
			batch = batch[:0]
			for _, id := range ids[start:end] {
				key := seenKey(id)
				_, err := txn.Get(key)
				if err == nil {
					continue
				}
				if !errors.Is(err, badger.ErrKeyNotFound) {
					return err
				}
				if err := txn.Set(key, stamp); err != nil {
					return err
				}
				batch = append(batch, id)
			}
			return nil
		})
		if err != nil {
			return fresh, fmt.Errorf("failed to mark ids seen: %w", err)
		}
		fresh = append(fresh, batch...)
	}
	return fresh, nil
}

// FirstSeen returns when id was first recorded.
func (s *SeenStore) FirstSeen(id string) (time.Time, bool, error) {
	var at time.Time
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(seenKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			if len(v) != 8 {
				return fmt.Errorf("corrupt seen entry for %q", id)
			}
			at = time.Unix(0, int64(binary.BigEndian.Uint64(v)))
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}

// Count returns the number of distinct ids recorded.
func (s *SeenStore) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = seenPrefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

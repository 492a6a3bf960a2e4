package state

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	// Bucket names
	bucketTimers   = []byte("timers")
	bucketCounters = []byte("counters")
)

var keyBoots = []byte("boots")

// Store persists small pieces of supervisor metadata in BoltDB: the
// last-run timestamp per maintenance task (consumed by the interval gate)
// and the boot counter. Fault records deliberately live elsewhere, as flat
// files, because their naming is an external on-disk contract.
type Store struct {
	db *bolt.DB
}

// Open opens (or creates) the state database at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketTimers, bucketCounters} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// LastRun returns the recorded last-run time for a maintenance task, or the
// zero time when the task has never run.
func (s *Store) LastRun(task string) (time.Time, error) {
	var last time.Time
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketTimers).Get([]byte(task))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &last)
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("read last run for %s: %w", task, err)
	}
	return last, nil
}

// SetLastRun records t as the last-run time for a maintenance task.
func (s *Store) SetLastRun(task string, t time.Time) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketTimers).Put([]byte(task), data)
	})
}

// IncrementBoot bumps the boot counter and returns the new value.
func (s *Store) IncrementBoot() (uint64, error) {
	var boots uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCounters)
		if data := b.Get(keyBoots); data != nil {
			parsed, err := strconv.ParseUint(string(data), 10, 64)
			if err != nil {
				return fmt.Errorf("parse boot counter: %w", err)
			}
			boots = parsed
		}
		boots++
		return b.Put(keyBoots, []byte(strconv.FormatUint(boots, 10)))
	})
	if err != nil {
		return 0, err
	}
	return boots, nil
}

package resource

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	headerBucket = "header"
	quadsBucket  = "quads"
)

// boltStore wraps a bbolt database file holding one resource's materialized
// cache: a header bucket with a single entry describing the resource, and a
// quads bucket with one N-Quads line per distinct quad identity.
type boltStore struct {
	db *bolt.DB
}

func openBoltStore(path string) (*boltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("resource: open cache %s: %w", path, err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(headerBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists([]byte(quadsBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("resource: init cache buckets: %w", err)
	}
	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

func (s *boltStore) putHeader(h cacheHeader) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("resource: marshal header: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(headerBucket)).Put([]byte("."), data)
	})
}

func (s *boltStore) getHeader() (cacheHeader, bool, error) {
	var h cacheHeader
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(headerBucket)).Get([]byte("."))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &h)
	})
	return h, found, err
}

func (s *boltStore) putQuadLine(id, line string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(quadsBucket)).Put([]byte(id), []byte(line))
	})
}

func (s *boltStore) forEachQuadLine(fn func(id, line string) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(quadsBucket)).ForEach(func(k, v []byte) error {
			return fn(string(k), string(v))
		})
	})
}

// cacheHeader is the small, frequently-read summary stored alongside the
// full quad set so `list` never needs to open and decode every quad line.
type cacheHeader struct {
	ID               string    `json:"id"`
	InteractionModel string    `json:"interactionModel"`
	Created          time.Time `json:"created"`
	Modified         time.Time `json:"modified"`
}

package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const sessionBucket = "sessions"

// boltStore implements Store backed by a bbolt database file.
type boltStore struct {
	db *bolt.DB
}

func openBolt(path string) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create session directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(sessionBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("create session bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

func (s *boltStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// sessionKey normalizes a server URL so trailing slashes do not split
// sessions for the same server across two keys.
func sessionKey(serverURL string) []byte {
	return []byte(strings.TrimRight(strings.TrimSpace(serverURL), "/"))
}

func (s *boltStore) Load(serverURL string) (*Record, error) {
	var rec *Record
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		if b == nil {
			return fmt.Errorf("session bucket missing")
		}
		value := b.Get(sessionKey(serverURL))
		if value == nil {
			return nil
		}
		var r Record
		if err := json.Unmarshal(value, &r); err != nil {
			return fmt.Errorf("decode session record: %w", err)
		}
		rec = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *boltStore) Save(serverURL string, rec Record) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode session record: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		if b == nil {
			return fmt.Errorf("session bucket missing")
		}
		return b.Put(sessionKey(serverURL), value)
	})
}

func (s *boltStore) Delete(serverURL string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(sessionBucket))
		if b == nil {
			return fmt.Errorf("session bucket missing")
		}
		return b.Delete(sessionKey(serverURL))
	})
}

package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

const secretBucket = "secrets"

// boltStore implements a Store backed by BoltDB.
type boltStore struct {
	db *bolt.DB
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string) (*boltStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create secret store directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(secretBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	return &boltStore{db: db}, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Secret returns the stored secret, or "" when appID is unknown.
func (b *boltStore) Secret(appID string) (string, error) {
	if b == nil || b.db == nil {
		return "", nil
	}

	var secret string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(secretBucket))
		if bucket == nil {
			return fmt.Errorf("secret bucket missing")
		}
		if v := bucket.Get([]byte(strings.TrimSpace(appID))); v != nil {
			secret = string(v)
		}
		return nil
	})
	return secret, err
}

// Put stores or replaces the secret for appID.
func (b *boltStore) Put(appID, secret string) error {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return fmt.Errorf("appid is empty")
	}
	if secret == "" {
		return fmt.Errorf("secret for %s is empty", appID)
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(secretBucket))
		if bucket == nil {
			return fmt.Errorf("secret bucket missing")
		}
		return bucket.Put([]byte(appID), []byte(secret))
	})
}

// Delete removes appID; deleting an unknown appID is not an error.
func (b *boltStore) Delete(appID string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(secretBucket))
		if bucket == nil {
			return fmt.Errorf("secret bucket missing")
		}
		return bucket.Delete([]byte(strings.TrimSpace(appID)))
	})
}

// AppIDs lists stored application ids in key order.
func (b *boltStore) AppIDs() ([]string, error) {
	var ids []string
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(secretBucket))
		if bucket == nil {
			return fmt.Errorf("secret bucket missing")
		}
		return bucket.ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	return ids, err
}

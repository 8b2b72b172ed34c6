// Package store persists webshare session tokens between CLI runs.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"wsfetch/internal"
)

const (
	sessionsBucket = "sessions"
	metadataBucket = "metadata"
	schemaVersion  = 1
)

// ErrEmptyAccount is returned when a token is stored or looked up without an account name
var ErrEmptyAccount = errors.New("account cannot be empty")

// tokenRecord is the value stored per account
type tokenRecord struct {
	Account string    `json:"account"`
	Token   string    `json:"token"`
	SavedAt time.Time `json:"saved_at"`
}

// BboltTokenStore implements internal.TokenStore on a bbolt file
type BboltTokenStore struct {
	db *bbolt.DB
}

var _ internal.TokenStore = (*BboltTokenStore)(nil)

// NewBboltTokenStore opens (creating if needed) the token database at dbPath
func NewBboltTokenStore(dbPath string) (*BboltTokenStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}

	s := &BboltTokenStore{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *BboltTokenStore) initialize() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(sessionsBucket)); err != nil {
			return fmt.Errorf("failed to create sessions bucket: %w", err)
		}

		meta, err := tx.CreateBucketIfNotExists([]byte(metadataBucket))
		if err != nil {
			return fmt.Errorf("failed to create metadata bucket: %w", err)
		}

		if err := meta.Put([]byte("schema_version"), []byte(fmt.Sprintf("%d", schemaVersion))); err != nil {
			return fmt.Errorf("failed to store schema version: %w", err)
		}
		return nil
	})
}

func accountKey(account string) ([]byte, error) {
	account = strings.ToLower(strings.TrimSpace(account))
	if account == "" {
		return nil, ErrEmptyAccount
	}
	return []byte(account), nil
}

// LoadToken returns the saved token of account; ok is false when none is stored
func (s *BboltTokenStore) LoadToken(account string) (token string, ok bool, err error) {
	key, err := accountKey(account)
	if err != nil {
		return "", false, err
	}

	var record tokenRecord
	err = s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", sessionsBucket)
		}

		data := bucket.Get(key)
		if data == nil {
			return nil
		}
		ok = true
		if err := json.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("failed to unmarshal token record: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}
	if !ok || record.Token == "" {
		return "", false, nil
	}

	return record.Token, true, nil
}

// SaveToken stores token for account, replacing any previous one
func (s *BboltTokenStore) SaveToken(account, token string) error {
	key, err := accountKey(account)
	if err != nil {
		return err
	}
	if token == "" {
		return internal.NewValidationError("token", "cannot save an empty token")
	}

	data, err := json.Marshal(tokenRecord{Account: string(key), Token: token, SavedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal token record: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", sessionsBucket)
		}
		if err := bucket.Put(key, data); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		return nil
	})
}

// DeleteToken forgets the token of account. Deleting a missing entry is not an error.
func (s *BboltTokenStore) DeleteToken(account string) error {
	key, err := accountKey(account)
	if err != nil {
		return err
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", sessionsBucket)
		}
		return bucket.Delete(key)
	})
}

// Accounts lists the accounts with a stored token
func (s *BboltTokenStore) Accounts() ([]string, error) {
	var accounts []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(sessionsBucket))
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", sessionsBucket)
		}
		return bucket.ForEach(func(k, _ []byte) error {
			accounts = append(accounts, string(k))
			return nil
		})
	})
	return accounts, err
}

// Close releases the database file lock
func (s *BboltTokenStore) Close() error {
	return s.db.Close()
}

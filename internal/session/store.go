// Package session persists conversation histories between runs so a
// session id can be resumed later.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/codeforge-ai/codeforge/internal/llm"
)

// ErrNotFound is returned when a session id has no stored history.
var ErrNotFound = errors.New("session not found")

var bucketSessions = []byte("sessions")

// Store persists session histories in a bbolt database.
type Store struct {
	db *bolt.DB
}

type record struct {
	History   []llm.ChatMessage `json:"history"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketSessions)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init session store: %w", err)
	}

	return &Store{db: db}, nil
}

// Save writes a session's history, replacing any previous value.
func (s *Store) Save(sessionID string, history []llm.ChatMessage) error {
	if sessionID == "" {
		return errors.New("session id is required")
	}

	data, err := json.Marshal(record{History: history, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Put([]byte(sessionID), data)
	})
}

// Load returns a session's stored history.
func (s *Store) Load(sessionID string) ([]llm.ChatMessage, error) {
	var rec record
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketSessions).Get([]byte(sessionID))
		if data == nil {
			return ErrNotFound
		}
		return json.Unmarshal(data, &rec)
	})
	if err != nil {
		return nil, err
	}
	return rec.History, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (s *Store) Delete(sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).Delete([]byte(sessionID))
	})
}

// List returns all stored session ids.
func (s *Store) List() ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketSessions).ForEach(func(k, _ []byte) error {
			ids = append(ids, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

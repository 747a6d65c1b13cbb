package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// sessionItem is a stored session blob with its expiration
type sessionItem struct {
	Value      []byte    `json:"value"`
	Expiration time.Time `json:"expiration,omitempty"`
}

func (i sessionItem) expired(now time.Time) bool {
	return !i.Expiration.IsZero() && now.After(i.Expiration)
}

// SessionStorage implements fiber.Storage on top of a bolt bucket
type SessionStorage struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewSessionStorage opens the bolt file at dbPath for session data
func NewSessionStorage(dbPath string) (*SessionStorage, error) {
	db, err := InitDB(dbPath)
	if err != nil {
		return nil, err
	}
	return &SessionStorage{db: db, now: time.Now}, nil
}

// Get returns the stored value or nil when the key is missing or expired
func (s *SessionStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	var item *sessionItem
	err := s.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket([]byte(sessionsBucket)).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var it sessionItem
		if err := json.Unmarshal(raw, &it); err != nil {
			return fmt.Errorf("failed to decode session %s: %w", key, err)
		}
		item = &it
		return nil
	})
	if err != nil || item == nil {
		return nil, err
	}

	if item.expired(s.now()) {
		return nil, s.Delete(key)
	}
	return item.Value, nil
}

// Set stores val under key; exp of zero means no expiration
func (s *SessionStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}

	item := sessionItem{Value: val}
	if exp > 0 {
		item.Expiration = s.now().Add(exp)
	}
	raw, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to encode session %s: %w", key, err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionsBucket)).Put([]byte(key), raw)
	})
}

// Delete removes key
func (s *SessionStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(sessionsBucket)).Delete([]byte(key))
	})
}

// Reset drops every session
func (s *SessionStorage) Reset() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(sessionsBucket)); err != nil {
			return err
		}
		_, err := tx.CreateBucket([]byte(sessionsBucket))
		return err
	})
}

// Cleanup removes expired sessions and returns how many were dropped
func (s *SessionStorage) Cleanup() (int, error) {
	now := s.now()
	removed := 0
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(sessionsBucket))
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var it sessionItem
			if err := json.Unmarshal(v, &it); err != nil || it.expired(now) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	return removed, err
}

// Close closes the bolt file
func (s *SessionStorage) Close() error {
	return s.db.Close()
}

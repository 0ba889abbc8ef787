// Package session is a cookie-keyed server-side session layer for
// crosshttp apps: a pebble-backed record store, a middleware that parses
// the session cookie and hands the loaded session to later chain entries
// through the request's extension bag, and a cron-scheduled expiry sweep.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"crosshttp/pkg/logger"
)

const keyPrefix = "session:"

// Session is one server-side session record. Values is free-form string
// state mutated by handlers; the middleware persists it after the chain
// returns.
type Session struct {
	ID      string            `json:"id"`
	Values  map[string]string `json:"values,omitempty"`
	Created time.Time         `json:"created"`
	Expires time.Time         `json:"expires"`
}

// Expired reports whether the record's lifetime has passed.
func (s *Session) Expired() bool {
	return !s.Expires.IsZero() && time.Now().After(s.Expires)
}

// Store keeps session records in a Pebble database. One Store per
// process; safe for concurrent use (pebble handles locking).
type Store struct {
	db  *pebble.DB
	ttl time.Duration
}

// Open opens (or creates) the session database at path. ttl is the
// lifetime stamped onto new sessions and refreshed on every save.
func Open(path string, ttl time.Duration) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("session_db_open_failed", "path", path, "error", err)
		return nil, err
	}
	logger.Info("session_db_opened", "path", path, "ttl", ttl.String())
	return &Store{db: db, ttl: ttl}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Ready reports whether the store is open.
func (s *Store) Ready() bool {
	return s.db != nil
}

// TTL returns the configured session lifetime.
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// New returns an unsaved session with a random id and a fresh lifetime.
func (s *Store) New() *Session {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	now := time.Now().UTC()
	return &Session{
		ID:      hex.EncodeToString(buf),
		Values:  make(map[string]string),
		Created: now,
		Expires: now.Add(s.ttl),
	}
}

// Get returns the session stored under id, or nil when absent or
// already expired (expired records are deleted on the way out).
func (s *Store) Get(id string) (*Session, error) {
	if s.db == nil {
		return nil, fmt.Errorf("session store not opened; call session.Open first")
	}
	val, closer, err := s.db.Get([]byte(keyPrefix + id))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sess Session
	uerr := json.Unmarshal(val, &sess)
	_ = closer.Close()
	if uerr != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, uerr)
	}
	if sess.Expired() {
		_ = s.Delete(id)
		return nil, nil
	}
	return &sess, nil
}

// Put saves sess, extending its lifetime by the store TTL.
func (s *Store) Put(sess *Session) error {
	if s.db == nil {
		return fmt.Errorf("session store not opened; call session.Open first")
	}
	sess.Expires = time.Now().UTC().Add(s.ttl)
	return s.putRaw(sess)
}

// putRaw saves sess as-is, without touching its lifetime.
func (s *Store) putRaw(sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.db.Set([]byte(keyPrefix+sess.ID), data, pebble.Sync)
}

// Delete removes the session stored under id.
func (s *Store) Delete(id string) error {
	if s.db == nil {
		return fmt.Errorf("session store not opened; call session.Open first")
	}
	return s.db.Delete([]byte(keyPrefix+id), pebble.Sync)
}

// SweepExpired scans all session records and deletes the expired ones,
// returning how many were removed.
func (s *Store) SweepExpired() (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("session store not opened; call session.Open first")
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyPrefix + "\xff"),
	})
	if err != nil {
		return 0, err
	}
	var stale [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var sess Session
		if err := json.Unmarshal(iter.Value(), &sess); err != nil {
			// undecodable record: treat as garbage and collect it
			stale = append(stale, append([]byte(nil), iter.Key()...))
			continue
		}
		if sess.Expired() {
			stale = append(stale, append([]byte(nil), iter.Key()...))
		}
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}
	for _, k := range stale {
		if err := s.db.Delete(k, pebble.Sync); err != nil {
			return 0, err
		}
	}
	if len(stale) > 0 {
		logger.Info("sessions_swept", "removed", len(stale))
	}
	return len(stale), nil
}

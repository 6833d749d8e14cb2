// Package session keeps the single live [models.Session] in memory and mirrors it to local storage.
package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/mtx/internal/models"
	"github.com/desertthunder/mtx/internal/shared"
)

// StorageKey is the local storage key holding the serialized session.
const StorageKey = "mtrack.session"

// Storage is the key-value backend a [Store] persists to.
//
// [repositories.LocalStorage] implements it on SQLite.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Store caches the current session and mirrors it to [Storage] under [StorageKey].
type Store struct {
	mu      sync.Mutex
	storage Storage
	cached  *models.Session
	logger  *log.Logger
}

// NewStore creates a [Store] over storage. Nothing is read until the first call to [Store.Session].
func NewStore(storage Storage, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{storage: storage, logger: logger}
}

// Session returns a copy of the current session.
//
// When nothing is cached the stored value is loaded and cached. A missing, unreadable or
// undecodable value yields an unauthenticated session; read failures are logged.
func (s *Store) Session() models.Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return *s.cached
	}

	stored, err := s.load()
	if err != nil {
		s.logger.Warn("ignoring stored session", "key", StorageKey, "error", err)
		return models.Unauthenticated()
	}
	if stored == nil {
		return models.Unauthenticated()
	}

	s.cached = stored
	return *stored
}

// Save caches session and writes it to storage. A nil session is rejected and storage is left untouched.
func (s *Store) Save(session *models.Session) error {
	if session == nil {
		return fmt.Errorf("%w: nil session", shared.ErrInvalidSession)
	}

	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.storage.Set(StorageKey, string(data)); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	saved := *session
	s.cached = &saved
	s.logger.Debug("session stored", "user", saved.UserID)
	return nil
}

// End forgets the cached session and removes the stored one.
// It reports whether a session existed in either place.
func (s *Store) End() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existed := s.cached != nil
	s.cached = nil

	if !existed {
		_, ok, err := s.storage.Get(StorageKey)
		if err != nil {
			s.logger.Warn("could not check stored session", "error", err)
		}
		existed = ok
	}

	if err := s.storage.Remove(StorageKey); err != nil {
		return existed, fmt.Errorf("failed to remove session: %w", err)
	}

	s.logger.Debug("session ended", "existed", existed)
	return existed, nil
}

func (s *Store) load() (*models.Session, error) {
	value, ok, err := s.storage.Get(StorageKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var session models.Session
	if err := json.Unmarshal([]byte(value), &session); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	}
	return &session, nil
}

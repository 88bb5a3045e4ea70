// Package tokenstore persists the access/refresh token pair.
//
// A Store never reports storage failures to its caller. Corrupt stored data
// is cleared and the backend kept. Any other failing backend call swaps the
// backend for memory, so the session keeps working for the rest of the
// process and is simply not persisted.
package tokenstore

import (
	"errors"
	"sync"

	"github.com/vigilclub/vigil/internal/log"
	"github.com/vigilclub/vigil/pkg/domain"
)

const (
	AccessKey  = "access_token"
	RefreshKey = "refresh_token"
)

// Store reads and writes the credential pair through a Backend.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	degraded bool
	logger   *log.Logger
}

// New wraps backend. A nil logger discards warnings.
func New(backend Backend, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Nop()
	}
	return &Store{backend: backend, logger: logger.With("component", "tokenstore")}
}

// Save writes both tokens.
func (s *Store) Save(t domain.Tokens) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Set(AccessKey, t.Access); err != nil {
		s.degrade(err)
		s.backend.Set(AccessKey, t.Access) //nolint:errcheck // memory backend
	}
	if err := s.backend.Set(RefreshKey, t.Refresh); err != nil {
		s.degrade(err)
		s.backend.Set(AccessKey, t.Access)   //nolint:errcheck // memory backend
		s.backend.Set(RefreshKey, t.Refresh) //nolint:errcheck // memory backend
	}
}

// Load returns the stored pair; both fields are empty when nothing is stored.
func (s *Store) Load() domain.Tokens {
	s.mu.Lock()
	defer s.mu.Unlock()
	access, _, err := s.backend.Get(AccessKey)
	if err == nil {
		var refresh string
		refresh, _, err = s.backend.Get(RefreshKey)
		if err == nil {
			return domain.Tokens{Access: access, Refresh: refresh}
		}
	}
	if errors.Is(err, ErrCorrupt) {
		s.logger.WithError(err).Warn("discarding unreadable credentials")
		s.clearLocked()
		return domain.Tokens{}
	}
	s.degrade(err)
	return domain.Tokens{}
}

// Clear removes both tokens.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
}

func (s *Store) clearLocked() {
	err := s.backend.Remove(AccessKey)
	if err == nil {
		err = s.backend.Remove(RefreshKey)
	}
	if err != nil {
		s.degrade(err)
	}
}

// Degraded reports whether the store fell back to memory.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// degrade must be called with s.mu held.
func (s *Store) degrade(err error) {
	if s.degraded {
		return
	}
	s.degraded = true
	s.backend = NewMemoryBackend()
	s.logger.WithError(err).Warn("credential storage unavailable, session will not survive restart")
}

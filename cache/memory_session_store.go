package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/mediqr-dev/mediqr/domain"
)

// MemorySessionStore implements SessionStore for single-instance deployments
// using ttlcache. Entries carry a TTL matching the session's expiry so stale
// rows are eventually evicted, but every read still re-checks ExpiresAt:
// lazy expiry must hold even between eviction runs.
type MemorySessionStore struct {
	cache *ttlcache.Cache[string, *domain.Session]
}

// NewMemorySessionStore creates a new in-memory session store with automatic
// cleanup of expired rows.
func NewMemorySessionStore() *MemorySessionStore {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, *domain.Session](),
	)

	go cache.Start()

	return &MemorySessionStore{cache: cache}
}

// Save implements SessionStore.Save.
func (s *MemorySessionStore) Save(_ context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		// Already expired rows are never observable; don't store them.
		return nil
	}
	s.cache.Set(session.ID, session, ttl)
	return nil
}

// Get implements SessionStore.Get.
func (s *MemorySessionStore) Get(_ context.Context, sessionID string) (*domain.Session, error) {
	item := s.cache.Get(sessionID)
	if item == nil {
		return nil, domain.ErrSessionNotFound
	}

	session := item.Value()
	if !session.ActiveAt(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}

	return session, nil
}

// FindActiveByPatient implements SessionStore.FindActiveByPatient. It scans
// all live entries; ties cannot occur as long as callers uphold the
// one-active-session invariant.
func (s *MemorySessionStore) FindActiveByPatient(_ context.Context, patientID string) (*domain.Session, error) {
	now := time.Now()

	var found *domain.Session
	s.cache.Range(func(item *ttlcache.Item[string, *domain.Session]) bool {
		session := item.Value()
		if session.PatientID == patientID && session.ActiveAt(now) {
			found = session
			return false
		}
		return true
	})

	return found, nil
}

// Delete implements SessionStore.Delete.
func (s *MemorySessionStore) Delete(_ context.Context, sessionID string) (bool, error) {
	if s.cache.Get(sessionID) == nil {
		return false, nil
	}
	s.cache.Delete(sessionID)
	return true, nil
}

// Count implements SessionStore.Count.
func (s *MemorySessionStore) Count(_ context.Context) int {
	return s.cache.Len()
}

// Close stops the cleanup goroutine.
func (s *MemorySessionStore) Close() error {
	s.cache.Stop()
	return nil
}

var _ SessionStore = (*MemorySessionStore)(nil)

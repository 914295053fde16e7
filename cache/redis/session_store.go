package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mediqr-dev/mediqr/cache"
	"github.com/mediqr-dev/mediqr/domain"
)

// SessionStore implements cache.SessionStore backed by Redis, for
// multi-instance deployments. Sessions are stored as JSON under a session
// key; a second per-patient key is claimed with SET NX so that two instances
// racing to create a session for the same patient cannot both succeed.
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore creates a new Redis-backed session store.
func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix}
}

func (r *SessionStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, sessionID)
}

func (r *SessionStore) patientKey(patientID string) string {
	return fmt.Sprintf("%s:patient:%s", r.prefix, patientID)
}

// Save stores the session and atomically claims the patient index key.
// Returns domain.ErrSessionConflict when another live session already holds
// the patient's claim; this is the storage-level compare-and-set that keeps
// the one-active-session invariant under concurrent instances.
func (r *SessionStore) Save(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return nil
	}

	ok, err := r.client.SetNX(ctx, r.patientKey(session.PatientID), session.ID, ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to claim patient session key: %w", err)
	}
	if !ok {
		// The claim may belong to this very session (overwrite-by-id case).
		current, getErr := r.client.Get(ctx, r.patientKey(session.PatientID)).Result()
		if getErr != nil && !errors.Is(getErr, redis.Nil) {
			return fmt.Errorf("failed to read patient session key: %w", getErr)
		}
		if current != session.ID {
			return domain.ErrSessionConflict
		}
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.sessionKey(session.ID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session in redis: %w", err)
	}

	return nil
}

// Get implements cache.SessionStore.Get. Redis TTLs evict expired rows, but
// ExpiresAt is still re-checked to keep expiry semantics exact.
func (r *SessionStore) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	payload, err := r.client.Get(ctx, r.sessionKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session from redis: %w", err)
	}

	var session domain.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	if !session.ActiveAt(time.Now()) {
		return nil, domain.ErrSessionNotFound
	}

	return &session, nil
}

// FindActiveByPatient resolves the patient index key, then loads the session
// it points at.
func (r *SessionStore) FindActiveByPatient(ctx context.Context, patientID string) (*domain.Session, error) {
	sessionID, err := r.client.Get(ctx, r.patientKey(patientID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read patient session key: %w", err)
	}

	session, err := r.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return session, nil
}

// Delete removes the session and releases the patient claim when it still
// points at this session.
func (r *SessionStore) Delete(ctx context.Context, sessionID string) (bool, error) {
	session, err := r.Get(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionNotFound) {
		// The row may still exist physically but be expired; delete anyway.
		removed, delErr := r.client.Del(ctx, r.sessionKey(sessionID)).Result()
		if delErr != nil {
			return false, fmt.Errorf("failed to delete session from redis: %w", delErr)
		}
		return removed > 0, nil
	}
	if err != nil {
		return false, err
	}

	removed, err := r.client.Del(ctx, r.sessionKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to delete session from redis: %w", err)
	}

	current, err := r.client.Get(ctx, r.patientKey(session.PatientID)).Result()
	if err == nil && current == sessionID {
		if err := r.client.Del(ctx, r.patientKey(session.PatientID)).Err(); err != nil {
			return false, fmt.Errorf("failed to release patient session key: %w", err)
		}
	} else if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("failed to read patient session key: %w", err)
	}

	return removed > 0, nil
}

// Count returns the number of live session keys. Linear in keyspace; only
// used for metrics.
func (r *SessionStore) Count(ctx context.Context) int {
	var count int
	iter := r.client.Scan(ctx, 0, fmt.Sprintf("%s:session:*", r.prefix), 0).Iterator()
	for iter.Next(ctx) {
		count++
	}
	return count
}

// Close is a no-op; the redis client is owned by the caller.
func (r *SessionStore) Close() error { return nil }

var _ cache.SessionStore = (*SessionStore)(nil)

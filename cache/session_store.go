package cache

import (
	"context"

	"github.com/mediqr-dev/mediqr/domain"
)

// SessionStore is the authoritative record of currently active sharing
// sessions and the single source of truth for revocation. Rows are not
// proactively swept: every read treats a row past its expiry as absent, so
// correctness never depends on eviction timing.
//
// Save performs no uniqueness check on the patient id; the one-active-
// session-per-patient invariant is enforced by the session service (and,
// for the Redis implementation, additionally by an atomic claim on a
// per-patient key so the invariant survives concurrent instances).
type SessionStore interface {
	// Save inserts or overwrites the session keyed by its ID.
	Save(ctx context.Context, session *domain.Session) error
	// Get returns the session, or domain.ErrSessionNotFound when it does not
	// exist or has lazily expired.
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	// FindActiveByPatient returns the patient's active session, or nil when
	// there is none.
	FindActiveByPatient(ctx context.Context, patientID string) (*domain.Session, error)
	// Delete removes the session and reports whether a row was removed.
	Delete(ctx context.Context, sessionID string) (bool, error)
	// Count returns the number of live rows, for metrics.
	Count(ctx context.Context) int
	// Close releases any background resources held by the store.
	Close() error
}

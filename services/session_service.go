package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mediqr-dev/mediqr/cache"
	"github.com/mediqr-dev/mediqr/domain"
	"github.com/mediqr-dev/mediqr/internal/metrics"
)

// ConflictPolicy selects what CreateSession does when the patient already
// has an active session. Exactly one policy is in effect for the whole
// deployment, chosen in configuration.
type ConflictPolicy string

const (
	// ConflictReject refuses the new session with domain.ErrSessionConflict.
	ConflictReject ConflictPolicy = "reject"
	// ConflictReplace deletes the existing session and proceeds.
	ConflictReplace ConflictPolicy = "replace"
)

// Valid reports whether p is a known policy.
func (p ConflictPolicy) Valid() bool {
	return p == ConflictReject || p == ConflictReplace
}

// CreateSessionInput carries the request to mint a new sharing session.
type CreateSessionInput struct {
	PatientID       string
	AccessType      domain.AccessType
	DurationMinutes int
	SharedDocIDs    []string
}

// CreatedSession bundles the server-side row with the client-presentable
// token. The HTTP layer flattens it into a single response object.
type CreatedSession struct {
	Session *domain.Session
	Token   string
}

// SessionService is the only writer allowed to create sessions. It couples
// the session store with the token codec and owns the one-active-session-
// per-patient policy.
type SessionService struct {
	store          cache.SessionStore
	tokens         *TokenService
	conflictPolicy ConflictPolicy
	now            func() time.Time
}

// NewSessionService creates a new SessionService instance.
func NewSessionService(store cache.SessionStore, tokens *TokenService, policy ConflictPolicy) *SessionService {
	if !policy.Valid() {
		policy = ConflictReject
	}
	return &SessionService{
		store:          store,
		tokens:         tokens,
		conflictPolicy: policy,
		now:            time.Now,
	}
}

// CreateSession mints a new session for the patient: generates the id,
// enforces the conflict policy, persists the row and signs a token whose
// expiry derives from the same duration as the row's.
func (s *SessionService) CreateSession(ctx context.Context, in CreateSessionInput) (*CreatedSession, error) {
	if in.PatientID == "" {
		return nil, fmt.Errorf("%w: patientId is required", domain.ErrInvalidInput)
	}
	if !in.AccessType.Valid() {
		return nil, fmt.Errorf("%w: accessType must be %q or %q", domain.ErrInvalidInput,
			domain.AccessTypeView, domain.AccessTypeWrite)
	}
	if in.DurationMinutes <= 0 {
		return nil, fmt.Errorf("%w: durationMinutes must be positive", domain.ErrInvalidInput)
	}

	existing, err := s.store.FindActiveByPatient(ctx, in.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to check for active session: %w", err)
	}
	if existing != nil {
		switch s.conflictPolicy {
		case ConflictReplace:
			if _, err := s.store.Delete(ctx, existing.ID); err != nil {
				return nil, fmt.Errorf("failed to replace active session: %w", err)
			}
			log.Info().
				Str("patient_id", in.PatientID).
				Str("replaced_session_id", existing.ID).
				Msg("replaced active session")
		default:
			metrics.SessionConflictsTotal.Inc()
			return nil, domain.ErrSessionConflict
		}
	}

	now := s.now()
	duration := time.Duration(in.DurationMinutes) * time.Minute
	session := &domain.Session{
		ID:              uuid.NewString(),
		PatientID:       in.PatientID,
		AccessType:      in.AccessType,
		CreatedAt:       now,
		ExpiresAt:       now.Add(duration),
		DurationMinutes: in.DurationMinutes,
		SharedDocIDs:    in.SharedDocIDs,
	}

	if err := s.store.Save(ctx, session); err != nil {
		if errors.Is(err, domain.ErrSessionConflict) {
			metrics.SessionConflictsTotal.Inc()
			return nil, domain.ErrSessionConflict
		}
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.tokens.IssueSessionToken(session, duration)
	if err != nil {
		// Never leave a store row without a corresponding token.
		if _, delErr := s.store.Delete(ctx, session.ID); delErr != nil {
			log.Error().Err(delErr).Str("session_id", session.ID).
				Msg("failed to roll back session after signing failure")
		}
		return nil, err
	}

	metrics.SessionsCreatedTotal.Inc()
	metrics.ActiveSessionsGauge.Set(float64(s.store.Count(ctx)))
	log.Info().
		Str("session_id", session.ID).
		Str("patient_id", session.PatientID).
		Str("access_type", string(session.AccessType)).
		Int("duration_minutes", session.DurationMinutes).
		Msg("session created")

	return &CreatedSession{Session: session, Token: token}, nil
}

// ValidateToken verifies a scanned token and confirms the server-side row
// still exists. A signature-valid token whose row is gone means the session
// was revoked: the caller gets domain.ErrSessionNotFound, not a token error.
func (s *SessionService) ValidateToken(ctx context.Context, tokenString string) (*domain.Session, error) {
	claims, err := s.tokens.VerifySessionToken(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := s.store.Get(ctx, claims.SessionID)
	if err != nil {
		return nil, err
	}

	metrics.SessionsValidatedTotal.Inc()
	return session, nil
}

// GetSession returns the session or domain.ErrSessionNotFound, treating
// expired rows as absent.
func (s *SessionService) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.store.Get(ctx, sessionID)
}

// EndSession deletes a session. An authenticated patient may only end their
// own session; doctors may end any session they hold; an unauthenticated
// caller (the patient device after its auth lapsed) is allowed, since
// holding the session id is itself the capability here.
func (s *SessionService) EndSession(ctx context.Context, sessionID string, caller *domain.Identity) error {
	session, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}

	if caller.IsPatient() && caller.UserID != session.PatientID {
		return fmt.Errorf("%w: session belongs to another patient", domain.ErrForbidden)
	}

	removed, err := s.store.Delete(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if !removed {
		return domain.ErrSessionNotFound
	}

	metrics.ActiveSessionsGauge.Set(float64(s.store.Count(ctx)))
	log.Info().
		Str("session_id", sessionID).
		Str("patient_id", session.PatientID).
		Msg("session ended")

	return nil
}

// Resolve is the access-mediation entry point for document handlers: given a
// session id it returns the live grant or domain.ErrSessionNotFound. Write
// gating and allow-list scoping are applied by the document service against
// the returned session.
func (s *SessionService) Resolve(ctx context.Context, sessionID string) (*domain.Session, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: sessionId is required", domain.ErrInvalidInput)
	}
	return s.store.Get(ctx, sessionID)
}

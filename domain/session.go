package domain

import "time"

// AccessType defines the grant level of a sharing session.
type AccessType string

const (
	// AccessTypeView permits read-only document listing under a session.
	AccessTypeView AccessType = "view"
	// AccessTypeWrite additionally permits document upload under a session.
	AccessTypeWrite AccessType = "write"
)

// Valid reports whether t is one of the known access types.
func (t AccessType) Valid() bool {
	return t == AccessTypeView || t == AccessTypeWrite
}

// Session represents a time-bounded grant of access to one patient's
// documents. A session is immutable once created: it is either deleted
// explicitly, or treated as absent once ExpiresAt has passed (lazy expiry,
// enforced at every read path).
type Session struct {
	ID              string     `json:"sessionId"`
	PatientID       string     `json:"patientId"`
	AccessType      AccessType `json:"accessType"`
	CreatedAt       time.Time  `json:"createdAt"`
	ExpiresAt       time.Time  `json:"expiresAt"`
	DurationMinutes int        `json:"durationMinutes"`
	// SharedDocIDs, when non-empty, restricts read access to exactly this
	// set of documents instead of all of the patient's documents.
	SharedDocIDs []string `json:"sharedDocIds,omitempty"`
}

// ActiveAt reports whether the session is still valid at the given instant.
// Expiry is inclusive: the session is already dead at exactly ExpiresAt.
func (s *Session) ActiveAt(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// CanWrite reports whether uploads are permitted under this session.
func (s *Session) CanWrite() bool {
	return s.AccessType == AccessTypeWrite
}

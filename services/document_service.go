package services

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mediqr-dev/mediqr/domain"
	"github.com/mediqr-dev/mediqr/internal/metrics"
)

var dataURLPattern = regexp.MustCompile(`^data:[\w/+.-]+;base64,`)

// UploadInput carries a document upload. Files reach the service already
// encoded as a data URL; the HTTP layer handles multipart decoding.
type UploadInput struct {
	DataURL      string
	Type         string
	UploaderName string
	// PatientID is the client-supplied owner, only honored on the
	// anonymous-write path when no authenticated patient identity is present.
	PatientID string
}

// DocumentService enforces the access rules between sessions, identities and
// documents. Session-gated operations resolve the grant through the session
// service; identity-gated operations check role and ownership directly.
type DocumentService struct {
	docs     domain.DocumentRepository
	sessions *SessionService
}

// NewDocumentService creates a new DocumentService instance.
func NewDocumentService(docs domain.DocumentRepository, sessions *SessionService) *DocumentService {
	return &DocumentService{docs: docs, sessions: sessions}
}

// UploadUnderSession stores a document uploaded through a session (the
// clinician path). The session grants permission only; ownership is always
// the session's patient, never the uploader.
func (s *DocumentService) UploadUnderSession(ctx context.Context, sessionID string, in UploadInput, caller *domain.Identity) (*domain.Document, error) {
	if err := validateDataURL(in.DataURL); err != nil {
		return nil, err
	}

	session, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !session.CanWrite() {
		return nil, fmt.Errorf("%w: session does not allow uploads", domain.ErrForbidden)
	}

	uploaderName := in.UploaderName
	uploaderRole := string(domain.RoleDoctor)
	if caller != nil {
		uploaderName = caller.Name
		uploaderRole = string(caller.Role)
	}

	doc := &domain.Document{
		PatientID:      session.PatientID,
		URL:            in.DataURL,
		Type:           domain.NormalizeDocumentType(in.Type),
		UploadedByName: uploaderName,
		UploadedByRole: uploaderRole,
	}
	if err := s.create(ctx, doc); err != nil {
		return nil, err
	}

	log.Info().
		Str("document_id", doc.ID).
		Str("session_id", sessionID).
		Str("patient_id", doc.PatientID).
		Msg("document uploaded under session")

	return doc, nil
}

// UploadByPatient stores a document uploaded directly by a patient device.
// An authenticated patient identity always wins as owner; otherwise the
// client-supplied patient id is honored as the anonymous-write trust tier
// (merged into an account later via the guest-merge step on signup/login).
func (s *DocumentService) UploadByPatient(ctx context.Context, in UploadInput, caller *domain.Identity) (*domain.Document, error) {
	if err := validateDataURL(in.DataURL); err != nil {
		return nil, err
	}

	patientID := in.PatientID
	uploaderName := in.UploaderName
	if caller.IsPatient() {
		patientID = caller.UserID
		uploaderName = caller.Name
	}
	if patientID == "" {
		return nil, fmt.Errorf("%w: patientId is required", domain.ErrInvalidInput)
	}

	doc := &domain.Document{
		PatientID:      patientID,
		URL:            in.DataURL,
		Type:           domain.NormalizeDocumentType(in.Type),
		UploadedByName: uploaderName,
		UploadedByRole: string(domain.RolePatient),
	}
	if err := s.create(ctx, doc); err != nil {
		return nil, err
	}

	log.Info().
		Str("document_id", doc.ID).
		Str("patient_id", doc.PatientID).
		Bool("authenticated", caller != nil).
		Msg("document uploaded by patient")

	return doc, nil
}

// ListBySession returns the documents visible under a session. When the
// session carries an explicit allow-list, results are restricted to that
// set and still filtered by owner, so a mislisted foreign document never
// leaks through.
func (s *DocumentService) ListBySession(ctx context.Context, sessionID string) ([]*domain.Document, error) {
	session, err := s.sessions.Resolve(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(session.SharedDocIDs) > 0 {
		docs, err := s.docs.ListByIDs(ctx, session.SharedDocIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to list shared documents: %w", err)
		}
		owned := make([]*domain.Document, 0, len(docs))
		for _, doc := range docs {
			if doc.PatientID == session.PatientID {
				owned = append(owned, doc)
			}
		}
		return owned, nil
	}

	docs, err := s.docs.ListByPatient(ctx, session.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// ListByPatient returns all documents owned by a patient (dashboard path).
func (s *DocumentService) ListByPatient(ctx context.Context, patientID string) ([]*domain.Document, error) {
	if patientID == "" {
		return nil, fmt.Errorf("%w: patientId is required", domain.ErrInvalidInput)
	}
	docs, err := s.docs.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// Delete removes a document. Only the owning patient may delete; doctors are
// never permitted to delete, by policy.
func (s *DocumentService) Delete(ctx context.Context, documentID string, caller *domain.Identity) error {
	if documentID == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}

	doc, err := s.docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}

	if caller == nil {
		return domain.ErrUnauthenticated
	}
	if caller.Role != domain.RolePatient {
		return fmt.Errorf("%w: insufficient role", domain.ErrForbidden)
	}
	if caller.UserID != doc.PatientID {
		return fmt.Errorf("%w: cannot delete another patient's document", domain.ErrForbidden)
	}

	if err := s.docs.Delete(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	log.Info().
		Str("document_id", documentID).
		Str("patient_id", doc.PatientID).
		Msg("document deleted")

	return nil
}

func (s *DocumentService) create(ctx context.Context, doc *domain.Document) error {
	now := time.Now()
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if err := s.docs.Create(ctx, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	metrics.DocumentsUploadedTotal.Inc()
	return nil
}

func validateDataURL(dataURL string) error {
	if dataURL == "" {
		return fmt.Errorf("%w: missing file", domain.ErrInvalidInput)
	}
	if !dataURLPattern.MatchString(dataURL) {
		return fmt.Errorf("%w: invalid dataUrl", domain.ErrInvalidInput)
	}
	return nil
}

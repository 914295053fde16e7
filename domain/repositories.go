package domain

import "context"

// DocumentRepository defines persistence for medical documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *Document) error
	GetByID(ctx context.Context, id string) (*Document, error)
	// ListByPatient returns all documents owned by the patient, newest first.
	ListByPatient(ctx context.Context, patientID string) ([]*Document, error)
	// ListByIDs returns the documents whose ids are in the given set, newest
	// first. Missing ids are silently skipped.
	ListByIDs(ctx context.Context, ids []string) ([]*Document, error)
	// UpdateSummary persists summary, lab results and report date after a
	// summarization run.
	UpdateSummary(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, id string) error
	// ReassignOwner moves every document owned by fromPatientID to
	// toPatientID and returns the number of documents moved. Used by the
	// guest-merge step when an anonymous device signs up or logs in.
	ReassignOwner(ctx context.Context, fromPatientID, toPatientID string) (int64, error)
}

// PatientUpdate is a partial profile update; nil fields are left untouched.
type PatientUpdate struct {
	Name      *string
	Email     *string
	Emergency *EmergencyInfo
}

// PatientRepository defines persistence for patient profiles.
type PatientRepository interface {
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)
	// Upsert creates or updates the profile for the patient id, applying
	// only the fields set in update.
	Upsert(ctx context.Context, patientID string, update PatientUpdate) (*Patient, error)
}

// UserRepository defines persistence for signed-up accounts.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

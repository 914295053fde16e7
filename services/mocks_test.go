package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mediqr-dev/mediqr/domain"
	"github.com/mediqr-dev/mediqr/internal/llm"
)

// fakeDocumentRepo is an in-memory domain.DocumentRepository keeping
// insertion order so list ordering is deterministic in tests.
type fakeDocumentRepo struct {
	docs []*domain.Document

	createErr        error
	updateSummaryErr error
	reassignCalls    []string
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{}
}

func (f *fakeDocumentRepo) Create(_ context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeDocumentRepo) GetByID(_ context.Context, id string) (*domain.Document, error) {
	for _, doc := range f.docs {
		if doc.ID == id {
			return doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeDocumentRepo) ListByPatient(_ context.Context, patientID string) ([]*domain.Document, error) {
	// Newest first, like the Mongo implementation.
	var out []*domain.Document
	for i := len(f.docs) - 1; i >= 0; i-- {
		if f.docs[i].PatientID == patientID {
			out = append(out, f.docs[i])
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) ListByIDs(_ context.Context, ids []string) ([]*domain.Document, error) {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	var out []*domain.Document
	for i := len(f.docs) - 1; i >= 0; i-- {
		if _, ok := want[f.docs[i].ID]; ok {
			out = append(out, f.docs[i])
		}
	}
	return out, nil
}

func (f *fakeDocumentRepo) UpdateSummary(_ context.Context, doc *domain.Document) error {
	if f.updateSummaryErr != nil {
		return f.updateSummaryErr
	}
	for i, existing := range f.docs {
		if existing.ID == doc.ID {
			f.docs[i] = doc
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeDocumentRepo) Delete(_ context.Context, id string) error {
	for i, doc := range f.docs {
		if doc.ID == id {
			f.docs = append(f.docs[:i], f.docs[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeDocumentRepo) ReassignOwner(_ context.Context, fromPatientID, toPatientID string) (int64, error) {
	f.reassignCalls = append(f.reassignCalls, fromPatientID+"->"+toPatientID)
	var moved int64
	for _, doc := range f.docs {
		if doc.PatientID == fromPatientID {
			doc.PatientID = toPatientID
			moved++
		}
	}
	return moved, nil
}

var _ domain.DocumentRepository = (*fakeDocumentRepo)(nil)

type fakePatientRepo struct {
	patients map[string]*domain.Patient
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{patients: make(map[string]*domain.Patient)}
}

func (f *fakePatientRepo) GetByPatientID(_ context.Context, patientID string) (*domain.Patient, error) {
	patient, ok := f.patients[patientID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return patient, nil
}

func (f *fakePatientRepo) Upsert(_ context.Context, patientID string, update domain.PatientUpdate) (*domain.Patient, error) {
	patient, ok := f.patients[patientID]
	if !ok {
		patient = &domain.Patient{PatientID: patientID}
		f.patients[patientID] = patient
	}
	if update.Name != nil {
		patient.Name = *update.Name
	}
	if update.Email != nil {
		patient.Email = *update.Email
	}
	if update.Emergency != nil {
		patient.Emergency = update.Emergency
	}
	return patient, nil
}

var _ domain.PatientRepository = (*fakePatientRepo)(nil)

type fakeUserRepo struct {
	users map[string]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range f.users {
		if existing.Email == user.Email {
			return domain.ErrDuplicateEmail
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, domain.ErrNotFound
}

var _ domain.UserRepository = (*fakeUserRepo)(nil)

// fakeExtractor returns canned OCR text per document URL.
type fakeExtractor struct {
	texts map[string]string
	errs  map[string]error
}

func (f *fakeExtractor) ExtractText(_ context.Context, documentURL string) (string, error) {
	if err, ok := f.errs[documentURL]; ok {
		return "", err
	}
	return f.texts[documentURL], nil
}

// fakeSummarizer echoes a deterministic summary and records aggregate calls.
type fakeSummarizer struct {
	summaryErr        error
	aggregateErr      error
	aggregateSections []llm.Section
}

func (f *fakeSummarizer) GenerateSummary(_ context.Context, text string) (string, error) {
	if f.summaryErr != nil {
		return "", f.summaryErr
	}
	return "summary of: " + text[:min(20, len(text))], nil
}

func (f *fakeSummarizer) GenerateAggregateSummary(_ context.Context, sections []llm.Section) (string, error) {
	if f.aggregateErr != nil {
		return "", f.aggregateErr
	}
	f.aggregateSections = sections
	return fmt.Sprintf("aggregate of %d sections", len(sections)), nil
}

// plaintextHasher avoids bcrypt cost in unit tests.
type plaintextHasher struct{}

func (plaintextHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }

func (plaintextHasher) Verify(hashedPassword, password string) error {
	if hashedPassword != "hashed:"+password {
		return fmt.Errorf("password mismatch")
	}
	return nil
}

package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqr-dev/mediqr/domain"
)

const testDataURL = "data:application/pdf;base64,dGVzdA=="

type documentFixture struct {
	docs     *fakeDocumentRepo
	sessions *SessionService
	svc      *DocumentService
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	docs := newFakeDocumentRepo()
	sessions := newSessionServiceForTest(t, ConflictReject)
	return &documentFixture{
		docs:     docs,
		sessions: sessions,
		svc:      NewDocumentService(docs, sessions),
	}
}

func (f *documentFixture) createSession(t *testing.T, accessType domain.AccessType, sharedDocIDs []string) *domain.Session {
	t.Helper()
	created, err := f.sessions.CreateSession(context.Background(), CreateSessionInput{
		PatientID:       "patient-1",
		AccessType:      accessType,
		DurationMinutes: 30,
		SharedDocIDs:    sharedDocIDs,
	})
	require.NoError(t, err)
	return created.Session
}

func (f *documentFixture) seedDocument(t *testing.T, id, patientID string) *domain.Document {
	t.Helper()
	doc := &domain.Document{ID: id, PatientID: patientID, URL: testDataURL, Type: domain.DocumentTypeLabReport}
	require.NoError(t, f.docs.Create(context.Background(), doc))
	return doc
}

func TestUploadUnderSessionWriteGating(t *testing.T) {
	ctx := context.Background()

	t.Run("write session accepts upload", func(t *testing.T) {
		f := newDocumentFixture(t)
		session := f.createSession(t, domain.AccessTypeWrite, nil)

		doc, err := f.svc.UploadUnderSession(ctx, session.ID, UploadInput{
			DataURL:      testDataURL,
			Type:         "Lab Report",
			UploaderName: "Dr. Chen",
		}, nil)
		require.NoError(t, err)

		// Ownership is the session's patient, never the uploader.
		assert.Equal(t, "patient-1", doc.PatientID)
		assert.Equal(t, "Dr. Chen", doc.UploadedByName)
		assert.Equal(t, string(domain.RoleDoctor), doc.UploadedByRole)
		assert.NotEmpty(t, doc.ID)
		assert.False(t, doc.CreatedAt.IsZero())
	})

	t.Run("view session rejects upload", func(t *testing.T) {
		f := newDocumentFixture(t)
		session := f.createSession(t, domain.AccessTypeView, nil)

		_, err := f.svc.UploadUnderSession(ctx, session.ID, UploadInput{DataURL: testDataURL}, nil)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newDocumentFixture(t)
		_, err := f.svc.UploadUnderSession(ctx, "missing", UploadInput{DataURL: testDataURL}, nil)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("invalid data url", func(t *testing.T) {
		f := newDocumentFixture(t)
		session := f.createSession(t, domain.AccessTypeWrite, nil)

		_, err := f.svc.UploadUnderSession(ctx, session.ID, UploadInput{DataURL: "http://example.com/x.pdf"}, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestUploadByPatientIdentityWins(t *testing.T) {
	ctx := context.Background()

	t.Run("authenticated patient overrides body patientId", func(t *testing.T) {
		f := newDocumentFixture(t)
		caller := &domain.Identity{UserID: "patient-1", Role: domain.RolePatient, Name: "Asha"}

		doc, err := f.svc.UploadByPatient(ctx, UploadInput{
			DataURL:   testDataURL,
			PatientID: "someone-else",
		}, caller)
		require.NoError(t, err)
		assert.Equal(t, "patient-1", doc.PatientID)
		assert.Equal(t, "Asha", doc.UploadedByName)
	})

	t.Run("anonymous upload honors body patientId", func(t *testing.T) {
		f := newDocumentFixture(t)

		doc, err := f.svc.UploadByPatient(ctx, UploadInput{
			DataURL:   testDataURL,
			PatientID: "guest-device-7",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, "guest-device-7", doc.PatientID)
	})

	t.Run("anonymous upload without patientId", func(t *testing.T) {
		f := newDocumentFixture(t)
		_, err := f.svc.UploadByPatient(ctx, UploadInput{DataURL: testDataURL}, nil)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestListBySessionScoping(t *testing.T) {
	ctx := context.Background()

	t.Run("without allow-list returns all patient documents", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.seedDocument(t, "doc-1", "patient-1")
		f.seedDocument(t, "doc-2", "patient-1")
		f.seedDocument(t, "doc-3", "patient-2")
		session := f.createSession(t, domain.AccessTypeView, nil)

		docs, err := f.svc.ListBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		for _, doc := range docs {
			assert.Equal(t, "patient-1", doc.PatientID)
		}
	})

	t.Run("allow-list restricts to shared set", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.seedDocument(t, "doc-1", "patient-1")
		f.seedDocument(t, "doc-2", "patient-1")
		session := f.createSession(t, domain.AccessTypeView, []string{"doc-2"})

		docs, err := f.svc.ListBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "doc-2", docs[0].ID)
	})

	t.Run("foreign document in allow-list never leaks", func(t *testing.T) {
		f := newDocumentFixture(t)
		f.seedDocument(t, "doc-1", "patient-1")
		f.seedDocument(t, "doc-other", "patient-2")
		session := f.createSession(t, domain.AccessTypeView, []string{"doc-1", "doc-other"})

		docs, err := f.svc.ListBySession(ctx, session.ID)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, "doc-1", docs[0].ID)
	})

	t.Run("expired session", func(t *testing.T) {
		f := newDocumentFixture(t)
		_, err := f.svc.ListBySession(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})
}

func TestDeleteDocumentPolicy(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  *domain.Identity
		wantErr error
	}{
		{"owning patient", &domain.Identity{UserID: "patient-1", Role: domain.RolePatient}, nil},
		{"other patient", &domain.Identity{UserID: "patient-2", Role: domain.RolePatient}, domain.ErrForbidden},
		{"doctor never deletes", &domain.Identity{UserID: "doc-1", Role: domain.RoleDoctor}, domain.ErrForbidden},
		{"unauthenticated", nil, domain.ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newDocumentFixture(t)
			f.seedDocument(t, "doc-1", "patient-1")

			err := f.svc.Delete(ctx, "doc-1", tt.caller)
			if tt.wantErr == nil {
				require.NoError(t, err)
				_, err = f.docs.GetByID(ctx, "doc-1")
				assert.ErrorIs(t, err, domain.ErrNotFound)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
				_, getErr := f.docs.GetByID(ctx, "doc-1")
				assert.NoError(t, getErr, "document must survive a rejected delete")
			}
		})
	}

	t.Run("missing document", func(t *testing.T) {
		f := newDocumentFixture(t)
		err := f.svc.Delete(ctx, "missing", &domain.Identity{UserID: "patient-1", Role: domain.RolePatient})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

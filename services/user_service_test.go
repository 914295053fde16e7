package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediqr-dev/mediqr/domain"
)

type userFixture struct {
	users    *fakeUserRepo
	patients *fakePatientRepo
	docs     *fakeDocumentRepo
	tokens   *TokenService
	svc      *UserService
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	f := &userFixture{
		users:    newFakeUserRepo(),
		patients: newFakePatientRepo(),
		docs:     newFakeDocumentRepo(),
		tokens:   NewTokenService([]byte("test-secret"), "mediqr-test"),
	}
	f.svc = NewUserService(f.users, f.patients, f.docs, plaintextHasher{}, f.tokens)
	return f
}

func patientSignup() SignupInput {
	return SignupInput{
		Name:     "Asha Rao",
		Email:    "Asha@Example.com",
		Password: "secret1",
		Role:     domain.RolePatient,
	}
}

func TestSignup(t *testing.T) {
	ctx := context.Background()

	t.Run("patient signup", func(t *testing.T) {
		f := newUserFixture(t)

		result, err := f.svc.Signup(ctx, patientSignup())
		require.NoError(t, err)
		require.NotNil(t, result.User)

		assert.NotEmpty(t, result.User.ID)
		assert.Equal(t, "asha@example.com", result.User.Email, "email is normalized")
		assert.Equal(t, domain.RolePatient, result.User.Role)

		// The auth token decodes back to this account.
		claims, err := f.tokens.VerifyAuthToken(result.Token)
		require.NoError(t, err)
		assert.Equal(t, result.User.ID, claims.UserID)
		assert.Equal(t, domain.RolePatient, claims.Role)

		// A patient profile exists immediately after signup.
		patient, err := f.patients.GetByPatientID(ctx, result.User.ID)
		require.NoError(t, err)
		assert.Equal(t, "Asha Rao", patient.Name)
	})

	t.Run("doctor signup requires license", func(t *testing.T) {
		f := newUserFixture(t)
		in := patientSignup()
		in.Role = domain.RoleDoctor

		_, err := f.svc.Signup(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)

		in.LicenseNumber = "MD-4521"
		in.ClinicName = "City Clinic"
		result, err := f.svc.Signup(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, "MD-4521", result.User.LicenseNumber)

		// No patient profile for doctor accounts.
		_, err = f.patients.GetByPatientID(ctx, result.User.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newUserFixture(t)
		_, err := f.svc.Signup(ctx, patientSignup())
		require.NoError(t, err)

		_, err = f.svc.Signup(ctx, patientSignup())
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	})

	t.Run("validation", func(t *testing.T) {
		f := newUserFixture(t)

		tests := []struct {
			name   string
			mutate func(*SignupInput)
		}{
			{"missing name", func(in *SignupInput) { in.Name = " " }},
			{"bad email", func(in *SignupInput) { in.Email = "not-an-email" }},
			{"short password", func(in *SignupInput) { in.Password = "abc" }},
			{"unknown role", func(in *SignupInput) { in.Role = "admin" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				in := patientSignup()
				tt.mutate(&in)
				_, err := f.svc.Signup(ctx, in)
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			})
		}
	})

	t.Run("guest documents are merged on signup", func(t *testing.T) {
		f := newUserFixture(t)
		require.NoError(t, f.docs.Create(ctx, &domain.Document{ID: "doc-1", PatientID: "guest-device-7"}))
		require.NoError(t, f.docs.Create(ctx, &domain.Document{ID: "doc-2", PatientID: "guest-device-7"}))

		in := patientSignup()
		in.GuestPatientID = "guest-device-7"
		result, err := f.svc.Signup(ctx, in)
		require.NoError(t, err)

		merged, err := f.docs.ListByPatient(ctx, result.User.ID)
		require.NoError(t, err)
		assert.Len(t, merged, 2)

		orphans, err := f.docs.ListByPatient(ctx, "guest-device-7")
		require.NoError(t, err)
		assert.Empty(t, orphans)
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		f := newUserFixture(t)
		signedUp, err := f.svc.Signup(ctx, patientSignup())
		require.NoError(t, err)

		result, err := f.svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "secret1"})
		require.NoError(t, err)
		assert.Equal(t, signedUp.User.ID, result.User.ID)
		assert.NotEmpty(t, result.Token)
	})

	t.Run("wrong password", func(t *testing.T) {
		f := newUserFixture(t)
		_, err := f.svc.Signup(ctx, patientSignup())
		require.NoError(t, err)

		_, err = f.svc.Login(ctx, LoginInput{Email: "asha@example.com", Password: "wrong12"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("unknown email is indistinguishable from wrong password", func(t *testing.T) {
		f := newUserFixture(t)
		_, err := f.svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "secret1"})
		assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	})

	t.Run("guest documents are merged on login", func(t *testing.T) {
		f := newUserFixture(t)
		signedUp, err := f.svc.Signup(ctx, patientSignup())
		require.NoError(t, err)
		require.NoError(t, f.docs.Create(ctx, &domain.Document{ID: "doc-1", PatientID: "guest-device-7"}))

		_, err = f.svc.Login(ctx, LoginInput{
			Email:          "asha@example.com",
			Password:       "secret1",
			GuestPatientID: "guest-device-7",
		})
		require.NoError(t, err)

		merged, err := f.docs.ListByPatient(ctx, signedUp.User.ID)
		require.NoError(t, err)
		assert.Len(t, merged, 1)
	})
}

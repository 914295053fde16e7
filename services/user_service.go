package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mediqr-dev/mediqr/domain"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLength = 6
	minLicenseLength  = 3
)

// PasswordHasher abstracts password hashing for the user service.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hashedPassword, password string) error
}

// SignupInput carries a registration request.
type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
	// GuestPatientID, when set, merges documents uploaded anonymously from
	// this device into the new account.
	GuestPatientID string
	// Doctor-only fields.
	LicenseNumber string
	ClinicName    string
}

// LoginInput carries a login request.
type LoginInput struct {
	Email          string
	Password       string
	GuestPatientID string
}

// AuthResult is the outcome of a successful signup or login.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// UserService handles account registration and login, including the
// guest-document merge that folds anonymous uploads into a real account.
type UserService struct {
	users    domain.UserRepository
	patients domain.PatientRepository
	docs     domain.DocumentRepository
	hasher   PasswordHasher
	tokens   *TokenService
}

// NewUserService creates a new UserService instance.
func NewUserService(
	users domain.UserRepository,
	patients domain.PatientRepository,
	docs domain.DocumentRepository,
	hasher PasswordHasher,
	tokens *TokenService,
) *UserService {
	return &UserService{
		users:    users,
		patients: patients,
		docs:     docs,
		hasher:   hasher,
		tokens:   tokens,
	}
}

// Signup registers a new account and returns it with a signed auth token.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if name == "" || email == "" || in.Password == "" || in.Role == "" {
		return nil, fmt.Errorf("%w: name, email, password and role are required", domain.ErrInvalidInput)
	}
	if !emailPattern.MatchString(email) {
		return nil, fmt.Errorf("%w: invalid email format", domain.ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return nil, fmt.Errorf("%w: role must be either %q or %q", domain.ErrInvalidInput,
			domain.RolePatient, domain.RoleDoctor)
	}
	if len(in.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", domain.ErrInvalidInput, minPasswordLength)
	}
	license := strings.TrimSpace(in.LicenseNumber)
	if in.Role == domain.RoleDoctor && len(license) < minLicenseLength {
		return nil, fmt.Errorf("%w: doctors must provide a valid license number", domain.ErrInvalidInput)
	}

	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, domain.ErrDuplicateEmail
	} else if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if in.Role == domain.RoleDoctor {
		user.LicenseNumber = license
		user.ClinicName = strings.TrimSpace(in.ClinicName)
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.ensurePatientRecord(ctx, user)
	s.mergeGuestDocuments(ctx, in.GuestPatientID, user.ID)

	token, err := s.tokens.IssueAuthToken(&domain.Identity{
		UserID: user.ID, Role: user.Role, Name: user.Name, Email: user.Email,
	}, DefaultAuthTokenTTL)
	if err != nil {
		return nil, err
	}

	log.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and returns the account with a fresh auth
// token.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrInvalidInput)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.hasher.Verify(user.PasswordHash, in.Password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	s.ensurePatientRecord(ctx, user)
	s.mergeGuestDocuments(ctx, in.GuestPatientID, user.ID)

	token, err := s.tokens.IssueAuthToken(&domain.Identity{
		UserID: user.ID, Role: user.Role, Name: user.Name, Email: user.Email,
	}, DefaultAuthTokenTTL)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: user, Token: token}, nil
}

// ensurePatientRecord upserts a patient profile for patient accounts so
// later profile fetches never 404. Failures are logged, not fatal.
func (s *UserService) ensurePatientRecord(ctx context.Context, user *domain.User) {
	if user.Role != domain.RolePatient {
		return
	}
	_, err := s.patients.Upsert(ctx, user.ID, domain.PatientUpdate{
		Name:  &user.Name,
		Email: &user.Email,
	})
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("failed to ensure patient record")
	}
}

// mergeGuestDocuments reassigns documents uploaded under an anonymous device
// id to the signed-in account. This is the explicit, audited merge step for
// the anonymous-write trust tier; failures are logged but do not fail the
// signup or login itself.
func (s *UserService) mergeGuestDocuments(ctx context.Context, guestPatientID, userID string) {
	if guestPatientID == "" || guestPatientID == userID {
		return
	}
	moved, err := s.docs.ReassignOwner(ctx, guestPatientID, userID)
	if err != nil {
		log.Error().Err(err).
			Str("guest_patient_id", guestPatientID).
			Str("user_id", userID).
			Msg("failed to merge guest documents")
		return
	}
	log.Info().
		Int64("documents_moved", moved).
		Str("guest_patient_id", guestPatientID).
		Str("user_id", userID).
		Msg("merged guest documents into account")
}

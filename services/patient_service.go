package services

import (
	"context"
	"fmt"

	"github.com/mediqr-dev/mediqr/domain"
)

// PatientService exposes patient profile reads and upserts.
type PatientService struct {
	patients domain.PatientRepository
}

// NewPatientService creates a new PatientService instance.
func NewPatientService(patients domain.PatientRepository) *PatientService {
	return &PatientService{patients: patients}
}

// Get returns the profile for a patient id, or domain.ErrNotFound.
func (s *PatientService) Get(ctx context.Context, patientID string) (*domain.Patient, error) {
	if patientID == "" {
		return nil, fmt.Errorf("%w: patientId is required", domain.ErrInvalidInput)
	}
	return s.patients.GetByPatientID(ctx, patientID)
}

// Upsert creates or updates the profile for a patient id; nil fields in the
// update are left untouched.
func (s *PatientService) Upsert(ctx context.Context, patientID string, update domain.PatientUpdate) (*domain.Patient, error) {
	if patientID == "" {
		return nil, fmt.Errorf("%w: patientId is required", domain.ErrInvalidInput)
	}

	updated, err := s.patients.Upsert(ctx, patientID, update)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert patient: %w", err)
	}
	return updated, nil
}

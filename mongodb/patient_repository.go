package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mediqr-dev/mediqr/domain"
)

// PatientRepositoryMongo implements domain.PatientRepository using MongoDB.
type PatientRepositoryMongo struct {
	collection *mongo.Collection
}

// NewPatientRepositoryMongo creates a new PatientRepositoryMongo and
// ensures the unique patient_id index.
func NewPatientRepositoryMongo(ctx context.Context, db *mongo.Database) (*PatientRepositoryMongo, error) {
	repo := &PatientRepositoryMongo{collection: db.Collection(PatientsCollection)}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "patient_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}
	if _, err := repo.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("failed to ensure patient indexes")
	}

	return repo, nil
}

// GetByPatientID returns the profile or domain.ErrNotFound.
func (r *PatientRepositoryMongo) GetByPatientID(ctx context.Context, patientID string) (*domain.Patient, error) {
	var patient domain.Patient
	err := r.collection.FindOne(ctx, bson.M{"patient_id": patientID}).Decode(&patient)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: patient %s", domain.ErrNotFound, patientID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

// Upsert creates or updates the profile, applying only the provided fields.
func (r *PatientRepositoryMongo) Upsert(ctx context.Context, patientID string, update domain.PatientUpdate) (*domain.Patient, error) {
	filter, updateDoc := patientUpsertDocuments(patientID, update)

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var patient domain.Patient
	err := r.collection.FindOneAndUpdate(ctx, filter, updateDoc, opts).Decode(&patient)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert patient: %w", err)
	}

	return &patient, nil
}

// patientUpsertDocuments builds the filter and update for Upsert. The insert
// branch must supply a string _id: letting Mongo generate an ObjectID would
// make the row undecodable into domain.Patient.
func patientUpsertDocuments(patientID string, update domain.PatientUpdate) (bson.M, bson.M) {
	set := bson.M{"updated_at": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Email != nil {
		set["email"] = *update.Email
	}
	if update.Emergency != nil {
		set["emergency"] = update.Emergency
	}

	return bson.M{"patient_id": patientID}, bson.M{
		"$set": set,
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"created_at": time.Now(),
		},
	}
}

var _ domain.PatientRepository = (*PatientRepositoryMongo)(nil)

package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/mediqr-dev/mediqr/domain"
)

// DocumentRepositoryMongo implements domain.DocumentRepository using
// MongoDB.
type DocumentRepositoryMongo struct {
	collection *mongo.Collection
}

// NewDocumentRepositoryMongo creates a new DocumentRepositoryMongo and
// ensures its indexes.
func NewDocumentRepositoryMongo(ctx context.Context, db *mongo.Database) (*DocumentRepositoryMongo, error) {
	repo := &DocumentRepositoryMongo{collection: db.Collection(DocumentsCollection)}

	indexModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "patient_id", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	if _, err := repo.collection.Indexes().CreateMany(ctx, indexModels); err != nil {
		log.Warn().Err(err).Msg("failed to ensure document indexes")
	}

	return repo, nil
}

// Create inserts a new document, generating its id when absent.
func (r *DocumentRepositoryMongo) Create(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByID returns the document or domain.ErrNotFound.
func (r *DocumentRepositoryMongo) GetByID(ctx context.Context, id string) (*domain.Document, error) {
	var doc domain.Document
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// ListByPatient returns all documents owned by the patient, newest first.
func (r *DocumentRepositoryMongo) ListByPatient(ctx context.Context, patientID string) ([]*domain.Document, error) {
	return r.list(ctx, bson.M{"patient_id": patientID})
}

// ListByIDs returns the documents whose ids are in the given set, newest
// first.
func (r *DocumentRepositoryMongo) ListByIDs(ctx context.Context, ids []string) ([]*domain.Document, error) {
	return r.list(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *DocumentRepositoryMongo) list(ctx context.Context, filter bson.M) ([]*domain.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer cursor.Close(ctx)

	docs := make([]*domain.Document, 0)
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode documents: %w", err)
	}
	return docs, nil
}

// UpdateSummary persists summary, lab results and report date.
func (r *DocumentRepositoryMongo) UpdateSummary(ctx context.Context, doc *domain.Document) error {
	update := bson.M{"$set": bson.M{
		"summary":     doc.Summary,
		"lab_results": doc.LabResults,
		"report_date": doc.ReportDate,
		"updated_at":  doc.UpdatedAt,
	}}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update document summary: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, doc.ID)
	}
	return nil
}

// Delete removes a document by id.
func (r *DocumentRepositoryMongo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: document %s", domain.ErrNotFound, id)
	}
	return nil
}

// ReassignOwner moves every document owned by fromPatientID to toPatientID.
func (r *DocumentRepositoryMongo) ReassignOwner(ctx context.Context, fromPatientID, toPatientID string) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"patient_id": fromPatientID},
		bson.M{"$set": bson.M{"patient_id": toPatientID}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to reassign documents: %w", err)
	}
	return res.ModifiedCount, nil
}

var _ domain.DocumentRepository = (*DocumentRepositoryMongo)(nil)

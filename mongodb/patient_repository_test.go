package mongodb

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/mediqr-dev/mediqr/domain"
)

func TestPatientUpsertInsertCarriesStringID(t *testing.T) {
	name := "Asha Rao"
	filter, update := patientUpsertDocuments("patient-1", domain.PatientUpdate{Name: &name})

	assert.Equal(t, bson.M{"patient_id": "patient-1"}, filter)

	setOnInsert, ok := update["$setOnInsert"].(bson.M)
	require.True(t, ok)

	// A fresh insert must get a string _id; a Mongo-generated ObjectID would
	// not decode into domain.Patient.
	id, ok := setOnInsert["_id"].(string)
	require.True(t, ok, "$setOnInsert must carry a string _id, got %T", setOnInsert["_id"])
	require.NotEmpty(t, id)

	// The inserted row shape round-trips through the bson codec.
	raw, err := bson.Marshal(bson.M{
		"_id":        id,
		"patient_id": "patient-1",
		"name":       name,
		"created_at": time.Now(),
		"updated_at": time.Now(),
	})
	require.NoError(t, err)

	var patient domain.Patient
	require.NoError(t, bson.Unmarshal(raw, &patient))
	assert.Equal(t, id, patient.ID)
	assert.Equal(t, "patient-1", patient.PatientID)
	assert.Equal(t, name, patient.Name)
}

func TestPatientUpsertOnlySetsProvidedFields(t *testing.T) {
	email := "asha@example.com"
	_, update := patientUpsertDocuments("patient-1", domain.PatientUpdate{Email: &email})

	set, ok := update["$set"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, email, set["email"])
	assert.NotContains(t, set, "name")
	assert.NotContains(t, set, "emergency")
	assert.Contains(t, set, "updated_at")
}

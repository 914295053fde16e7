package domain

import "time"

// EmergencyInfo is the always-visible emergency card of a patient profile.
type EmergencyInfo struct {
	BloodGroup        string   `bson:"blood_group,omitempty"        json:"bloodGroup,omitempty"`
	Allergies         []string `bson:"allergies,omitempty"          json:"allergies,omitempty"`
	Medications       []string `bson:"medications,omitempty"        json:"medications,omitempty"`
	ChronicConditions []string `bson:"chronic_conditions,omitempty" json:"chronicConditions,omitempty"`
	EmergencyContact  string   `bson:"emergency_contact,omitempty"  json:"emergencyContact,omitempty"`
}

// Patient is the profile record keyed by the persistent patient identifier.
// The identifier may belong to a signed-up user or to an anonymous device
// that has not created an account yet.
type Patient struct {
	ID        string         `bson:"_id,omitempty" json:"-"`
	PatientID string         `bson:"patient_id"    json:"patientId"`
	Name      string         `bson:"name,omitempty"  json:"name,omitempty"`
	Email     string         `bson:"email,omitempty" json:"email,omitempty"`
	Emergency *EmergencyInfo `bson:"emergency,omitempty" json:"emergency,omitempty"`
	CreatedAt time.Time      `bson:"created_at"    json:"createdAt"`
	UpdatedAt time.Time      `bson:"updated_at"    json:"updatedAt"`
}

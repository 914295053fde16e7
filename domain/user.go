package domain

import "time"

// Role of an authenticated account.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RolePatient || r == RoleDoctor
}

// User is a signed-up account (patient or doctor).
type User struct {
	ID           string    `bson:"_id,omitempty"            json:"id"`
	Name         string    `bson:"name"                     json:"name"`
	Email        string    `bson:"email"                    json:"email"`
	PasswordHash string    `bson:"password_hash"            json:"-"`
	Role         Role      `bson:"role"                     json:"role"`
	LicenseNumber string   `bson:"license_number,omitempty" json:"licenseNumber,omitempty"`
	ClinicName   string    `bson:"clinic_name,omitempty"    json:"clinicName,omitempty"`
	CreatedAt    time.Time `bson:"created_at"               json:"createdAt"`
	UpdatedAt    time.Time `bson:"updated_at"               json:"updatedAt"`
}

// Identity is the decoded caller identity attached by the auth middleware.
// It carries no authorization by itself; services decide what it may do.
type Identity struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

// IsPatient reports whether the identity is a patient account.
func (id *Identity) IsPatient() bool { return id != nil && id.Role == RolePatient }

// IsDoctor reports whether the identity is a doctor account.
func (id *Identity) IsDoctor() bool { return id != nil && id.Role == RoleDoctor }

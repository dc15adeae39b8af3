package models

import "time"

// RegistrationStatus tracks an enrollment through review.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationCancelled RegistrationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationCancelled:
		return true
	}
	return false
}

// Registration is an enrollment request for a formation.
type Registration struct {
	ID             string             `json:"id"`
	FormationID    string             `json:"formation_id"`
	FormationTitle string             `json:"formation_title,omitempty"`
	FullName       string             `json:"full_name"`
	Email          string             `json:"email"`
	Phone          string             `json:"phone,omitempty"`
	Status         RegistrationStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

package models

import "time"

// Profile holds the medical/contact record created at registration.
// One row per user, keyed by the auth user id. Never deleted by clients.
type Profile struct {
	ID                           string    `json:"id"`
	Name                         string    `json:"name"`
	BloodType                    string    `json:"blood_type"`
	Phone                        string    `json:"phone"`
	DateOfBirth                  string    `json:"date_of_birth"`
	Allergies                    string    `json:"allergies"`
	Medications                  string    `json:"medications"`
	Conditions                   string    `json:"conditions"`
	EmergencyContactName         string    `json:"emergency_contact_name"`
	EmergencyContactPhone        string    `json:"emergency_contact_phone"`
	EmergencyContactRelationship string    `json:"emergency_contact_relationship"`
	UpdatedAt                    time.Time `json:"updated_at"`
}

package models

import "time"

const (
	StatusPending  = "pending"
	StatusResolved = "resolved"
	StatusRejected = "rejected"
)

type Emergency struct {
	ID                int64     `json:"id"`
	UserID            string    `json:"user_id"`
	Latitude          float64   `json:"latitude"`
	Longitude         float64   `json:"longitude"`
	NatureOfEmergency string    `json:"nature_of_emergency"`
	AdditionalInfo    *string   `json:"additional_info"`
	Status            string    `json:"status"`
	CreatedAt         time.Time `json:"created_at"`
}

// CreateEmergencyRequest uses pointer coordinates so a missing field is
// distinguishable from 0,0 (a legal coordinate).
type CreateEmergencyRequest struct {
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	NatureOfEmergency string   `json:"nature_of_emergency"`
	AdditionalInfo    string   `json:"additional_info"`
}

func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusResolved || s == StatusRejected
}

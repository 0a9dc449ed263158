package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Lead pipeline states a user can assign to a saved place.
const (
	LeadStatusNew           = "new"
	LeadStatusContacted     = "contacted"
	LeadStatusInterested    = "interested"
	LeadStatusNotInterested = "not_interested"
	LeadStatusWon           = "won"
)

// LeadStatuses lists every accepted status.
var LeadStatuses = []string{
	LeadStatusNew,
	LeadStatusContacted,
	LeadStatusInterested,
	LeadStatusNotInterested,
	LeadStatusWon,
}

// ValidLeadStatus reports whether status is one of LeadStatuses.
func ValidLeadStatus(status string) bool {
	for _, s := range LeadStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// SavedLead is a place a user chose to track.
type SavedLead struct {
	ID           uuid.UUID       `json:"id"`
	UserID       string          `json:"user_id"`
	PlaceID      string          `json:"place_id"`
	Name         string          `json:"name"`
	Address      *string         `json:"address,omitempty"`
	Phone        *string         `json:"phone,omitempty"`
	Email        *string         `json:"email,omitempty"`
	Latitude     *float64        `json:"latitude,omitempty"`
	Longitude    *float64        `json:"longitude,omitempty"`
	Categories   []Category      `json:"categories"`
	Status       string          `json:"status"`
	Notes        *string         `json:"notes,omitempty"`
	QualityScore int             `json:"quality_score"`
	Raw          json.RawMessage `json:"raw"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

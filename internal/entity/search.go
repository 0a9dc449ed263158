package entity

import (
	"time"

	"github.com/google/uuid"
)

// SearchRecord is one entry of a user's search history.
type SearchRecord struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	ScopeSource string    `json:"scope_source"`
	BBox        []float64 `json:"bbox,omitempty"`
	Source      string    `json:"source"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// SavedSearch is a named search a user can run again. At most one of City and
// BBox is set; with neither it covers the default area.
type SavedSearch struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	City      *string   `json:"city,omitempty"`
	BBox      []float64 `json:"bbox,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

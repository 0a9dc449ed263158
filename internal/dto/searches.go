package dto

// SaveSearchRequest names a search so it can be run again. City and BBox
// follow the same rules as SearchRequest.
type SaveSearchRequest struct {
	Name     string    `json:"name"`
	Category string    `json:"category"`
	City     string    `json:"city,omitempty"`
	BBox     []float64 `json:"bbox,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
}

// UpdateSavedSearchRequest changes the given fields of a saved search. An
// empty City or BBox clears it.
type UpdateSavedSearchRequest struct {
	Name     *string    `json:"name,omitempty"`
	Category *string    `json:"category,omitempty"`
	City     *string    `json:"city,omitempty"`
	BBox     *[]float64 `json:"bbox,omitempty"`
	Notes    *string    `json:"notes,omitempty"`
}

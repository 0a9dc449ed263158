package entity

import "encoding/json"

// Category is one taxonomy entry attached to a place.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Place is a normalized, scored lead produced by a search.
type Place struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Address          string          `json:"address"`
	FormattedAddress string          `json:"formatted_address"`
	Locality         string          `json:"locality"`
	Region           string          `json:"region"`
	Postcode         string          `json:"postcode"`
	Country          string          `json:"country"`
	CountryCode      string          `json:"country_code,omitempty"`
	Latitude         *float64        `json:"latitude"`
	Longitude        *float64        `json:"longitude"`
	Categories       []Category      `json:"categories"`
	Distance         *float64        `json:"distance"`
	Phone            string          `json:"phone"`
	Email            string          `json:"email"`
	Website          *string         `json:"website"`
	OpeningHours     string          `json:"opening_hours"`
	QualityScore     int             `json:"quality_score"`
	ScoreBreakdown   map[string]int  `json:"score_breakdown,omitempty"`
	Raw              json.RawMessage `json:"raw_data,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are known.
func (p Place) HasCoordinates() bool {
	return p.Latitude != nil && p.Longitude != nil
}

package geoapify

import (
	"encoding/json"
	"strings"
	"time"
)

// FeatureCollection is the GeoJSON envelope returned by the places and geocoding APIs.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// rawFeatureCollection defers decoding of each feature so one malformed
// record cannot fail the whole response.
type rawFeatureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// Feature is one place as returned upstream. It is decoded at the fetch
// boundary so later stages never reach into untyped maps.
type Feature struct {
	Type       string     `json:"type"`
	Properties Properties `json:"properties"`
	Geometry   Geometry   `json:"geometry"`
	BBox       []float64  `json:"bbox,omitempty"`
}

// Contact holds the nested contact block some places carry.
type Contact struct {
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Properties lists the place attributes the pipeline reads.
type Properties struct {
	PlaceID      string   `json:"place_id"`
	Name         string   `json:"name"`
	AddressLine1 string   `json:"address_line1"`
	AddressLine2 string   `json:"address_line2"`
	Formatted    string   `json:"formatted"`
	City         string   `json:"city"`
	Suburb       string   `json:"suburb"`
	State        string   `json:"state"`
	Postcode     string   `json:"postcode"`
	Country      string   `json:"country"`
	CountryCode  string   `json:"country_code"`
	Lat          *float64 `json:"lat"`
	Lon          *float64 `json:"lon"`
	Categories   []string `json:"categories"`
	Website      string   `json:"website"`
	Phone        string   `json:"phone"`
	Email        string   `json:"email"`
	Contact      *Contact `json:"contact"`
	OpeningHours string   `json:"opening_hours"`

	// Raw keeps the complete upstream object for the place detail view.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and keeps a copy of the raw object.
func (p *Properties) UnmarshalJSON(data []byte) error {
	type plain Properties
	var decoded plain
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*p = Properties(decoded)
	p.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// Geometry keeps coordinates raw because non-point shapes show up for some places.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Point returns lon/lat when the geometry is a GeoJSON point.
func (g Geometry) Point() (lon, lat float64, ok bool) {
	if len(g.Coordinates) == 0 {
		return 0, 0, false
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil || len(coords) < 2 {
		return 0, 0, false
	}
	return coords[0], coords[1], true
}

// ID returns the trimmed place identifier.
func (f Feature) ID() string {
	return strings.TrimSpace(f.Properties.PlaceID)
}

// Coordinates prefers the lat/lon properties and falls back to the geometry.
func (f Feature) Coordinates() (lon, lat float64, ok bool) {
	if f.Properties.Lat != nil && f.Properties.Lon != nil {
		return *f.Properties.Lon, *f.Properties.Lat, true
	}
	return f.Geometry.Point()
}

// ContactPhone returns contact.phone, else phone.
func (f Feature) ContactPhone() string {
	if f.Properties.Contact != nil {
		if phone := strings.TrimSpace(f.Properties.Contact.Phone); phone != "" {
			return phone
		}
	}
	return strings.TrimSpace(f.Properties.Phone)
}

// ContactEmail returns contact.email, else email.
func (f Feature) ContactEmail() string {
	if f.Properties.Contact != nil {
		if email := strings.TrimSpace(f.Properties.Contact.Email); email != "" {
			return email
		}
	}
	return strings.TrimSpace(f.Properties.Email)
}

// HasWebsite treats absent, null and blank values alike.
func (f Feature) HasWebsite() bool {
	return strings.TrimSpace(f.Properties.Website) != ""
}

// FetchStatus classifies the outcome of a single bucket request.
type FetchStatus string

const (
	StatusOK              FetchStatus = "ok"
	StatusInvalidCategory FetchStatus = "invalid_category"
	StatusUpstreamError   FetchStatus = "upstream_error"
	StatusNetworkError    FetchStatus = "network_error"
	StatusDecodeError     FetchStatus = "decode_error"
)

// BucketResult is the settled outcome of one bucket fetch. Failed buckets
// carry no features.
type BucketResult struct {
	Bucket     string        `json:"bucket"`
	Features   []Feature     `json:"-"`
	Status     FetchStatus   `json:"status"`
	HTTPStatus int           `json:"http_status,omitempty"`
	Count      int           `json:"count"`
	Dropped    int           `json:"dropped,omitempty"`
	Err        error         `json:"-"`
	Duration   time.Duration `json:"-"`
}

// OK reports whether the bucket was fetched and decoded.
func (r BucketResult) OK() bool {
	return r.Status == StatusOK
}

// CityArea is the geocoded extent of a free-form location.
type CityArea struct {
	BBox      []float64 `json:"bbox"`
	Name      string    `json:"name"`
	Country   string    `json:"country,omitempty"`
	State     string    `json:"state,omitempty"`
	Formatted string    `json:"formatted,omitempty"`
}

// UpstreamResponse is a relayed provider reply.
type UpstreamResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

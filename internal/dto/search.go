package dto

import (
	"github.com/octobees/mapleads/internal/entity"
	"github.com/octobees/mapleads/internal/geo"
	"github.com/octobees/mapleads/internal/geoapify"
	"github.com/octobees/mapleads/internal/service/pipeline"
)

// SearchRequest is the payload used by the search endpoint. At most one of
// City and BBox should be set; with neither the default area is searched.
type SearchRequest struct {
	Category string    `json:"category"`
	City     string    `json:"city,omitempty"`
	BBox     []float64 `json:"bbox,omitempty"`
	Refresh  bool      `json:"refresh,omitempty"`

	// UserID attributes the search to a user's history. It is set from the
	// bearer token, never from the body.
	UserID string `json:"-"`
}

// SearchScope describes the area a search covered.
type SearchScope struct {
	Label   string          `json:"label"`
	BBox    geo.BoundingBox `json:"bbox"`
	Bounded bool            `json:"bounded"`
	Source  string          `json:"source"`
}

// SearchResponse is returned by the search endpoint.
type SearchResponse struct {
	Places     []entity.Place          `json:"places"`
	Count      int                     `json:"count"`
	Category   string                  `json:"category"`
	Scope      SearchScope             `json:"scope"`
	Source     string                  `json:"source"`
	CacheWrite string                  `json:"cache_write,omitempty"`
	History    string                  `json:"history,omitempty"`
	Stages     *pipeline.StageCounts   `json:"stages,omitempty"`
	Buckets    []geoapify.BucketResult `json:"buckets,omitempty"`
}

package pipeline

import (
	"strings"
	"unicode/utf8"

	"github.com/octobees/mapleads/internal/geo"
	"github.com/octobees/mapleads/internal/geoapify"
)

// MinNameLength is exclusive: names must be longer than this.
const MinNameLength = 2

// IsLead reports whether a feature is an addressable business without a website.
func IsLead(f geoapify.Feature) bool {
	if f.ID() == "" {
		return false
	}
	if utf8.RuneCountInString(strings.TrimSpace(f.Properties.Name)) <= MinNameLength {
		return false
	}
	if f.HasWebsite() {
		return false
	}
	p := f.Properties
	return strings.TrimSpace(p.AddressLine1) != "" ||
		strings.TrimSpace(p.City) != "" ||
		strings.TrimSpace(p.Suburb) != ""
}

// Filter keeps the features that pass IsLead, preserving order.
func Filter(features []geoapify.Feature) []geoapify.Feature {
	out := make([]geoapify.Feature, 0, len(features))
	for _, f := range features {
		if IsLead(f) {
			out = append(out, f)
		}
	}
	return out
}

// WithinBounds keeps features whose coordinates fall inside box, edges
// included. Features without coordinates are dropped.
func WithinBounds(features []geoapify.Feature, box geo.BoundingBox) []geoapify.Feature {
	out := make([]geoapify.Feature, 0, len(features))
	for _, f := range features {
		lon, lat, ok := f.Coordinates()
		if ok && box.Contains(lon, lat) {
			out = append(out, f)
		}
	}
	return out
}

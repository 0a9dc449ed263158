package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// BoundingBox is a rectangular area in decimal degrees.
type BoundingBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// ParseBoundingBox reads "west,south,east,north".
func ParseBoundingBox(value string) (BoundingBox, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return BoundingBox{}, fmt.Errorf("expected 4 comma separated values, got %q", value)
	}

	var coords [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return BoundingBox{}, fmt.Errorf("invalid coordinate %q: %w", part, err)
		}
		coords[i] = f
	}

	box := BoundingBox{West: coords[0], South: coords[1], East: coords[2], North: coords[3]}
	if err := box.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return box, nil
}

// FromSlice builds a box from the [lon_min, lat_min, lon_max, lat_max] order used by GeoJSON.
func FromSlice(values []float64) (BoundingBox, error) {
	if len(values) != 4 {
		return BoundingBox{}, fmt.Errorf("expected 4 values, got %d", len(values))
	}
	box := BoundingBox{West: values[0], South: values[1], East: values[2], North: values[3]}
	if err := box.Validate(); err != nil {
		return BoundingBox{}, err
	}
	return box, nil
}

// Slice returns the box in FromSlice order.
func (b BoundingBox) Slice() []float64 {
	return []float64{b.West, b.South, b.East, b.North}
}

// Validate checks ranges and ordering of the edges.
func (b BoundingBox) Validate() error {
	for _, v := range []float64{b.West, b.South, b.East, b.North} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("bounding box contains a non-finite value")
		}
	}
	if b.West < -180 || b.East > 180 || b.South < -90 || b.North > 90 {
		return fmt.Errorf("bounding box out of range: %s", b)
	}
	if b.West > b.East || b.South > b.North {
		return fmt.Errorf("bounding box edges are inverted: %s", b)
	}
	return nil
}

// IsZero reports whether no edge has been set.
func (b BoundingBox) IsZero() bool {
	return b == BoundingBox{}
}

// Contains reports whether the point lies inside the box, edges included.
func (b BoundingBox) Contains(lon, lat float64) bool {
	return lon >= b.West && lon <= b.East && lat >= b.South && lat <= b.North
}

// String formats the box as "west,south,east,north".
func (b BoundingBox) String() string {
	return strings.Join([]string{
		formatCoord(b.West),
		formatCoord(b.South),
		formatCoord(b.East),
		formatCoord(b.North),
	}, ",")
}

// RectFilter renders the Geoapify places filter for the box.
func (b BoundingBox) RectFilter() string {
	return "rect:" + b.String()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

package scoring

import (
	"strings"
	"unicode/utf8"

	"github.com/octobees/mapleads/internal/entity"
)

const (
	signalName            = "name"
	signalPhone           = "phone"
	signalAddress         = "address"
	signalOpeningHours    = "opening_hours"
	signalCategories      = "categories"
	signalCoordinates     = "coordinates"
	signalShortName       = "short_name"
	signalMissingLocality = "missing_locality"
)

const (
	weightName             = 10
	weightPhone            = 20
	weightAddress          = 15
	weightOpeningHours     = 10
	weightCategories       = 5
	weightCoordinates      = 5
	penaltyShortName       = -20
	penaltyMissingLocality = -10

	minNameLength = 3
)

// ScoreResult reports the aggregate score and the signals that contributed to it.
type ScoreResult struct {
	Total     int
	Breakdown map[string]int
}

// Score rates how complete a place's contact and location data is. Missing
// fields contribute nothing; the function has no failure path.
func Score(p entity.Place) ScoreResult {
	breakdown := map[string]int{}

	name := strings.TrimSpace(p.Name)
	if name != "" {
		breakdown[signalName] = weightName
	}
	if strings.TrimSpace(p.Phone) != "" {
		breakdown[signalPhone] = weightPhone
	}
	if strings.TrimSpace(p.FormattedAddress) != "" || strings.TrimSpace(p.Address) != "" {
		breakdown[signalAddress] = weightAddress
	}
	if strings.TrimSpace(p.OpeningHours) != "" {
		breakdown[signalOpeningHours] = weightOpeningHours
	}
	if len(p.Categories) > 0 {
		breakdown[signalCategories] = weightCategories
	}
	if p.HasCoordinates() {
		breakdown[signalCoordinates] = weightCoordinates
	}
	// Unreachable after the quality filter; kept so rescoring raw records
	// gives the same numbers.
	if name != "" && utf8.RuneCountInString(name) < minNameLength {
		breakdown[signalShortName] = penaltyShortName
	}
	if strings.TrimSpace(p.Locality) == "" {
		breakdown[signalMissingLocality] = penaltyMissingLocality
	}

	total := 0
	for _, value := range breakdown {
		total += value
	}

	return ScoreResult{
		Total:     total,
		Breakdown: breakdown,
	}
}

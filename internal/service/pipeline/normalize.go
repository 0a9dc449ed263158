package pipeline

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"

	"github.com/octobees/mapleads/internal/entity"
	"github.com/octobees/mapleads/internal/geoapify"
)

const (
	defaultPhoneRegion = "IN"
	maxCategoryDepth   = 2
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[^@\s]+\.[^@\s]{2,}$`)
	idnaProfile  = idna.Lookup
)

// Normalize flattens a feature into a Place. The score is left at zero.
func Normalize(f geoapify.Feature, fallbackRegion string) entity.Place {
	p := f.Properties

	place := entity.Place{
		ID:               f.ID(),
		Name:             strings.TrimSpace(p.Name),
		// Address is the locality line (address_line2) even though Filter
		// accepts address_line1; a line1-only place keeps its street in
		// FormattedAddress alone.
		Address:          strings.TrimSpace(p.AddressLine2),
		FormattedAddress: strings.TrimSpace(p.Formatted),
		Locality:         firstNonEmpty(p.City, p.Suburb),
		Region:           strings.TrimSpace(p.State),
		Postcode:         strings.TrimSpace(p.Postcode),
		Country:          strings.TrimSpace(p.Country),
		CountryCode:      strings.ToUpper(strings.TrimSpace(p.CountryCode)),
		Categories:       shallowCategories(p.Categories),
		OpeningHours:     strings.TrimSpace(p.OpeningHours),
		Raw:              p.Raw,
	}

	if lon, lat, ok := f.Coordinates(); ok {
		place.Longitude = &lon
		place.Latitude = &lat
	}

	region := place.CountryCode
	if region == "" {
		region = fallbackRegion
	}
	place.Phone = normalizePhone(f.ContactPhone(), region)
	place.Email = normalizeEmail(f.ContactEmail())

	return place
}

// shallowCategories keeps tags at most two levels deep and names them after
// their last segment.
func shallowCategories(tags []string) []entity.Category {
	out := make([]entity.Category, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		segments := strings.Split(tag, ".")
		if len(segments) > maxCategoryDepth {
			continue
		}
		out = append(out, entity.Category{
			ID:   tag,
			Name: strings.ReplaceAll(segments[len(segments)-1], "_", " "),
		})
	}
	return out
}

// normalizePhone formats parseable numbers as E.164 and keeps anything else
// as given, so a lead never loses a number the provider had.
func normalizePhone(raw, region string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if region == "" {
		region = defaultPhoneRegion
	}
	number, err := phonenumbers.Parse(raw, region)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return raw
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}

func normalizeEmail(raw string) string {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return ""
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || at == len(email)-1 {
		return ""
	}
	domain, err := idnaProfile.ToASCII(email[at+1:])
	if err != nil || domain == "" {
		return ""
	}
	email = email[:at+1] + domain
	if !emailPattern.MatchString(email) {
		return ""
	}
	return email
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

package geoapify

import "strings"

// AllCategories is the category value that fans out over every configured bucket.
const AllCategories = "all"

// PopularCategory is a shortcut offered to clients.
type PopularCategory struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

var popularCategories = []PopularCategory{
	{ID: "restaurant", Name: "Restaurant", Icon: "🍽️"},
	{ID: "cafe", Name: "Café", Icon: "☕"},
	{ID: "retail", Name: "Retail", Icon: "🛍️"},
	{ID: "salon", Name: "Salon", Icon: "💇"},
	{ID: "gym", Name: "Gym", Icon: "🏋️"},
	{ID: "doctor", Name: "Doctor", Icon: "🏥"},
	{ID: "auto_repair", Name: "Auto Repair", Icon: "🔧"},
	{ID: "bar", Name: "Bar", Icon: "🍺"},
	{ID: "hotel", Name: "Hotel", Icon: "🏨"},
	{ID: "landmark", Name: "Landmark", Icon: "🏛️"},
}

var categoryTags = map[string]string{
	// catering
	"restaurant":  "catering.restaurant",
	"restaurants": "catering.restaurant",
	"cafe":        "catering.cafe",
	"cafes":       "catering.cafe",
	"café":        "catering.cafe",
	"cafés":       "catering.cafe",
	"coffee":      "catering.cafe",
	"coffee shop": "catering.cafe",
	"bar":         "catering.bar",
	"bars":        "catering.bar",
	"pub":         "catering.bar",
	"pubs":        "catering.bar",
	"fast food":   "catering.fast_food",
	"bakery":      "catering.bakery",
	"bakeries":    "catering.bakery",

	// retail
	"retail":       "commercial",
	"shop":         "commercial.shopping_mall",
	"shops":        "commercial.shopping_mall",
	"store":        "commercial",
	"stores":       "commercial",
	"supermarket":  "commercial.supermarket",
	"supermarkets": "commercial.supermarket",

	// services
	"salon":        "service.beauty",
	"salons":       "service.beauty",
	"beauty":       "service.beauty",
	"barber":       "service.beauty.hairdresser",
	"barbers":      "service.beauty.hairdresser",
	"hairdresser":  "service.beauty.hairdresser",
	"spa":          "service.beauty.spa",
	"massage":      "service.beauty.massage",
	"auto repair":  "service.vehicle.repair",
	"auto_repair":  "service.vehicle.repair",
	"mechanic":     "service.vehicle.repair",
	"mechanics":    "service.vehicle.repair",
	"car wash":     "service.vehicle.car_wash",
	"plumber":      "service",
	"plumbers":     "service",
	"electrician":  "service",
	"electricians": "service",
	"laundry":      "service.cleaning.laundry",
	"dry cleaning": "service.cleaning.dry_cleaning",
	"tailor":       "service.tailor",

	// sport
	"gym":            "sport.fitness",
	"gyms":           "sport.fitness",
	"fitness":        "sport.fitness",
	"fitness centre": "sport.fitness.fitness_centre",
	"swimming pool":  "sport.swimming_pool",

	// healthcare
	"doctor":     "healthcare",
	"doctors":    "healthcare",
	"clinic":     "healthcare.clinic_or_praxis",
	"clinics":    "healthcare.clinic_or_praxis",
	"hospital":   "healthcare.hospital",
	"hospitals":  "healthcare.hospital",
	"pharmacy":   "healthcare.pharmacy",
	"pharmacies": "healthcare.pharmacy",
	"dentist":    "healthcare.dentist",
	"dentists":   "healthcare.dentist",

	// accommodation
	"hotel":       "accommodation.hotel",
	"hotels":      "accommodation.hotel",
	"hostel":      "accommodation.hostel",
	"guest house": "accommodation.guest_house",

	// tourism and leisure
	"landmark":   "tourism.attraction",
	"landmarks":  "tourism.attraction",
	"attraction": "tourism.attraction",
	"museum":     "entertainment.museum",
	"park":       "leisure.park",
}

// ResolveCategory maps a user facing category name to its upstream tag.
// Lookup is case-insensitive and trims surrounding space.
func ResolveCategory(name string) (string, bool) {
	tag, ok := categoryTags[strings.ToLower(strings.TrimSpace(name))]
	return tag, ok
}

// IsAll reports whether name selects every configured bucket.
func IsAll(name string) bool {
	name = strings.TrimSpace(name)
	return name == "" || strings.EqualFold(name, AllCategories)
}

// PopularCategories returns a copy of the shortcut list.
func PopularCategories() []PopularCategory {
	return append([]PopularCategory(nil), popularCategories...)
}

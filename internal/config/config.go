package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/octobees/mapleads/internal/geo"
)

const (
	defaultBBox       = "77.4601,12.8340,77.7800,13.1390"
	defaultBuckets    = "catering.restaurant,catering.cafe,catering.bar,catering.fast_food,commercial,service,sport.fitness,healthcare,accommodation,leisure,education,entertainment,tourism"
	defaultOverpass   = "https://overpass-api.de/api/interpreter,https://overpass.kumi.systems/api/interpreter,https://maps.mail.ru/osm/tools/overpass/api/interpreter"
	maxBucketLimit    = 500
	defaultUserAgent  = "MapLeads/1.0"
	defaultNominatim  = "https://nominatim.openstreetmap.org"
	defaultGeoapify   = "https://api.geoapify.com"
	defaultRegionCode = "IN"
)

// RateLimitConfig indicates how many requests are allowed within a given interval.
type RateLimitConfig struct {
	Requests int
	Interval time.Duration
}

// GeoapifyConfig holds the places/geocoding provider settings.
type GeoapifyConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond int
}

// SearchConfig holds the defaults applied by the lead pipeline.
type SearchConfig struct {
	DefaultBBox       geo.BoundingBox
	DefaultCityLabel  string
	Buckets           []string
	BucketLimit       int
	BucketConcurrency int
	CacheTTL          time.Duration
	PhoneRegion       string
}

// Config aggregates application-wide configuration values.
type Config struct {
	DatabaseURL       string
	JWTSecret         string
	JWTIssuer         string
	Port              string
	LogLevel          string
	UpstreamTimeout   time.Duration
	NominatimBaseURL  string
	NominatimAgent    string
	OverpassEndpoints []string
	Geoapify          GeoapifyConfig
	Search            SearchConfig
	RateLimitSearch   RateLimitConfig
}

// Load reads configuration from environment variables and applies sane defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		JWTSecret:         getEnv("JWT_SECRET", "dev-secret"),
		JWTIssuer:         os.Getenv("JWT_ISSUER"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		UpstreamTimeout:   parseDuration(getEnv("UPSTREAM_TIMEOUT", "20s"), 20*time.Second),
		NominatimBaseURL:  strings.TrimRight(getEnv("NOMINATIM_BASE_URL", defaultNominatim), "/"),
		NominatimAgent:    getEnv("NOMINATIM_USER_AGENT", defaultUserAgent),
		OverpassEndpoints: splitList(getEnv("OVERPASS_ENDPOINTS", defaultOverpass)),
		Geoapify: GeoapifyConfig{
			APIKey:            firstEnv("GEOAPIFY_API_KEY", "VITE_GEOAPIFY_API_KEY"),
			BaseURL:           strings.TrimRight(getEnv("GEOAPIFY_BASE_URL", defaultGeoapify), "/"),
			RequestsPerSecond: getEnvInt("GEOAPIFY_RPS", 5),
		},
		Search: SearchConfig{
			DefaultCityLabel:  getEnv("DEFAULT_CITY_LABEL", "Bangalore"),
			Buckets:           splitList(getEnv("CATEGORY_BUCKETS", defaultBuckets)),
			BucketLimit:       getEnvInt("BUCKET_LIMIT", maxBucketLimit),
			BucketConcurrency: getEnvInt("BUCKET_CONCURRENCY", 0),
			CacheTTL:          parseDuration(getEnv("CACHE_TTL", "24h"), 24*time.Hour),
			PhoneRegion:       strings.ToUpper(getEnv("DEFAULT_PHONE_REGION", defaultRegionCode)),
		},
	}

	box, err := geo.ParseBoundingBox(getEnv("DEFAULT_BBOX", defaultBBox))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_BBOX value: %w", err)
	}
	cfg.Search.DefaultBBox = box

	if cfg.Search.BucketLimit <= 0 || cfg.Search.BucketLimit > maxBucketLimit {
		cfg.Search.BucketLimit = maxBucketLimit
	}
	if len(cfg.Search.Buckets) == 0 {
		return nil, fmt.Errorf("CATEGORY_BUCKETS must list at least one bucket")
	}

	rl, err := parseRateLimit(getEnv("RATE_LIMIT_SEARCH", "30/min"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_SEARCH value: %w", err)
	}
	cfg.RateLimitSearch = rl

	return cfg, nil
}

func parseRateLimit(value string) (RateLimitConfig, error) {
	parts := strings.Split(value, "/")
	if len(parts) != 2 {
		return RateLimitConfig{}, fmt.Errorf("expected format <requests>/<interval>, got %q", value)
	}

	requests, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || requests <= 0 {
		return RateLimitConfig{}, fmt.Errorf("invalid request count: %v", parts[0])
	}

	unit := strings.ToLower(strings.TrimSpace(parts[1]))
	var interval time.Duration
	switch unit {
	case "s", "sec", "second", "seconds":
		interval = time.Second
	case "m", "min", "minute", "minutes":
		interval = time.Minute
	case "h", "hr", "hour", "hours":
		interval = time.Hour
	default:
		return RateLimitConfig{}, fmt.Errorf("unsupported interval unit: %s", unit)
	}

	return RateLimitConfig{Requests: requests, Interval: interval}, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}

// firstEnv returns the first non-empty variable. VITE_GEOAPIFY_API_KEY lets the
// API share the frontend's .env file.
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if val := strings.TrimSpace(os.Getenv(key)); val != "" {
			return val
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) int {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return fallback
}

func parseDuration(input string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(input)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

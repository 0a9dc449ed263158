package entity

import "time"

// SearchCacheEntry is a stored result set for one search scope and category.
type SearchCacheEntry struct {
	CacheKey    string    `json:"cache_key"`
	Results     []Place   `json:"results"`
	City        string    `json:"city"`
	Category    string    `json:"category"`
	ResultCount int       `json:"result_count"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Live reports whether the entry is still valid at now. Expiry is exclusive.
func (e SearchCacheEntry) Live(now time.Time) bool {
	return e.ExpiresAt.After(now)
}

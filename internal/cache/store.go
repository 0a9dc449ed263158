package cache

import (
	"context"
	"strings"

	"github.com/octobees/mapleads/internal/entity"
)

// Store persists search result sets by key. Get only returns entries whose
// expiry is strictly after the current time; Put overwrites any entry with
// the same key.
type Store interface {
	Get(ctx context.Context, key string) (*entity.SearchCacheEntry, bool, error)
	Put(ctx context.Context, entry entity.SearchCacheEntry) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// WriteOutcome describes what happened to a best-effort cache write.
type WriteOutcome string

const (
	WriteWritten WriteOutcome = "written"
	WriteSkipped WriteOutcome = "skipped"
	WriteFailed  WriteOutcome = "failed"
)

// Key builds the cache key for a search scope and category.
func Key(scope, category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		category = "all"
	}
	return strings.ToLower(strings.TrimSpace(scope)) + "|" + category
}

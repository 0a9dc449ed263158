package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/mapleads/internal/cache"
	"github.com/octobees/mapleads/internal/entity"
)

// PGXSearchCacheRepository stores search result sets in the search_cache table.
type PGXSearchCacheRepository struct {
	pool pgxPool
	now  func() time.Time
}

var _ cache.Store = (*PGXSearchCacheRepository)(nil)

// NewPGXSearchCacheRepository wires a pgx backed cache store.
func NewPGXSearchCacheRepository(pool *pgxpool.Pool) *PGXSearchCacheRepository {
	return &PGXSearchCacheRepository{pool: pool, now: time.Now}
}

// Get returns the newest live entry for key.
func (r *PGXSearchCacheRepository) Get(ctx context.Context, key string) (*entity.SearchCacheEntry, bool, error) {
	row := r.pool.QueryRow(ctx, `
        SELECT cache_key, results, city, category, result_count, expires_at, created_at, updated_at
        FROM search_cache
        WHERE cache_key = $1 AND expires_at > $2
        ORDER BY updated_at DESC
        LIMIT 1
    `, key, r.now())

	var (
		entry   entity.SearchCacheEntry
		results []byte
	)
	err := row.Scan(
		&entry.CacheKey,
		&results,
		&entry.City,
		&entry.Category,
		&entry.ResultCount,
		&entry.ExpiresAt,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query search cache: %w", err)
	}

	if len(results) > 0 {
		if err := json.Unmarshal(results, &entry.Results); err != nil {
			return nil, false, fmt.Errorf("decode cached results: %w", err)
		}
	}
	if entry.Results == nil {
		entry.Results = []entity.Place{}
	}
	return &entry, true, nil
}

// Put upserts entry by cache_key.
func (r *PGXSearchCacheRepository) Put(ctx context.Context, entry entity.SearchCacheEntry) error {
	results := entry.Results
	if results == nil {
		results = []entity.Place{}
	}
	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode cache results: %w", err)
	}

	category := entry.Category
	if category == "" {
		category = "all"
	}

	_, err = r.pool.Exec(ctx, `
        INSERT INTO search_cache (cache_key, results, city, category, result_count, expires_at, created_at, updated_at)
        VALUES ($1, $2::jsonb, $3, $4, $5, $6, NOW(), NOW())
        ON CONFLICT (cache_key) DO UPDATE SET
            results = EXCLUDED.results,
            city = EXCLUDED.city,
            category = EXCLUDED.category,
            result_count = EXCLUDED.result_count,
            expires_at = EXCLUDED.expires_at,
            updated_at = NOW()
    `, entry.CacheKey, string(payload), entry.City, category, len(results), entry.ExpiresAt)
	if err != nil {
		return fmt.Errorf("upsert search cache: %w", err)
	}
	return nil
}

// DeleteExpired removes every entry whose expiry has passed.
func (r *PGXSearchCacheRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM search_cache WHERE expires_at <= $1`, r.now())
	if err != nil {
		return 0, fmt.Errorf("delete expired search cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

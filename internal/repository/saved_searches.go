package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/mapleads/internal/dto"
	"github.com/octobees/mapleads/internal/entity"
)

// SavedSearchesRepository persists named searches. Every operation is scoped
// to one user.
type SavedSearchesRepository interface {
	Create(ctx context.Context, search *entity.SavedSearch) (*entity.SavedSearch, error)
	List(ctx context.Context, userID string, page dto.PageRequest) ([]entity.SavedSearch, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*entity.SavedSearch, error)
	Update(ctx context.Context, search *entity.SavedSearch) (*entity.SavedSearch, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// PGXSavedSearchesRepository implements SavedSearchesRepository with pgx.
type PGXSavedSearchesRepository struct {
	pool pgxPool
}

// NewPGXSavedSearchesRepository instantiates a saved searches repository.
func NewPGXSavedSearchesRepository(pool *pgxpool.Pool) *PGXSavedSearchesRepository {
	return &PGXSavedSearchesRepository{pool: pool}
}

const savedSearchColumns = `id, user_id, name, category, city, bbox, notes, created_at, updated_at`

// Create stores a new saved search.
func (r *PGXSavedSearchesRepository) Create(ctx context.Context, search *entity.SavedSearch) (*entity.SavedSearch, error) {
	if search == nil {
		return nil, fmt.Errorf("saved search payload is nil")
	}
	row := r.pool.QueryRow(ctx, `
        INSERT INTO saved_searches (user_id, name, category, city, bbox, notes)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING `+savedSearchColumns,
		search.UserID,
		search.Name,
		search.Category,
		stringOrNil(search.City),
		floatsOrNil(search.BBox),
		stringOrNil(search.Notes),
	)
	saved, err := scanSavedSearch(row)
	if err != nil {
		return nil, fmt.Errorf("create saved search: %w", err)
	}
	return saved, nil
}

// List returns a user's saved searches, most recently changed first.
func (r *PGXSavedSearchesRepository) List(ctx context.Context, userID string, page dto.PageRequest) ([]entity.SavedSearch, error) {
	page = page.Normalized()
	rows, err := r.pool.Query(ctx, `SELECT `+savedSearchColumns+` FROM saved_searches
        WHERE user_id = $1 ORDER BY updated_at DESC, name ASC LIMIT $2 OFFSET $3`,
		userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list saved searches: %w", err)
	}
	defer rows.Close()

	searches := make([]entity.SavedSearch, 0)
	for rows.Next() {
		search, err := scanSavedSearch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan saved search: %w", err)
		}
		searches = append(searches, *search)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate saved searches: %w", err)
	}
	return searches, nil
}

// Get fetches one of the user's saved searches.
func (r *PGXSavedSearchesRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*entity.SavedSearch, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+savedSearchColumns+` FROM saved_searches WHERE id = $1 AND user_id = $2`, id, userID)
	search, err := scanSavedSearch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSearchNotFound
		}
		return nil, fmt.Errorf("query saved search: %w", err)
	}
	return search, nil
}

// Update overwrites the editable columns of an existing saved search.
func (r *PGXSavedSearchesRepository) Update(ctx context.Context, search *entity.SavedSearch) (*entity.SavedSearch, error) {
	if search == nil {
		return nil, fmt.Errorf("saved search payload is nil")
	}
	row := r.pool.QueryRow(ctx, `
        UPDATE saved_searches
        SET name = $1, category = $2, city = $3, bbox = $4, notes = $5, updated_at = NOW()
        WHERE id = $6 AND user_id = $7
        RETURNING `+savedSearchColumns,
		search.Name,
		search.Category,
		stringOrNil(search.City),
		floatsOrNil(search.BBox),
		stringOrNil(search.Notes),
		search.ID,
		search.UserID,
	)
	updated, err := scanSavedSearch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSearchNotFound
		}
		return nil, fmt.Errorf("update saved search: %w", err)
	}
	return updated, nil
}

// Delete removes one of the user's saved searches.
func (r *PGXSavedSearchesRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM saved_searches WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete saved search: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSearchNotFound
	}
	return nil
}

func scanSavedSearch(row pgx.Row) (*entity.SavedSearch, error) {
	var search entity.SavedSearch
	err := row.Scan(
		&search.ID,
		&search.UserID,
		&search.Name,
		&search.Category,
		&search.City,
		&search.BBox,
		&search.Notes,
		&search.CreatedAt,
		&search.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &search, nil
}

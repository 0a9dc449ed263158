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

// ErrSearchNotFound is returned when no history entry or saved search matches
// the lookup for a user.
var ErrSearchNotFound = errors.New("search not found")

// SearchHistoryRepository persists the searches each user ran.
type SearchHistoryRepository interface {
	Insert(ctx context.Context, rec *entity.SearchRecord) (*entity.SearchRecord, error)
	List(ctx context.Context, userID string, page dto.PageRequest) ([]entity.SearchRecord, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	Clear(ctx context.Context, userID string) (int64, error)
}

// PGXSearchHistoryRepository implements SearchHistoryRepository with pgx.
type PGXSearchHistoryRepository struct {
	pool pgxPool
}

// NewPGXSearchHistoryRepository instantiates a search history repository.
func NewPGXSearchHistoryRepository(pool *pgxpool.Pool) *PGXSearchHistoryRepository {
	return &PGXSearchHistoryRepository{pool: pool}
}

const historyColumns = `id, user_id, category, location, scope_source, bbox, source, result_count, created_at`

// Insert appends one entry.
func (r *PGXSearchHistoryRepository) Insert(ctx context.Context, rec *entity.SearchRecord) (*entity.SearchRecord, error) {
	if rec == nil {
		return nil, fmt.Errorf("search record is nil")
	}
	category := rec.Category
	if category == "" {
		category = "all"
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO search_history (user_id, category, location, scope_source, bbox, source, result_count)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING `+historyColumns,
		rec.UserID,
		category,
		rec.Location,
		rec.ScopeSource,
		floatsOrNil(rec.BBox),
		rec.Source,
		rec.ResultCount,
	)
	saved, err := scanSearchRecord(row)
	if err != nil {
		return nil, fmt.Errorf("insert search history: %w", err)
	}
	return saved, nil
}

// List returns a user's history, newest first.
func (r *PGXSearchHistoryRepository) List(ctx context.Context, userID string, page dto.PageRequest) ([]entity.SearchRecord, error) {
	page = page.Normalized()
	rows, err := r.pool.Query(ctx, `SELECT `+historyColumns+` FROM search_history
        WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, page.PerPage, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("list search history: %w", err)
	}
	defer rows.Close()

	records := make([]entity.SearchRecord, 0)
	for rows.Next() {
		rec, err := scanSearchRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan search history: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search history: %w", err)
	}
	return records, nil
}

// Delete removes one entry.
func (r *PGXSearchHistoryRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM search_history WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete search history: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSearchNotFound
	}
	return nil
}

// Clear removes all of a user's history.
func (r *PGXSearchHistoryRepository) Clear(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM search_history WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear search history: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanSearchRecord(row pgx.Row) (*entity.SearchRecord, error) {
	var rec entity.SearchRecord
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.Category,
		&rec.Location,
		&rec.ScopeSource,
		&rec.BBox,
		&rec.Source,
		&rec.ResultCount,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func floatsOrNil(values []float64) any {
	if len(values) == 0 {
		return nil
	}
	return values
}

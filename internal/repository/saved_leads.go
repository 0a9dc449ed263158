package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/mapleads/internal/dto"
	"github.com/octobees/mapleads/internal/entity"
)

// ErrLeadNotFound is returned when no lead matches the lookup for a user.
var ErrLeadNotFound = errors.New("lead not found")

// LeadsRepository declares persistence for saved leads. Every operation is
// scoped to one user.
type LeadsRepository interface {
	Upsert(ctx context.Context, lead *entity.SavedLead) (*entity.SavedLead, error)
	List(ctx context.Context, userID string, filter dto.LeadFilter) ([]entity.SavedLead, error)
	Get(ctx context.Context, userID string, id uuid.UUID) (*entity.SavedLead, error)
	Update(ctx context.Context, userID string, id uuid.UUID, status, notes *string) (*entity.SavedLead, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}

// PGXLeadsRepository implements LeadsRepository with pgx.
type PGXLeadsRepository struct {
	pool pgxPool
}

// NewPGXLeadsRepository instantiates a saved leads repository.
func NewPGXLeadsRepository(pool *pgxpool.Pool) *PGXLeadsRepository {
	return &PGXLeadsRepository{pool: pool}
}

const leadColumns = `id, user_id, place_id, name, address, phone, email, latitude, longitude,
            categories, status, notes, quality_score, raw, created_at, updated_at`

// Upsert saves a lead keyed by (user_id, place_id). Re-saving refreshes the
// place fields and keeps the tracked status; notes are only replaced when given.
func (r *PGXLeadsRepository) Upsert(ctx context.Context, lead *entity.SavedLead) (*entity.SavedLead, error) {
	if lead == nil {
		return nil, fmt.Errorf("lead payload is nil")
	}

	categories := lead.Categories
	if categories == nil {
		categories = []entity.Category{}
	}
	categoriesJSON, err := json.Marshal(categories)
	if err != nil {
		return nil, fmt.Errorf("encode lead categories: %w", err)
	}
	raw := lead.Raw
	if len(raw) == 0 {
		raw = json.RawMessage("{}")
	}
	status := lead.Status
	if status == "" {
		status = entity.LeadStatusNew
	}

	row := r.pool.QueryRow(ctx, `
        INSERT INTO saved_leads (
            user_id, place_id, name, address, phone, email, latitude, longitude,
            categories, status, notes, quality_score, raw
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9::jsonb,$10,$11,$12,$13::jsonb)
        ON CONFLICT (user_id, place_id) DO UPDATE SET
            name = EXCLUDED.name,
            address = EXCLUDED.address,
            phone = EXCLUDED.phone,
            email = EXCLUDED.email,
            latitude = EXCLUDED.latitude,
            longitude = EXCLUDED.longitude,
            categories = EXCLUDED.categories,
            notes = COALESCE(EXCLUDED.notes, saved_leads.notes),
            quality_score = EXCLUDED.quality_score,
            raw = EXCLUDED.raw,
            updated_at = NOW()
        RETURNING `+leadColumns,
		lead.UserID,
		lead.PlaceID,
		lead.Name,
		stringOrNil(lead.Address),
		stringOrNil(lead.Phone),
		stringOrNil(lead.Email),
		floatOrNil(lead.Latitude),
		floatOrNil(lead.Longitude),
		string(categoriesJSON),
		status,
		stringOrNil(lead.Notes),
		lead.QualityScore,
		string(raw),
	)

	saved, err := scanLead(row)
	if err != nil {
		return nil, fmt.Errorf("upsert lead: %w", err)
	}
	return saved, nil
}

// List returns a user's leads, newest first.
func (r *PGXLeadsRepository) List(ctx context.Context, userID string, filter dto.LeadFilter) ([]entity.SavedLead, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT ` + leadColumns + ` FROM saved_leads WHERE user_id = $1`)

	args := []any{userID}
	idx := 2

	if filter.Status != "" {
		query.WriteString(fmt.Sprintf(" AND status = $%d", idx))
		args = append(args, filter.Status)
		idx++
	}
	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		query.WriteString(fmt.Sprintf(" AND (name ILIKE $%d OR address ILIKE $%d)", idx, idx+1))
		args = append(args, pattern, pattern)
		idx += 2
	}

	page := dto.PageRequest{Page: filter.Page, PerPage: filter.PerPage}.Normalized()
	query.WriteString(fmt.Sprintf(" ORDER BY updated_at DESC, name ASC LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	leads := make([]entity.SavedLead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, *lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

// Get fetches one of the user's leads.
func (r *PGXLeadsRepository) Get(ctx context.Context, userID string, id uuid.UUID) (*entity.SavedLead, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM saved_leads WHERE id = $1 AND user_id = $2`, id, userID)
	lead, err := scanLead(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("query lead: %w", err)
	}
	return lead, nil
}

// Update changes status and/or notes. Nil arguments leave the column as is.
func (r *PGXLeadsRepository) Update(ctx context.Context, userID string, id uuid.UUID, status, notes *string) (*entity.SavedLead, error) {
	sets := []string{}
	args := []any{}
	idx := 1

	if status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", idx))
		args = append(args, *status)
		idx++
	}
	if notes != nil {
		sets = append(sets, fmt.Sprintf("notes = $%d", idx))
		args = append(args, stringOrNil(notes))
		idx++
	}
	if len(sets) == 0 {
		return r.Get(ctx, userID, id)
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(`UPDATE saved_leads SET %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(sets, ", "), idx, idx+1, leadColumns)
	args = append(args, id, userID)

	lead, err := scanLead(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

// Delete removes one of the user's leads.
func (r *PGXLeadsRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM saved_leads WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete lead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func scanLead(row pgx.Row) (*entity.SavedLead, error) {
	var (
		lead       entity.SavedLead
		categories []byte
		raw        []byte
	)
	err := row.Scan(
		&lead.ID,
		&lead.UserID,
		&lead.PlaceID,
		&lead.Name,
		&lead.Address,
		&lead.Phone,
		&lead.Email,
		&lead.Latitude,
		&lead.Longitude,
		&categories,
		&lead.Status,
		&lead.Notes,
		&lead.QualityScore,
		&raw,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	lead.Categories = []entity.Category{}
	if len(categories) > 0 {
		if err := json.Unmarshal(categories, &lead.Categories); err != nil {
			return nil, fmt.Errorf("decode lead categories: %w", err)
		}
	}
	if len(raw) > 0 {
		lead.Raw = json.RawMessage(raw)
	} else {
		lead.Raw = json.RawMessage("{}")
	}
	return &lead, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/octobees/mapleads/internal/dto"
	"github.com/octobees/mapleads/internal/entity"
	"github.com/octobees/mapleads/internal/geo"
	"github.com/octobees/mapleads/internal/geoapify"
	"github.com/octobees/mapleads/internal/repository"
)

// ErrInvalidSearch is returned when a saved search payload is incomplete or
// names an unknown category or a malformed area.
var ErrInvalidSearch = errors.New("invalid saved search")

// SearchesService keeps a user's search history and named searches.
type SearchesService struct {
	history repository.SearchHistoryRepository
	saved   repository.SavedSearchesRepository
}

// NewSearchesService builds a new SearchesService instance.
func NewSearchesService(history repository.SearchHistoryRepository, saved repository.SavedSearchesRepository) *SearchesService {
	return &SearchesService{history: history, saved: saved}
}

// Record appends a search to the user's history.
func (s *SearchesService) Record(ctx context.Context, record *entity.SearchRecord) error {
	if record == nil || record.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidSearch)
	}
	_, err := s.history.Insert(ctx, record)
	return err
}

// History lists the user's searches, newest first.
func (s *SearchesService) History(ctx context.Context, userID string, page dto.PageRequest) ([]entity.SearchRecord, error) {
	return s.history.List(ctx, userID, page.Normalized())
}

// DeleteHistory removes one history entry.
func (s *SearchesService) DeleteHistory(ctx context.Context, userID string, id uuid.UUID) error {
	return s.history.Delete(ctx, userID, id)
}

// ClearHistory removes every history entry of the user.
func (s *SearchesService) ClearHistory(ctx context.Context, userID string) (int64, error) {
	return s.history.Clear(ctx, userID)
}

// Save names a search for later runs.
func (s *SearchesService) Save(ctx context.Context, userID string, req dto.SaveSearchRequest) (*entity.SavedSearch, error) {
	search := &entity.SavedSearch{
		UserID:   userID,
		Name:     strings.TrimSpace(req.Name),
		Category: req.Category,
		City:     nonEmpty(req.City),
		BBox:     req.BBox,
		Notes:    req.Notes,
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidSearch)
	}
	if err := normalizeSavedSearch(search); err != nil {
		return nil, err
	}
	return s.saved.Create(ctx, search)
}

// ListSaved returns the user's saved searches, most recently changed first.
func (s *SearchesService) ListSaved(ctx context.Context, userID string, page dto.PageRequest) ([]entity.SavedSearch, error) {
	return s.saved.List(ctx, userID, page.Normalized())
}

// GetSaved returns one saved search.
func (s *SearchesService) GetSaved(ctx context.Context, userID string, id uuid.UUID) (*entity.SavedSearch, error) {
	return s.saved.Get(ctx, userID, id)
}

// UpdateSaved applies the fields present in req. Setting a city clears the
// box and the other way round.
func (s *SearchesService) UpdateSaved(ctx context.Context, userID string, id uuid.UUID, req dto.UpdateSavedSearchRequest) (*entity.SavedSearch, error) {
	if req.Name == nil && req.Category == nil && req.City == nil && req.BBox == nil && req.Notes == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidSearch)
	}
	search, err := s.saved.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		search.Name = strings.TrimSpace(*req.Name)
	}
	if req.Category != nil {
		search.Category = *req.Category
	}
	if req.City != nil {
		search.City = nonEmpty(*req.City)
		if search.City != nil && req.BBox == nil {
			search.BBox = nil
		}
	}
	if req.BBox != nil {
		search.BBox = *req.BBox
		if len(search.BBox) > 0 && req.City == nil {
			search.City = nil
		}
	}
	if req.Notes != nil {
		search.Notes = req.Notes
	}
	if err := normalizeSavedSearch(search); err != nil {
		return nil, err
	}
	return s.saved.Update(ctx, search)
}

// DeleteSaved removes a saved search.
func (s *SearchesService) DeleteSaved(ctx context.Context, userID string, id uuid.UUID) error {
	return s.saved.Delete(ctx, userID, id)
}

// RunRequest turns a saved search into the request that reruns it for the user.
func RunRequest(search *entity.SavedSearch, userID string, refresh bool) dto.SearchRequest {
	req := dto.SearchRequest{
		Category: search.Category,
		BBox:     search.BBox,
		Refresh:  refresh,
		UserID:   userID,
	}
	if search.City != nil {
		req.City = *search.City
	}
	return req
}

func normalizeSavedSearch(search *entity.SavedSearch) error {
	if search.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidSearch)
	}

	category := strings.ToLower(strings.TrimSpace(search.Category))
	if geoapify.IsAll(category) {
		category = geoapify.AllCategories
	} else if _, ok := geoapify.ResolveCategory(category); !ok {
		return fmt.Errorf("%w: unknown category %q", ErrInvalidSearch, search.Category)
	}
	search.Category = category

	if search.City != nil && len(search.BBox) > 0 {
		return fmt.Errorf("%w: provide either city or bbox", ErrInvalidSearch)
	}
	if len(search.BBox) > 0 {
		if _, err := geo.FromSlice(search.BBox); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSearch, err)
		}
	} else {
		search.BBox = nil
	}
	return nil
}

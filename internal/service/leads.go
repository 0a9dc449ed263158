package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/octobees/mapleads/internal/dto"
	"github.com/octobees/mapleads/internal/entity"
	"github.com/octobees/mapleads/internal/repository"
)

var (
	// ErrInvalidStatus is returned for a status outside entity.LeadStatuses.
	ErrInvalidStatus = errors.New("invalid lead status")
	// ErrInvalidLead is returned when a lead payload is incomplete.
	ErrInvalidLead = errors.New("invalid lead")
)

// LeadsService manages the places users chose to track.
type LeadsService struct {
	repo repository.LeadsRepository
}

// NewLeadsService builds a new LeadsService instance.
func NewLeadsService(repo repository.LeadsRepository) *LeadsService {
	return &LeadsService{repo: repo}
}

// Save stores a search result for the user. Saving the same place twice
// refreshes its details.
func (s *LeadsService) Save(ctx context.Context, userID string, req dto.SaveLeadRequest) (*entity.SavedLead, error) {
	place := req.Place
	place.ID = strings.TrimSpace(place.ID)
	place.Name = strings.TrimSpace(place.Name)
	if userID == "" || place.ID == "" || place.Name == "" {
		return nil, fmt.Errorf("%w: place id and name are required", ErrInvalidLead)
	}

	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = entity.LeadStatusNew
	}
	if !entity.ValidLeadStatus(status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	raw, err := json.Marshal(place)
	if err != nil {
		return nil, fmt.Errorf("encode place: %w", err)
	}

	lead := &entity.SavedLead{
		UserID:       userID,
		PlaceID:      place.ID,
		Name:         place.Name,
		Address:      nonEmpty(firstNonBlank(place.FormattedAddress, place.Address)),
		Phone:        nonEmpty(place.Phone),
		Email:        nonEmpty(place.Email),
		Latitude:     place.Latitude,
		Longitude:    place.Longitude,
		Categories:   place.Categories,
		Status:       status,
		Notes:        req.Notes,
		QualityScore: place.QualityScore,
		Raw:          raw,
	}
	return s.repo.Upsert(ctx, lead)
}

// List returns the user's leads respecting pagination defaults.
func (s *LeadsService) List(ctx context.Context, userID string, filter dto.LeadFilter) ([]entity.SavedLead, error) {
	filter.Status = strings.TrimSpace(filter.Status)
	if filter.Status != "" && !entity.ValidLeadStatus(filter.Status) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, filter.Status)
	}
	return s.repo.List(ctx, userID, filter.Normalized())
}

// Get returns one of the user's leads.
func (s *LeadsService) Get(ctx context.Context, userID string, id uuid.UUID) (*entity.SavedLead, error) {
	return s.repo.Get(ctx, userID, id)
}

// Update changes the status and/or notes of a lead.
func (s *LeadsService) Update(ctx context.Context, userID string, id uuid.UUID, req dto.UpdateLeadRequest) (*entity.SavedLead, error) {
	if req.Status == nil && req.Notes == nil {
		return nil, fmt.Errorf("%w: nothing to update", ErrInvalidLead)
	}
	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		if !entity.ValidLeadStatus(status) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
		}
		req.Status = &status
	}
	return s.repo.Update(ctx, userID, id, req.Status, req.Notes)
}

// Delete removes a lead.
func (s *LeadsService) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	return s.repo.Delete(ctx, userID, id)
}

func nonEmpty(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

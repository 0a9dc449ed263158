package dto

import "github.com/octobees/mapleads/internal/entity"

// SaveLeadRequest stores a place from a search result as a lead.
type SaveLeadRequest struct {
	Place  entity.Place `json:"place"`
	Status string       `json:"status,omitempty"`
	Notes  *string      `json:"notes,omitempty"`
}

// UpdateLeadRequest changes a lead's status, notes or both.
type UpdateLeadRequest struct {
	Status *string `json:"status,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// LeadFilter contains query parameters for lead listing.
type LeadFilter struct {
	Status  string
	Q       string
	Page    int
	PerPage int
}

// Normalized applies the paging defaults and the page size cap.
func (f LeadFilter) Normalized() LeadFilter {
	page := PageRequest{Page: f.Page, PerPage: f.PerPage}.Normalized()
	f.Page, f.PerPage = page.Page, page.PerPage
	return f
}

// PageRequest selects one page of a user's list.
type PageRequest struct {
	Page    int
	PerPage int
}

// Normalized applies the paging defaults and the page size cap.
func (p PageRequest) Normalized() PageRequest {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

// Offset is the number of rows before the page. Call it on a normalized page.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// PageMeta is attached to paginated list responses.
type PageMeta struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Count   int `json:"count"`
}

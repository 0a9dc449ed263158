package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/mapleads/internal/dto"
	middlewarepkg "github.com/octobees/mapleads/internal/middleware"
	"github.com/octobees/mapleads/internal/repository"
	"github.com/octobees/mapleads/internal/service"
)

// LeadsHandler exposes saved lead endpoints for the authenticated user.
type LeadsHandler struct {
	service *service.LeadsService
}

// NewLeadsHandler creates a new handler instance.
func NewLeadsHandler(service *service.LeadsService) *LeadsHandler {
	return &LeadsHandler{service: service}
}

// Save handles POST /leads requests.
func (h *LeadsHandler) Save(c echo.Context) error {
	userID := middlewarepkg.UserIDFromContext(c)
	if userID == "" {
		return Error(c, http.StatusUnauthorized, "missing user")
	}

	var req dto.SaveLeadRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	lead, err := h.service.Save(c.Request().Context(), userID, req)
	if err != nil {
		return leadError(c, err, "failed to save lead")
	}
	return Success(c, http.StatusCreated, "lead saved", lead)
}

// List handles GET /leads requests.
func (h *LeadsHandler) List(c echo.Context) error {
	userID := middlewarepkg.UserIDFromContext(c)
	if userID == "" {
		return Error(c, http.StatusUnauthorized, "missing user")
	}

	filter := dto.LeadFilter{
		Status:  strings.TrimSpace(c.QueryParam("status")),
		Q:       strings.TrimSpace(c.QueryParam("q")),
		Page:    parseIntDefault(c.QueryParam("page"), 1),
		PerPage: parseIntDefault(c.QueryParam("per_page"), 20),
	}

	leads, err := h.service.List(c.Request().Context(), userID, filter)
	if err != nil {
		return leadError(c, err, "failed to list leads")
	}
	page := filter.Normalized()
	return SuccessWithMeta(c, http.StatusOK, "leads retrieved", leads, dto.PageMeta{
		Page:    page.Page,
		PerPage: page.PerPage,
		Count:   len(leads),
	})
}

// Get handles GET /leads/:id requests.
func (h *LeadsHandler) Get(c echo.Context) error {
	userID, id, ok := leadTarget(c)
	if !ok {
		return nil
	}
	lead, err := h.service.Get(c.Request().Context(), userID, id)
	if err != nil {
		return leadError(c, err, "failed to fetch lead")
	}
	return Success(c, http.StatusOK, "ok", lead)
}

// Update handles PATCH /leads/:id requests.
func (h *LeadsHandler) Update(c echo.Context) error {
	userID, id, ok := leadTarget(c)
	if !ok {
		return nil
	}

	var req dto.UpdateLeadRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}

	lead, err := h.service.Update(c.Request().Context(), userID, id, req)
	if err != nil {
		return leadError(c, err, "failed to update lead")
	}
	return Success(c, http.StatusOK, "lead updated", lead)
}

// Delete handles DELETE /leads/:id requests.
func (h *LeadsHandler) Delete(c echo.Context) error {
	userID, id, ok := leadTarget(c)
	if !ok {
		return nil
	}
	if err := h.service.Delete(c.Request().Context(), userID, id); err != nil {
		return leadError(c, err, "failed to delete lead")
	}
	return Success(c, http.StatusOK, "lead deleted", nil)
}

// leadTarget reads the caller and lead id. When it reports false the error
// response has already been written.
func leadTarget(c echo.Context) (string, uuid.UUID, bool) {
	userID := middlewarepkg.UserIDFromContext(c)
	if userID == "" {
		_ = Error(c, http.StatusUnauthorized, "missing user")
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = Error(c, http.StatusBadRequest, "invalid lead id")
		return "", uuid.Nil, false
	}
	return userID, id, true
}

func leadError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		return Error(c, http.StatusBadRequest, "invalid status")
	case errors.Is(err, service.ErrInvalidLead):
		return Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrLeadNotFound):
		return Error(c, http.StatusNotFound, "lead not found")
	default:
		return Error(c, http.StatusInternalServerError, fallback)
	}
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}

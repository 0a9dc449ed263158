package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/mapleads/internal/dto"
	middlewarepkg "github.com/octobees/mapleads/internal/middleware"
	"github.com/octobees/mapleads/internal/repository"
	"github.com/octobees/mapleads/internal/service"
)

// SearchesHandler exposes search history and saved searches for the
// authenticated user.
type SearchesHandler struct {
	searches *service.SearchesService
	search   *service.SearchService
}

// NewSearchesHandler creates a new handler instance. search runs saved
// searches.
func NewSearchesHandler(searches *service.SearchesService, search *service.SearchService) *SearchesHandler {
	return &SearchesHandler{searches: searches, search: search}
}

// History handles GET /searches/history requests.
func (h *SearchesHandler) History(c echo.Context) error {
	userID := middlewarepkg.UserIDFromContext(c)
	if userID == "" {
		return Error(c, http.StatusUnauthorized, "missing user")
	}
	page := pageRequest(c)
	records, err := h.searches.History(c.Request().Context(), userID, page)
	if err != nil {
		return searchesError(c, err, "failed to list search history")
	}
	return SuccessWithMeta(c, http.StatusOK, "search history retrieved", records, dto.PageMeta{
		Page:    page.Page,
		PerPage: page.PerPage,
		Count:   len(records),
	})
}

// ClearHistory handles DELETE /searches/history requests.
func (h *SearchesHandler) ClearHistory(c echo.Context) error {
	userID := middlewarepkg.UserIDFromContext(c)
	if userID == "" {
		return Error(c, http.StatusUnauthorized, "missing user")
	}
	deleted, err := h.searches.ClearHistory(c.Request().Context(), userID)
	if err != nil {
		return searchesError(c, err, "failed to clear search history")
	}
	return Success(c, http.StatusOK, "search history cleared", map[string]any{"deleted": deleted})
}

// DeleteHistory handles DELETE /searches/history/:id requests.
func (h *SearchesHandler) DeleteHistory(c echo.Context) error {
	userID, id, ok := searchTarget(c)
	if !ok {
		return nil
	}
	if err := h.searches.DeleteHistory(c.Request().Context(), userID, id); err != nil {
		return searchesError(c, err, "failed to delete search")
	}
	return Success(c, http.StatusOK, "search deleted", nil)
}

// Save handles POST /searches/saved requests.
func (h *SearchesHandler) Save(c echo.Context) error {
	userID := middlewarepkg.UserIDFromContext(c)
	if userID == "" {
		return Error(c, http.StatusUnauthorized, "missing user")
	}
	var req dto.SaveSearchRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	saved, err := h.searches.Save(c.Request().Context(), userID, req)
	if err != nil {
		return searchesError(c, err, "failed to save search")
	}
	return Success(c, http.StatusCreated, "search saved", saved)
}

// ListSaved handles GET /searches/saved requests.
func (h *SearchesHandler) ListSaved(c echo.Context) error {
	userID := middlewarepkg.UserIDFromContext(c)
	if userID == "" {
		return Error(c, http.StatusUnauthorized, "missing user")
	}
	page := pageRequest(c)
	saved, err := h.searches.ListSaved(c.Request().Context(), userID, page)
	if err != nil {
		return searchesError(c, err, "failed to list saved searches")
	}
	return SuccessWithMeta(c, http.StatusOK, "saved searches retrieved", saved, dto.PageMeta{
		Page:    page.Page,
		PerPage: page.PerPage,
		Count:   len(saved),
	})
}

// GetSaved handles GET /searches/saved/:id requests.
func (h *SearchesHandler) GetSaved(c echo.Context) error {
	userID, id, ok := searchTarget(c)
	if !ok {
		return nil
	}
	saved, err := h.searches.GetSaved(c.Request().Context(), userID, id)
	if err != nil {
		return searchesError(c, err, "failed to fetch saved search")
	}
	return Success(c, http.StatusOK, "ok", saved)
}

// UpdateSaved handles PATCH /searches/saved/:id requests.
func (h *SearchesHandler) UpdateSaved(c echo.Context) error {
	userID, id, ok := searchTarget(c)
	if !ok {
		return nil
	}
	var req dto.UpdateSavedSearchRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	saved, err := h.searches.UpdateSaved(c.Request().Context(), userID, id, req)
	if err != nil {
		return searchesError(c, err, "failed to update saved search")
	}
	return Success(c, http.StatusOK, "saved search updated", saved)
}

// DeleteSaved handles DELETE /searches/saved/:id requests.
func (h *SearchesHandler) DeleteSaved(c echo.Context) error {
	userID, id, ok := searchTarget(c)
	if !ok {
		return nil
	}
	if err := h.searches.DeleteSaved(c.Request().Context(), userID, id); err != nil {
		return searchesError(c, err, "failed to delete saved search")
	}
	return Success(c, http.StatusOK, "saved search deleted", nil)
}

// Run handles POST /searches/saved/:id/run requests. ?refresh=true skips
// the cache.
func (h *SearchesHandler) Run(c echo.Context) error {
	userID, id, ok := searchTarget(c)
	if !ok {
		return nil
	}
	saved, err := h.searches.GetSaved(c.Request().Context(), userID, id)
	if err != nil {
		return searchesError(c, err, "failed to fetch saved search")
	}
	refresh, _ := strconv.ParseBool(c.QueryParam("refresh"))

	resp, err := h.search.Search(c.Request().Context(), service.RunRequest(saved, userID, refresh))
	if err != nil {
		return searchError(c, err)
	}
	return Success(c, http.StatusOK, "leads retrieved", resp)
}

func pageRequest(c echo.Context) dto.PageRequest {
	return dto.PageRequest{
		Page:    parseIntDefault(c.QueryParam("page"), 1),
		PerPage: parseIntDefault(c.QueryParam("per_page"), 20),
	}.Normalized()
}

// searchTarget reads the caller and the history or saved search id. When it
// reports false the error response has already been written.
func searchTarget(c echo.Context) (string, uuid.UUID, bool) {
	userID := middlewarepkg.UserIDFromContext(c)
	if userID == "" {
		_ = Error(c, http.StatusUnauthorized, "missing user")
		return "", uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		_ = Error(c, http.StatusBadRequest, "invalid search id")
		return "", uuid.Nil, false
	}
	return userID, id, true
}

func searchesError(c echo.Context, err error, fallback string) error {
	switch {
	case errors.Is(err, service.ErrInvalidSearch):
		return Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrSearchNotFound):
		return Error(c, http.StatusNotFound, "search not found")
	default:
		return Error(c, http.StatusInternalServerError, fallback)
	}
}

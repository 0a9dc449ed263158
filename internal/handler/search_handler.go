package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/mapleads/internal/dto"
	"github.com/octobees/mapleads/internal/geoapify"
	middlewarepkg "github.com/octobees/mapleads/internal/middleware"
	"github.com/octobees/mapleads/internal/service"
)

const missingKeyMessage = "Geoapify API key not configured"

// SearchHandler exposes the lead search and cache administration endpoints.
type SearchHandler struct {
	service *service.SearchService
}

// NewSearchHandler creates a new handler instance.
func NewSearchHandler(service *service.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

// Search handles POST /search requests.
func (h *SearchHandler) Search(c echo.Context) error {
	var req dto.SearchRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	req.Category = strings.TrimSpace(req.Category)
	req.City = strings.TrimSpace(req.City)
	req.UserID = middlewarepkg.UserIDFromContext(c)

	resp, err := h.service.Search(c.Request().Context(), req)
	if err != nil {
		return searchError(c, err)
	}
	return Success(c, http.StatusOK, "leads retrieved", resp)
}

func searchError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidScope):
		return Error(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrCityNotFound):
		return Error(c, http.StatusNotFound, "city not found")
	case errors.Is(err, service.ErrGeocoderUnavailable):
		return Error(c, http.StatusBadGateway, "geocoding failed")
	case errors.Is(err, geoapify.ErrMissingAPIKey):
		return Error(c, http.StatusInternalServerError, missingKeyMessage)
	case errors.Is(err, context.DeadlineExceeded):
		return Error(c, http.StatusGatewayTimeout, "search timed out")
	default:
		return Error(c, http.StatusInternalServerError, "search failed")
	}
}

// Categories handles GET /categories requests.
func (h *SearchHandler) Categories(c echo.Context) error {
	return Success(c, http.StatusOK, "categories retrieved", geoapify.PopularCategories())
}

// PurgeCache handles DELETE /admin/cache/expired requests.
func (h *SearchHandler) PurgeCache(c echo.Context) error {
	deleted, err := h.service.PurgeExpired(c.Request().Context())
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to purge cache")
	}
	return Success(c, http.StatusOK, "expired cache entries removed", map[string]any{"deleted": deleted})
}

package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/octobees/mapleads/internal/geoapify"
	"github.com/octobees/mapleads/internal/nominatim"
	"github.com/octobees/mapleads/internal/overpass"
)

// ProxyHandler relays map provider requests so API keys and user agents
// stay server side.
type ProxyHandler struct {
	geoapify  *geoapify.Client
	nominatim *nominatim.Client
	overpass  *overpass.Client
}

// NewProxyHandler wires the provider clients.
func NewProxyHandler(g *geoapify.Client, n *nominatim.Client, o *overpass.Client) *ProxyHandler {
	return &ProxyHandler{geoapify: g, nominatim: n, overpass: o}
}

// Places handles GET /api/geoapify/places by forwarding the query string.
func (h *ProxyHandler) Places(c echo.Context) error {
	resp, err := h.geoapify.Places(c.Request().Context(), c.QueryParams())
	return h.relay(c, resp, err)
}

// Geocode handles GET /api/geoapify/geocode.
func (h *ProxyHandler) Geocode(c echo.Context) error {
	text := strings.TrimSpace(c.QueryParam("text"))
	if text == "" {
		return Error(c, http.StatusBadRequest, "text is required")
	}
	resp, err := h.geoapify.Geocode(c.Request().Context(), text, c.QueryParam("type"), c.QueryParam("limit"))
	return h.relay(c, resp, err)
}

// PlaceDetails handles GET /api/geoapify/place-details.
func (h *ProxyHandler) PlaceDetails(c echo.Context) error {
	id := strings.TrimSpace(c.QueryParam("id"))
	if id == "" {
		return Error(c, http.StatusBadRequest, "id is required")
	}
	resp, err := h.geoapify.PlaceDetails(c.Request().Context(), id)
	return h.relay(c, resp, err)
}

func (h *ProxyHandler) relay(c echo.Context, resp *geoapify.UpstreamResponse, err error) error {
	if err != nil {
		if errors.Is(err, geoapify.ErrMissingAPIKey) {
			return Error(c, http.StatusInternalServerError, missingKeyMessage)
		}
		return Error(c, http.StatusBadGateway, err.Error())
	}
	contentType := resp.ContentType
	if contentType == "" {
		contentType = echo.MIMEApplicationJSON
	}
	return c.Blob(resp.StatusCode, contentType, resp.Body)
}

// Nominatim handles GET /api/geocode.
func (h *ProxyHandler) Nominatim(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return Error(c, http.StatusBadRequest, "missing query parameter: q")
	}
	limit := 1
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return Error(c, http.StatusBadRequest, "invalid limit")
		}
		limit = parsed
	}

	body, err := h.nominatim.Raw(c.Request().Context(), q, limit)
	if err != nil {
		return Error(c, http.StatusBadGateway, err.Error())
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}

type overpassRequest struct {
	Query string `json:"query"`
}

// Overpass handles POST /api/overpass.
func (h *ProxyHandler) Overpass(c echo.Context) error {
	var req overpassRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Query) == "" {
		return Error(c, http.StatusBadRequest, "missing query in request body")
	}

	body, err := h.overpass.Query(c.Request().Context(), req.Query)
	if err != nil {
		if errors.Is(err, overpass.ErrAllEndpointsFailed) {
			return Error(c, http.StatusServiceUnavailable, "All Overpass endpoints failed. Try again later.")
		}
		return Error(c, http.StatusBadGateway, err.Error())
	}
	return c.Blob(http.StatusOK, echo.MIMEApplicationJSON, body)
}

package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/octobees/mapleads/internal/cache"
	"github.com/octobees/mapleads/internal/config"
	"github.com/octobees/mapleads/internal/geo"
	"github.com/octobees/mapleads/internal/geoapify"
	"github.com/octobees/mapleads/internal/service"
)

type fakePlaces struct {
	features []geoapify.Feature
	area     *geoapify.CityArea
	unkeyed  bool
}

func (f *fakePlaces) FetchBucket(ctx context.Context, bucket string, box geo.BoundingBox, limit int) geoapify.BucketResult {
	return geoapify.BucketResult{Bucket: bucket, Status: geoapify.StatusOK, Features: f.features}
}

func (f *fakePlaces) Configured() bool { return !f.unkeyed }

func (f *fakePlaces) GeocodeCity(ctx context.Context, text string) (*geoapify.CityArea, error) {
	if f.area == nil {
		return nil, geoapify.ErrCityNotFound
	}
	return f.area, nil
}

func newTestSearchHandler(places *fakePlaces) *SearchHandler {
	cfg := config.SearchConfig{
		DefaultBBox:      geo.BoundingBox{West: 77.4601, South: 12.834, East: 77.78, North: 13.139},
		DefaultCityLabel: "Bangalore",
		Buckets:          []string{"commercial"},
		BucketLimit:      500,
		CacheTTL:         time.Hour,
		PhoneRegion:      "IN",
	}
	return NewSearchHandler(service.NewSearchService(places, nil, cache.NewMemoryStore(time.Minute), cfg, nil))
}

func postJSON(e *echo.Echo, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSearchHandler_Search(t *testing.T) {
	lon, lat := 77.6, 12.95
	places := &fakePlaces{features: []geoapify.Feature{{Properties: geoapify.Properties{
		PlaceID:      "p1",
		Name:         "Sharma Stores",
		AddressLine1: "12 MG Road",
		Formatted:    "12 MG Road, Bangalore",
		City:         "Bangalore",
		Lon:          &lon,
		Lat:          &lat,
	}}}}
	handler := newTestSearchHandler(places)
	e := echo.New()

	c, rec := postJSON(e, "/search", `{"category":"all"}`)
	if err := handler.Search(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var payload struct {
		Status string `json:"status"`
		Data   struct {
			Places []struct {
				ID           string  `json:"id"`
				QualityScore int     `json:"quality_score"`
				Website      *string `json:"website"`
			} `json:"places"`
			Source     string `json:"source"`
			CacheWrite string `json:"cache_write"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Status != "success" || len(payload.Data.Places) != 1 {
		t.Fatalf("unexpected payload: %s", rec.Body.String())
	}
	got := payload.Data.Places[0]
	if got.ID != "p1" || got.Website != nil || got.QualityScore != 30 {
		t.Fatalf("unexpected place %+v", got)
	}
	if payload.Data.Source != service.SourceLive || payload.Data.CacheWrite != "written" {
		t.Fatalf("unexpected source %q / %q", payload.Data.Source, payload.Data.CacheWrite)
	}
}

func TestSearchHandler_Errors(t *testing.T) {
	e := echo.New()

	tests := []struct {
		name    string
		places  *fakePlaces
		body    string
		code    int
		message string
	}{
		{name: "invalid payload", places: &fakePlaces{}, body: "{", code: http.StatusBadRequest},
		{name: "city and bbox", places: &fakePlaces{}, body: `{"city":"Mysore","bbox":[1,2,3,4]}`, code: http.StatusBadRequest},
		{name: "bad bbox", places: &fakePlaces{}, body: `{"bbox":[1,2]}`, code: http.StatusBadRequest},
		{name: "unknown city", places: &fakePlaces{}, body: `{"city":"Atlantis"}`, code: http.StatusNotFound},
		{name: "missing key", places: &fakePlaces{unkeyed: true}, body: `{}`, code: http.StatusInternalServerError, message: "Geoapify API key not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := postJSON(e, "/search", tt.body)
			_ = newTestSearchHandler(tt.places).Search(c)
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, rec.Code, rec.Body.String())
			}
			var payload APIResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if payload.Status != "error" {
				t.Fatalf("expected error envelope, got %+v", payload)
			}
			if tt.message != "" && payload.Message != tt.message {
				t.Fatalf("expected message %q, got %q", tt.message, payload.Message)
			}
		})
	}
}

func TestSearchHandler_CategoriesAndPurge(t *testing.T) {
	handler := newTestSearchHandler(&fakePlaces{})
	e := echo.New()

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/categories", nil), rec)
	if err := handler.Categories(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var categories struct {
		Data []geoapify.PopularCategory `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &categories); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(categories.Data) != len(geoapify.PopularCategories()) {
		t.Fatalf("unexpected categories %+v", categories.Data)
	}

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/admin/cache/expired", nil), rec)
	if err := handler.PurgeCache(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"deleted":0`) {
		t.Fatalf("unexpected purge response %d %s", rec.Code, rec.Body.String())
	}
}

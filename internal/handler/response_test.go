package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newResponseContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	rec := httptest.NewRecorder()
	return e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec), rec
}

func TestSuccess(t *testing.T) {
	c, rec := newResponseContext()

	if err := Success(c, 0, "search completed", map[string]int{"count": 3}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var payload APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Status != "success" || payload.Message != "search completed" {
		t.Fatalf("unexpected response: %+v", payload)
	}
	if strings.Contains(rec.Body.String(), `"meta"`) {
		t.Fatalf("meta must be omitted when empty: %s", rec.Body.String())
	}
}

func TestSuccessWithMeta(t *testing.T) {
	c, rec := newResponseContext()

	if err := SuccessWithMeta(c, http.StatusOK, "leads retrieved", []string{}, map[string]int{"page": 2}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload struct {
		Meta map[string]int `json:"meta"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Meta["page"] != 2 {
		t.Fatalf("unexpected meta: %s", rec.Body.String())
	}
}

func TestError(t *testing.T) {
	c, rec := newResponseContext()

	if err := Error(c, 0, "upstream failed"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected default status 500, got %d", rec.Code)
	}

	var payload APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Status != "error" || payload.Message != "upstream failed" {
		t.Fatalf("unexpected response: %+v", payload)
	}
}

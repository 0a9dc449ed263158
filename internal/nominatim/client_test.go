package nominatim

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCityBox(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "MapLeads/1.0" || r.Header.Get("Accept-Language") != "en" {
			t.Errorf("missing required headers: %v", r.Header)
		}
		q := r.URL.Query()
		if q.Get("format") != "json" || q.Get("addressdetails") != "1" || q.Get("limit") != "1" {
			t.Errorf("unexpected query %v", q)
		}
		if q.Get("q") == "Atlantis" {
			io.WriteString(w, `[]`)
			return
		}
		io.WriteString(w, `[{"place_id":1,"display_name":"Pune, Maharashtra, India","lat":"18.5","lon":"73.8","boundingbox":["18.4","18.6","73.7","74.0"],"address":{"city":"Pune"}}]`)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, HTTPClient: server.Client()})

	box, name, err := client.CityBox(context.Background(), "Pune")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Pune" {
		t.Fatalf("expected Pune, got %q", name)
	}
	if box.West != 73.7 || box.South != 18.4 || box.East != 74.0 || box.North != 18.6 {
		t.Fatalf("unexpected box %+v", box)
	}

	if _, _, err := client.CityBox(context.Background(), "Atlantis"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSearchErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(Options{BaseURL: server.URL, HTTPClient: server.Client()})
	if _, err := client.Search(context.Background(), "Pune", 1); err == nil {
		t.Fatalf("expected error for 503")
	}
	if _, err := client.Raw(context.Background(), "  ", 1); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestPlaceName(t *testing.T) {
	p := Place{DisplayName: "Springfield, Somewhere"}
	if p.Name() != "Springfield" {
		t.Fatalf("unexpected name %q", p.Name())
	}
	p.Address = map[string]string{"town": "Shelbyville"}
	if p.Name() != "Shelbyville" {
		t.Fatalf("expected town from address, got %q", p.Name())
	}
	if _, err := (Place{BoundingBox: []string{"1", "x", "2", "3"}}).Box(); err == nil {
		t.Fatalf("expected parse error")
	}
}

package overpass

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestQueryFallsBackPastNonJSON(t *testing.T) {
	var hits []string
	busy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "busy")
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, "<html>rate limited</html>")
	}))
	defer busy.Close()

	ok := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "ok")
		if err := r.ParseForm(); err != nil || r.PostForm.Get("data") != "[out:json];node(1);out;" {
			t.Errorf("unexpected form %v", r.PostForm)
		}
		io.WriteString(w, `{"elements":[{"id":1}]}`)
	}))
	defer ok.Close()

	never := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, "never")
	}))
	defer never.Close()

	client := NewClient([]string{busy.URL, ok.URL, never.URL}, nil, 0, nil)
	body, err := client.Query(context.Background(), "[out:json];node(1);out;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != `{"elements":[{"id":1}]}` {
		t.Fatalf("unexpected body %s", body)
	}
	if len(hits) != 2 || hits[0] != "busy" || hits[1] != "ok" {
		t.Fatalf("unexpected endpoint order %v", hits)
	}
}

func TestQueryAllFail(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "not json")
	}))
	defer bad.Close()

	client := NewClient([]string{bad.URL, "http://127.0.0.1:0/unreachable"}, nil, 0, nil)
	if _, err := client.Query(context.Background(), "x"); !errors.Is(err, ErrAllEndpointsFailed) {
		t.Fatalf("expected ErrAllEndpointsFailed, got %v", err)
	}
	if _, err := client.Query(context.Background(), " "); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

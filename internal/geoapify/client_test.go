package geoapify

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/octobees/mapleads/internal/geo"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

var testBox = geo.BoundingBox{West: 77.4601, South: 12.834, East: 77.78, North: 13.139}

const placesBody = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {
				"place_id": "p1",
				"name": "Joe's Cafe",
				"address_line1": "1 Main St",
				"city": "Bangalore",
				"lat": 12.9,
				"lon": 77.6,
				"categories": ["catering", "catering.cafe"],
				"contact": {"phone": "+91 80 1234 5678"},
				"extra": {"nested": true}
			},
			"geometry": {"type": "Point", "coordinates": [77.6, 12.9]}
		}
	]
}`

func TestFetchBucket_OK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/places" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("categories") != "catering.cafe" {
			t.Errorf("unexpected categories %q", q.Get("categories"))
		}
		if q.Get("filter") != "rect:77.4601,12.834,77.78,13.139" {
			t.Errorf("unexpected filter %q", q.Get("filter"))
		}
		if q.Get("limit") != "500" || q.Get("apiKey") != "key" {
			t.Errorf("unexpected query %v", q)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, placesBody)
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "key", BaseURL: server.URL, HTTPClient: server.Client()})
	res := client.FetchBucket(context.Background(), "catering.cafe", testBox, 900)
	if !res.OK() {
		t.Fatalf("expected ok, got %s (%v)", res.Status, res.Err)
	}
	if res.Count != 1 || len(res.Features) != 1 {
		t.Fatalf("expected one feature, got %d", len(res.Features))
	}

	f := res.Features[0]
	if f.ID() != "p1" || f.ContactPhone() != "+91 80 1234 5678" {
		t.Fatalf("unexpected feature: %+v", f.Properties)
	}
	lon, lat, ok := f.Coordinates()
	if !ok || lon != 77.6 || lat != 12.9 {
		t.Fatalf("unexpected coordinates %v %v %v", lon, lat, ok)
	}
	if !strings.Contains(string(f.Properties.Raw), `"nested"`) {
		t.Fatalf("expected raw properties to be kept, got %s", f.Properties.Raw)
	}
}

func TestFetchBucket_DropsMalformedRecords(t *testing.T) {
	body := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {"place_id": "good", "name": "Joe's Cafe", "address_line1": "1 Main St"}},
			{"type": "Feature", "properties": {"place_id": "bad", "name": 12345}},
			{"type": "Feature", "properties": {"place_id": "also-good", "name": "Ravi Tailors", "lat": "north"}}
		]
	}`
	httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}, nil
	})}

	client := NewClient(Options{APIKey: "key", HTTPClient: httpClient})
	res := client.FetchBucket(context.Background(), "catering.cafe", testBox, 0)
	if res.Status != StatusOK || res.Err != nil {
		t.Fatalf("expected ok, got %s (%v)", res.Status, res.Err)
	}
	if res.Count != 1 || res.Dropped != 2 {
		t.Fatalf("expected 1 kept and 2 dropped, got %d kept %d dropped", res.Count, res.Dropped)
	}
	if res.Features[0].ID() != "good" {
		t.Fatalf("unexpected surviving feature %q", res.Features[0].ID())
	}
}

func TestFetchBucket_Failures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		err    error
		want   FetchStatus
	}{
		"invalid category": {status: http.StatusBadRequest, body: `{"error":"bad"}`, want: StatusInvalidCategory},
		"server error":     {status: http.StatusBadGateway, body: `oops`, want: StatusUpstreamError},
		"rate limited":     {status: http.StatusTooManyRequests, body: `{}`, want: StatusUpstreamError},
		"html body":        {status: http.StatusOK, body: `<html></html>`, want: StatusDecodeError},
		"transport":        {err: errors.New("connection reset"), want: StatusNetworkError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			calls := 0
			httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				calls++
				if tc.err != nil {
					return nil, tc.err
				}
				return &http.Response{
					StatusCode: tc.status,
					Body:       io.NopCloser(strings.NewReader(tc.body)),
					Header:     make(http.Header),
				}, nil
			})}

			client := NewClient(Options{APIKey: "key", HTTPClient: httpClient})
			res := client.FetchBucket(context.Background(), "bogus", testBox, 0)
			if res.Status != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, res.Status)
			}
			if len(res.Features) != 0 {
				t.Fatalf("expected no features on failure")
			}
			if calls != 1 {
				t.Fatalf("expected exactly one outbound call, got %d", calls)
			}
		})
	}
}

func TestFetchBucket_Timeout(t *testing.T) {
	httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		<-r.Context().Done()
		return nil, r.Context().Err()
	})}
	client := NewClient(Options{APIKey: "key", HTTPClient: httpClient, Timeout: 10 * time.Millisecond})

	res := client.FetchBucket(context.Background(), "catering.cafe", testBox, 10)
	if res.Status != StatusNetworkError {
		t.Fatalf("expected network error, got %s", res.Status)
	}
}

func TestFetchBucket_MissingKey(t *testing.T) {
	client := NewClient(Options{})
	res := client.FetchBucket(context.Background(), "catering.cafe", testBox, 10)
	if res.OK() || !errors.Is(res.Err, ErrMissingAPIKey) {
		t.Fatalf("expected missing key failure, got %+v", res)
	}
}

func TestGeocodeCity(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/v1/geocode/search" || q.Get("type") != "city" || q.Get("limit") != "1" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		w.Header().Set("Content-Type", "application/json")
		switch q.Get("text") {
		case "Austin, USA":
			io.WriteString(w, `{"features":[{"properties":{"city":"Austin","country":"United States","state":"Texas"},"bbox":[-97.9,30.1,-97.5,30.5]}]}`)
		case "Nowhere":
			io.WriteString(w, `{"features":[]}`)
		default:
			io.WriteString(w, `{"features":[{"properties":{"name":"Blob"}}]}`)
		}
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "key", BaseURL: server.URL, HTTPClient: server.Client()})

	area, err := client.GeocodeCity(context.Background(), "Austin, USA")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if area.Name != "Austin" || len(area.BBox) != 4 || area.BBox[0] != -97.9 {
		t.Fatalf("unexpected area: %+v", area)
	}

	if _, err := client.GeocodeCity(context.Background(), "Nowhere"); !errors.Is(err, ErrCityNotFound) {
		t.Fatalf("expected ErrCityNotFound, got %v", err)
	}
	if _, err := client.GeocodeCity(context.Background(), "Blob"); !errors.Is(err, ErrInvalidBBox) {
		t.Fatalf("expected ErrInvalidBBox, got %v", err)
	}
}

func TestForwardInjectsKey(t *testing.T) {
	var seen url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"nope"}`)
	}))
	defer server.Close()

	client := NewClient(Options{APIKey: "secret", BaseURL: server.URL, HTTPClient: server.Client()})
	query := url.Values{"categories": {"catering"}, "apiKey": {"client-supplied"}}

	resp, err := client.Places(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusUnauthorized || string(resp.Body) != `{"message":"nope"}` {
		t.Fatalf("expected upstream status and body relayed, got %d %s", resp.StatusCode, resp.Body)
	}
	if seen.Get("apiKey") != "secret" || seen.Get("categories") != "catering" {
		t.Fatalf("unexpected forwarded query %v", seen)
	}
	if query.Get("apiKey") != "client-supplied" {
		t.Fatalf("caller query must not be mutated")
	}

	if _, err := NewClient(Options{}).PlaceDetails(context.Background(), "x"); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}

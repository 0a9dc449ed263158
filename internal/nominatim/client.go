package nominatim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/octobees/mapleads/internal/geo"
	"github.com/octobees/mapleads/internal/logger"
	"github.com/octobees/mapleads/internal/telemetry"
)

const (
	defaultBaseURL   = "https://nominatim.openstreetmap.org"
	defaultUserAgent = "MapLeads/1.0"
	maxBodyBytes     = 8 << 20
)

// ErrNotFound means the search returned no results.
var ErrNotFound = errors.New("nominatim: no match")

// Place is one search hit. Nominatim encodes numbers as strings.
type Place struct {
	PlaceID     int64             `json:"place_id"`
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Class       string            `json:"class"`
	Type        string            `json:"type"`
	BoundingBox []string          `json:"boundingbox"`
	Address     map[string]string `json:"address,omitempty"`
}

// Box converts the [south, north, west, east] string box into a geo box.
func (p Place) Box() (geo.BoundingBox, error) {
	if len(p.BoundingBox) != 4 {
		return geo.BoundingBox{}, fmt.Errorf("expected 4 bounding box values, got %d", len(p.BoundingBox))
	}
	var v [4]float64
	for i, raw := range p.BoundingBox {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return geo.BoundingBox{}, fmt.Errorf("parse bounding box value %q: %w", raw, err)
		}
		v[i] = f
	}
	box := geo.BoundingBox{West: v[2], South: v[0], East: v[3], North: v[1]}
	return box, box.Validate()
}

// Name prefers the city level address component over the display name.
func (p Place) Name() string {
	for _, key := range []string{"city", "town", "village", "municipality"} {
		if v := p.Address[key]; v != "" {
			return v
		}
	}
	if idx := strings.Index(p.DisplayName, ","); idx > 0 {
		return strings.TrimSpace(p.DisplayName[:idx])
	}
	return p.DisplayName
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Timeout    time.Duration
	Logger     *zap.Logger
}

// Client queries a Nominatim search endpoint. The public instance allows one
// request per second, which the client enforces.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	timeout   time.Duration
	limiter   *rate.Limiter
	log       *zap.Logger
}

// NewClient builds a client with defaults for the public instance.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: ua,
		http:      httpClient,
		timeout:   timeout,
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
		log:       logger.OrNop(opts.Logger).Named("nominatim"),
	}
}

// Raw runs a search and returns the body untouched, for relaying.
func (c *Client) Raw(ctx context.Context, q string, limit int) ([]byte, error) {
	return c.search(ctx, q, limit)
}

// Search runs a search and decodes the results.
func (c *Client) Search(ctx context.Context, q string, limit int) ([]Place, error) {
	body, err := c.search(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	var places []Place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("decode nominatim response: %w", err)
	}
	return places, nil
}

// CityBox geocodes q and returns the extent of the first hit.
func (c *Client) CityBox(ctx context.Context, q string) (geo.BoundingBox, string, error) {
	places, err := c.Search(ctx, q, 1)
	if err != nil {
		return geo.BoundingBox{}, "", err
	}
	if len(places) == 0 {
		return geo.BoundingBox{}, "", ErrNotFound
	}
	box, err := places[0].Box()
	if err != nil {
		return geo.BoundingBox{}, "", err
	}
	return box, places[0].Name(), nil
}

func (c *Client) search(ctx context.Context, q string, limit int) ([]byte, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{}
	params.Set("q", q)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build nominatim request: %w", err)
	}
	req.Header.Set("Accept-Language", "en")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.http.Do(req)
	telemetry.ObserveUpstream("nominatim", time.Since(start).Seconds())
	if err != nil {
		c.log.Warn("search failed", zap.String("q", q), zap.Error(err))
		return nil, fmt.Errorf("nominatim request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("nominatim returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read nominatim response: %w", err)
	}
	return body, nil
}

package geoapify

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
	// MaxBucketLimit is the largest page the places API returns.
	MaxBucketLimit = 500

	defaultBaseURL = "https://api.geoapify.com"
	defaultTimeout = 20 * time.Second
	maxBodyBytes   = 32 << 20
)

var (
	// ErrMissingAPIKey is returned when no key was configured.
	ErrMissingAPIKey = errors.New("geoapify api key not configured")
	// ErrCityNotFound means the geocoder had no match for the text.
	ErrCityNotFound = errors.New("city not found")
	// ErrInvalidBBox means the geocoder matched but returned no usable extent.
	ErrInvalidBBox = errors.New("geocoder returned no usable bounding box")
)

// Options configures a Client.
type Options struct {
	APIKey            string
	BaseURL           string
	HTTPClient        *http.Client
	RequestsPerSecond int
	Timeout           time.Duration
	Logger            *zap.Logger
}

// Client talks to the Geoapify places, place-details and geocoding APIs.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
	log     *zap.Logger
}

// NewClient builds a client. A non-positive rate disables client-side pacing.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	var limiter *rate.Limiter
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.RequestsPerSecond)
	}

	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		http:    httpClient,
		limiter: limiter,
		timeout: timeout,
		log:     logger.OrNop(opts.Logger).Named("geoapify"),
	}
}

// Configured reports whether an API key is present.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// FetchBucket issues exactly one places request for a category bucket inside
// box. It never returns an error: failures are reported through the result
// status and carry no features.
func (c *Client) FetchBucket(ctx context.Context, bucket string, box geo.BoundingBox, limit int) BucketResult {
	start := time.Now()
	result := c.fetchBucket(ctx, bucket, box, limit)
	result.Duration = time.Since(start)
	result.Count = len(result.Features)

	telemetry.ObserveBucketFetch(bucket, string(result.Status))
	telemetry.ObserveUpstream("geoapify", result.Duration.Seconds())

	fields := []zap.Field{
		zap.String("bucket", bucket),
		zap.String("status", string(result.Status)),
		zap.Int("count", result.Count),
		zap.Int("dropped", result.Dropped),
		zap.Duration("took", result.Duration),
	}
	switch result.Status {
	case StatusOK:
		c.log.Debug("bucket fetched", fields...)
	case StatusInvalidCategory:
		c.log.Warn("invalid category bucket", fields...)
	default:
		fields = append(fields, zap.Int("http_status", result.HTTPStatus), zap.Error(result.Err))
		c.log.Warn("bucket fetch failed", fields...)
	}

	return result
}

func (c *Client) fetchBucket(ctx context.Context, bucket string, box geo.BoundingBox, limit int) BucketResult {
	result := BucketResult{Bucket: bucket}
	if !c.Configured() {
		result.Status = StatusUpstreamError
		result.Err = ErrMissingAPIKey
		return result
	}
	if limit <= 0 || limit > MaxBucketLimit {
		limit = MaxBucketLimit
	}

	params := url.Values{}
	params.Set("categories", bucket)
	params.Set("filter", box.RectFilter())
	params.Set("limit", strconv.Itoa(limit))
	params.Set("apiKey", c.apiKey)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.wait(ctx); err != nil {
		result.Status = StatusNetworkError
		result.Err = err
		return result
	}

	resp, err := c.get(ctx, "/v2/places", params)
	if err != nil {
		result.Status = StatusNetworkError
		result.Err = err
		return result
	}
	defer resp.Body.Close()

	result.HTTPStatus = resp.StatusCode
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		result.Status = StatusInvalidCategory
		result.Err = fmt.Errorf("places api rejected category %q", bucket)
		return result
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		result.Status = StatusUpstreamError
		result.Err = fmt.Errorf("places api returned status %d", resp.StatusCode)
		return result
	}

	var collection rawFeatureCollection
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&collection); err != nil {
		result.Status = StatusDecodeError
		result.Err = fmt.Errorf("decode places response: %w", err)
		return result
	}

	result.Status = StatusOK
	result.Features, result.Dropped = c.decodeFeatures(bucket, collection.Features)
	return result
}

// decodeFeatures decodes each record on its own. A record that does not fit
// the Feature schema is dropped without failing the bucket.
func (c *Client) decodeFeatures(bucket string, raw []json.RawMessage) ([]Feature, int) {
	features := make([]Feature, 0, len(raw))
	dropped := 0
	for i, item := range raw {
		var f Feature
		if err := json.Unmarshal(item, &f); err != nil {
			dropped++
			c.log.Debug("dropping malformed place", zap.String("bucket", bucket), zap.Int("index", i), zap.Error(err))
			continue
		}
		features = append(features, f)
	}
	return features, dropped
}

// GeocodeCity resolves free text to the extent of the best matching city.
func (c *Client) GeocodeCity(ctx context.Context, text string) (*CityArea, error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrCityNotFound
	}

	params := url.Values{}
	params.Set("text", text)
	params.Set("type", "city")
	params.Set("limit", "1")
	params.Set("apiKey", c.apiKey)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.get(ctx, "/v1/geocode/search", params)
	telemetry.ObserveUpstream("geoapify", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("geocoding api returned status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "json") {
		return nil, fmt.Errorf("geocoding api returned %s instead of json", ct)
	}

	var collection FeatureCollection
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&collection); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(collection.Features) == 0 {
		return nil, ErrCityNotFound
	}

	feature := collection.Features[0]
	if len(feature.BBox) != 4 {
		return nil, ErrInvalidBBox
	}

	name := feature.Properties.City
	if name == "" {
		name = feature.Properties.Name
	}
	return &CityArea{
		BBox:      feature.BBox,
		Name:      name,
		Country:   feature.Properties.Country,
		State:     feature.Properties.State,
		Formatted: feature.Properties.Formatted,
	}, nil
}

// Places relays a raw places query. The API key is injected server side.
func (c *Client) Places(ctx context.Context, query url.Values) (*UpstreamResponse, error) {
	return c.forward(ctx, "/v2/places", query)
}

// PlaceDetails relays a place-details lookup for id.
func (c *Client) PlaceDetails(ctx context.Context, id string) (*UpstreamResponse, error) {
	params := url.Values{}
	params.Set("id", id)
	return c.forward(ctx, "/v2/place-details", params)
}

// Geocode relays a geocoding search with the given text, type and limit.
func (c *Client) Geocode(ctx context.Context, text, kind, limit string) (*UpstreamResponse, error) {
	if kind == "" {
		kind = "city"
	}
	if limit == "" {
		limit = "1"
	}
	params := url.Values{}
	params.Set("text", text)
	params.Set("type", kind)
	params.Set("limit", limit)
	return c.forward(ctx, "/v1/geocode/search", params)
}

func (c *Client) forward(ctx context.Context, path string, query url.Values) (*UpstreamResponse, error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	for key, values := range query {
		params[key] = append([]string(nil), values...)
	}
	params.Set("apiKey", c.apiKey)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.get(ctx, path, params)
	telemetry.ObserveUpstream("geoapify", time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("geoapify request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read geoapify response: %w", err)
	}

	return &UpstreamResponse{
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

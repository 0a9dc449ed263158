package overpass

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/mapleads/internal/logger"
	"github.com/octobees/mapleads/internal/telemetry"
)

const maxBodyBytes = 64 << 20

// ErrAllEndpointsFailed is returned when no endpoint produced a JSON reply.
var ErrAllEndpointsFailed = errors.New("all overpass endpoints failed")

// DefaultEndpoints are the public interpreters, tried in this order.
var DefaultEndpoints = []string{
	"https://overpass-api.de/api/interpreter",
	"https://overpass.kumi.systems/api/interpreter",
	"https://maps.mail.ru/osm/tools/overpass/api/interpreter",
}

// Client posts Overpass QL queries, falling back across mirrors.
type Client struct {
	endpoints []string
	http      *http.Client
	timeout   time.Duration
	log       *zap.Logger
}

// NewClient builds a client. Empty endpoints select DefaultEndpoints.
func NewClient(endpoints []string, httpClient *http.Client, timeout time.Duration, log *zap.Logger) *Client {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		endpoints: append([]string(nil), endpoints...),
		http:      httpClient,
		timeout:   timeout,
		log:       logger.OrNop(log).Named("overpass"),
	}
}

// Query runs query against each endpoint in order and returns the first
// reply whose body is a JSON object. Errors, timeouts and non-JSON replies
// move on to the next endpoint.
func (c *Client) Query(ctx context.Context, query string) (json.RawMessage, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	form := "data=" + url.QueryEscape(query)

	for _, endpoint := range c.endpoints {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		body, err := c.try(ctx, endpoint, form)
		if err != nil {
			c.log.Warn("endpoint skipped", zap.String("endpoint", endpoint), zap.Error(err))
			continue
		}
		return body, nil
	}
	return nil, ErrAllEndpointsFailed
}

func (c *Client) try(ctx context.Context, endpoint, form string) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	start := time.Now()
	resp, err := c.http.Do(req)
	telemetry.ObserveUpstream("overpass", time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	trimmed := bytes.TrimSpace(body)
	if !bytes.HasPrefix(trimmed, []byte("{")) || !json.Valid(trimmed) {
		return nil, fmt.Errorf("non-json reply with status %d", resp.StatusCode)
	}
	return json.RawMessage(trimmed), nil
}

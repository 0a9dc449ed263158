package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/octobees/mapleads/internal/cache"
	"github.com/octobees/mapleads/internal/config"
	"github.com/octobees/mapleads/internal/dto"
	"github.com/octobees/mapleads/internal/entity"
	"github.com/octobees/mapleads/internal/geo"
	"github.com/octobees/mapleads/internal/geoapify"
	"github.com/octobees/mapleads/internal/logger"
	"github.com/octobees/mapleads/internal/nominatim"
	"github.com/octobees/mapleads/internal/service/pipeline"
	"github.com/octobees/mapleads/internal/telemetry"
)

// Result sources reported to callers.
const (
	SourceCache = "cache"
	SourceLive  = "live"
	SourceNone  = "none"
)

// Scope sources.
const (
	ScopeExplicit = "bbox"
	ScopeDefault  = "default"
	ScopeGeoapify = "geoapify"
	ScopeFallback = "nominatim"
)

var (
	// ErrInvalidScope is returned for a request naming both a city and a box,
	// or carrying a malformed box.
	ErrInvalidScope = errors.New("invalid search scope")
	// ErrCityNotFound is returned when no geocoder recognises the city.
	ErrCityNotFound = errors.New("city not found")
	// ErrGeocoderUnavailable is returned when every geocoder failed for a
	// reason other than an unknown city.
	ErrGeocoderUnavailable = errors.New("geocoder unavailable")
)

// PlacesProvider is the places backend used by searches.
type PlacesProvider interface {
	pipeline.Fetcher
	Configured() bool
	GeocodeCity(ctx context.Context, text string) (*geoapify.CityArea, error)
}

// HistoryRecorder stores the searches a signed-in user ran.
type HistoryRecorder interface {
	Record(ctx context.Context, record *entity.SearchRecord) error
}

// History write outcomes.
const (
	HistoryWritten = "written"
	HistoryFailed  = "failed"
)

// CityGeocoder resolves a city to its bounding box. It backs up the places
// provider's own geocoder.
type CityGeocoder interface {
	CityBox(ctx context.Context, q string) (geo.BoundingBox, string, error)
}

// SearchService resolves the scope of a search, consults the cache and runs
// the lead pipeline on a miss.
type SearchService struct {
	places   PlacesProvider
	fallback CityGeocoder
	store    cache.Store
	history  HistoryRecorder
	cfg      config.SearchConfig
	log      *zap.Logger
	now      func() time.Time
}

// NewSearchService wires a search service. fallback and store may be nil.
func NewSearchService(places PlacesProvider, fallback CityGeocoder, store cache.Store, cfg config.SearchConfig, log *zap.Logger) *SearchService {
	return &SearchService{
		places:   places,
		fallback: fallback,
		store:    store,
		cfg:      cfg,
		log:      logger.OrNop(log).Named("search"),
		now:      time.Now,
	}
}

// WithHistory makes the service record searches carrying a user id.
func (s *SearchService) WithHistory(history HistoryRecorder) *SearchService {
	s.history = history
	return s
}

type scope struct {
	key     string
	label   string
	box     geo.BoundingBox
	bounded bool
	source  string
}

// Search returns ranked no-website leads for the request.
func (s *SearchService) Search(ctx context.Context, req dto.SearchRequest) (*dto.SearchResponse, error) {
	city := strings.TrimSpace(req.City)
	if city != "" && len(req.BBox) > 0 {
		return nil, fmt.Errorf("%w: provide either city or bbox", ErrInvalidScope)
	}
	var explicit geo.BoundingBox
	if len(req.BBox) > 0 {
		box, err := geo.FromSlice(req.BBox)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidScope, err)
		}
		explicit = box
	}

	categoryLabel, buckets, known := s.resolveCategory(req.Category)
	if !known {
		s.log.Info("unknown category", zap.String("category", req.Category))
		resp := &dto.SearchResponse{
			Places:   []entity.Place{},
			Category: strings.TrimSpace(req.Category),
			Source:   SourceNone,
		}
		label := city
		if len(req.BBox) > 0 {
			label = explicit.String()
		}
		s.record(ctx, req.UserID, label, resp)
		return resp, nil
	}

	sc, err := s.resolveScope(ctx, city, explicit, len(req.BBox) > 0)
	if err != nil {
		return nil, err
	}

	resp := &dto.SearchResponse{
		Category: categoryLabel,
		Scope: dto.SearchScope{
			Label:   sc.label,
			BBox:    sc.box,
			Bounded: sc.bounded,
			Source:  sc.source,
		},
	}

	key := cache.Key(sc.key, categoryLabel)
	if !req.Refresh {
		if entry, ok := s.lookup(ctx, key); ok {
			resp.Places = entry.Results
			resp.Count = len(entry.Results)
			resp.Source = SourceCache
			s.record(ctx, req.UserID, sc.label, resp)
			return resp, nil
		}
	}

	if !s.places.Configured() {
		return nil, geoapify.ErrMissingAPIKey
	}

	result := pipeline.Run(ctx, s.places, pipeline.Options{
		Buckets:       buckets,
		Area:          sc.box,
		Limit:         s.cfg.BucketLimit,
		Concurrency:   s.cfg.BucketConcurrency,
		EnforceBounds: sc.bounded,
		PhoneRegion:   s.cfg.PhoneRegion,
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.log.Info("search completed",
		zap.String("key", key),
		zap.Int("buckets", len(buckets)),
		zap.Int("fetched", result.Stages.Fetched),
		zap.Int("unique", result.Stages.Unique),
		zap.Int("filtered", result.Stages.Filtered),
		zap.Int("in_bounds", result.Stages.InBounds),
		zap.Int("ranked", result.Stages.Ranked),
	)

	outcome := s.save(ctx, key, sc.label, categoryLabel, result.Places)

	stages := result.Stages
	resp.Places = result.Places
	resp.Count = len(result.Places)
	resp.Source = SourceLive
	resp.CacheWrite = string(outcome)
	resp.Stages = &stages
	resp.Buckets = result.Buckets
	s.record(ctx, req.UserID, sc.label, resp)
	return resp, nil
}

// PurgeExpired deletes expired cache entries.
func (s *SearchService) PurgeExpired(ctx context.Context) (int64, error) {
	if s.store == nil {
		return 0, nil
	}
	n, err := s.store.DeleteExpired(ctx)
	if err != nil {
		return 0, fmt.Errorf("purge search cache: %w", err)
	}
	s.log.Info("purged expired cache entries", zap.Int64("deleted", n))
	return n, nil
}

func (s *SearchService) resolveCategory(raw string) (string, []string, bool) {
	if geoapify.IsAll(raw) {
		return geoapify.AllCategories, s.cfg.Buckets, true
	}
	tag, ok := geoapify.ResolveCategory(raw)
	if !ok {
		return "", nil, false
	}
	return strings.ToLower(strings.TrimSpace(raw)), []string{tag}, true
}

func (s *SearchService) resolveScope(ctx context.Context, city string, explicit geo.BoundingBox, hasBox bool) (scope, error) {
	switch {
	case hasBox:
		return scope{key: explicit.String(), label: explicit.String(), box: explicit, bounded: true, source: ScopeExplicit}, nil
	case city == "":
		box := s.cfg.DefaultBBox
		return scope{key: box.String(), label: s.cfg.DefaultCityLabel, box: box, bounded: true, source: ScopeDefault}, nil
	}

	area, err := s.places.GeocodeCity(ctx, city)
	if err == nil {
		box, boxErr := geo.FromSlice(area.BBox)
		if boxErr == nil {
			label := area.Name
			if label == "" {
				label = city
			}
			return scope{key: city, label: label, box: box, source: ScopeGeoapify}, nil
		}
		err = boxErr
	}
	primaryErr := err
	s.log.Warn("geoapify geocoding failed", zap.String("city", city), zap.Error(primaryErr))

	if s.fallback == nil {
		return scope{}, geocodeError(city, primaryErr)
	}
	box, name, err := s.fallback.CityBox(ctx, city)
	if err != nil {
		s.log.Warn("fallback geocoding failed", zap.String("city", city), zap.Error(err))
		if errors.Is(primaryErr, geoapify.ErrCityNotFound) {
			return scope{}, geocodeError(city, primaryErr)
		}
		return scope{}, geocodeError(city, err)
	}
	if name == "" {
		name = city
	}
	return scope{key: city, label: name, box: box, source: ScopeFallback}, nil
}

func geocodeError(city string, err error) error {
	if errors.Is(err, geoapify.ErrCityNotFound) || errors.Is(err, nominatim.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrCityNotFound, city)
	}
	return fmt.Errorf("%w: %v", ErrGeocoderUnavailable, err)
}

func (s *SearchService) lookup(ctx context.Context, key string) (*entity.SearchCacheEntry, bool) {
	if s.store == nil {
		return nil, false
	}
	entry, ok, err := s.store.Get(ctx, key)
	switch {
	case err != nil:
		s.log.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		telemetry.ObserveCacheLookup("error")
		return nil, false
	case !ok:
		telemetry.ObserveCacheLookup("miss")
		return nil, false
	}
	telemetry.ObserveCacheLookup("hit")
	if entry.Results == nil {
		entry.Results = []entity.Place{}
	}
	return entry, true
}

// save writes a result set best effort; the outcome never fails the search.
func (s *SearchService) save(ctx context.Context, key, city, category string, places []entity.Place) cache.WriteOutcome {
	outcome := cache.WriteSkipped
	if s.store != nil && len(places) > 0 {
		err := s.store.Put(ctx, entity.SearchCacheEntry{
			CacheKey:    key,
			Results:     places,
			City:        city,
			Category:    category,
			ResultCount: len(places),
			ExpiresAt:   s.now().Add(s.cfg.CacheTTL),
		})
		if err != nil {
			s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			outcome = cache.WriteFailed
		} else {
			outcome = cache.WriteWritten
		}
	}
	telemetry.ObserveCacheWrite(string(outcome))
	return outcome
}

// record adds the search to the user's history best effort. Anonymous
// searches are not recorded.
func (s *SearchService) record(ctx context.Context, userID, location string, resp *dto.SearchResponse) {
	if s.history == nil || userID == "" {
		return
	}
	rec := &entity.SearchRecord{
		UserID:      userID,
		Category:    resp.Category,
		Location:    location,
		ScopeSource: resp.Scope.Source,
		Source:      resp.Source,
		ResultCount: resp.Count,
	}
	if resp.Scope.Source != "" {
		rec.BBox = resp.Scope.BBox.Slice()
	}
	if err := s.history.Record(ctx, rec); err != nil {
		s.log.Warn("search history write failed", zap.String("user_id", userID), zap.Error(err))
		resp.History = HistoryFailed
	} else {
		resp.History = HistoryWritten
	}
	telemetry.ObserveHistoryWrite(resp.History)
}

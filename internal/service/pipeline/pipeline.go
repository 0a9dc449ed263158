package pipeline

import (
	"context"
	"sort"

	"github.com/octobees/mapleads/internal/entity"
	"github.com/octobees/mapleads/internal/geo"
	"github.com/octobees/mapleads/internal/geoapify"
	"github.com/octobees/mapleads/internal/service/scoring"
)

// Options parameterizes one pipeline run. Nothing here has a package level default.
type Options struct {
	Buckets     []string
	Area        geo.BoundingBox
	Limit       int
	Concurrency int
	// EnforceBounds drops places outside Area. It is set for caller-fixed
	// areas and cleared for geocoded cities.
	EnforceBounds bool
	PhoneRegion   string
}

// StageCounts reports how many records survived each stage.
type StageCounts struct {
	Fetched  int `json:"fetched"`
	Unique   int `json:"unique"`
	Filtered int `json:"filtered"`
	InBounds int `json:"in_bounds"`
	Ranked   int `json:"ranked"`
}

// Result is the ranked output of a run plus diagnostics.
type Result struct {
	Places  []entity.Place
	Buckets []geoapify.BucketResult
	Stages  StageCounts
}

// Run fetches opts.Buckets and turns the combined features into ranked leads.
// Partial upstream failures never abort the run.
func Run(ctx context.Context, f Fetcher, opts Options) Result {
	features, buckets := FetchAll(ctx, f, opts.Buckets, opts.Area, opts.Limit, opts.Concurrency)
	places, stages := Process(features, opts)
	return Result{Places: places, Buckets: buckets, Stages: stages}
}

// Process runs dedupe, filter, the optional bounds pass, normalization and
// ranking over already fetched features.
func Process(features []geoapify.Feature, opts Options) ([]entity.Place, StageCounts) {
	stages := StageCounts{Fetched: len(features)}

	unique := Dedupe(features)
	stages.Unique = len(unique)

	leads := Filter(unique)
	stages.Filtered = len(leads)

	if opts.EnforceBounds {
		leads = WithinBounds(leads, opts.Area)
	}
	stages.InBounds = len(leads)

	places := make([]entity.Place, 0, len(leads))
	for _, feature := range leads {
		places = append(places, Normalize(feature, opts.PhoneRegion))
	}
	Rank(places)
	stages.Ranked = len(places)

	return places, stages
}

// Rank scores places in place and sorts them by descending score. Equal
// scores keep their input order.
func Rank(places []entity.Place) {
	for i := range places {
		res := scoring.Score(places[i])
		places[i].QualityScore = res.Total
		places[i].ScoreBreakdown = res.Breakdown
	}
	sort.SliceStable(places, func(i, j int) bool {
		return places[i].QualityScore > places[j].QualityScore
	})
}

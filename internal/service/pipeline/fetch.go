package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/octobees/mapleads/internal/geo"
	"github.com/octobees/mapleads/internal/geoapify"
)

// Fetcher retrieves one category bucket. Implementations report failures in
// the returned result rather than as errors.
type Fetcher interface {
	FetchBucket(ctx context.Context, bucket string, box geo.BoundingBox, limit int) geoapify.BucketResult
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, bucket string, box geo.BoundingBox, limit int) geoapify.BucketResult

// FetchBucket implements Fetcher.
func (f FetcherFunc) FetchBucket(ctx context.Context, bucket string, box geo.BoundingBox, limit int) geoapify.BucketResult {
	return f(ctx, bucket, box, limit)
}

// FetchAll fetches every bucket concurrently and waits for all of them to
// settle. Features are concatenated in the order buckets were declared, not
// the order requests completed; a failed bucket contributes nothing.
// concurrency <= 0 means no limit.
func FetchAll(ctx context.Context, f Fetcher, buckets []string, box geo.BoundingBox, limit, concurrency int) ([]geoapify.Feature, []geoapify.BucketResult) {
	results := make([]geoapify.BucketResult, len(buckets))

	var g errgroup.Group
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}
	for i, bucket := range buckets {
		i, bucket := i, bucket
		g.Go(func() error {
			results[i] = f.FetchBucket(ctx, bucket, box, limit)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for i := range results {
		if !results[i].OK() {
			results[i].Features = nil
		}
		total += len(results[i].Features)
	}

	combined := make([]geoapify.Feature, 0, total)
	for _, res := range results {
		combined = append(combined, res.Features...)
	}
	return combined, results
}

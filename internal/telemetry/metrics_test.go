package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveBucketFetch(t *testing.T) {
	before := testutil.ToFloat64(bucketFetchTotal.WithLabelValues("catering.cafe", "ok"))
	ObserveBucketFetch("catering.cafe", "ok")
	ObserveBucketFetch("catering.cafe", "ok")
	after := testutil.ToFloat64(bucketFetchTotal.WithLabelValues("catering.cafe", "ok"))
	if after-before != 2 {
		t.Fatalf("expected counter to grow by 2, got %v", after-before)
	}
}

func TestObserveCache(t *testing.T) {
	hits := testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit"))
	ObserveCacheLookup("hit")
	if testutil.ToFloat64(cacheLookupsTotal.WithLabelValues("hit")) != hits+1 {
		t.Fatalf("expected hit counter to increment")
	}

	skipped := testutil.ToFloat64(cacheWritesTotal.WithLabelValues("skipped"))
	ObserveCacheWrite("skipped")
	if testutil.ToFloat64(cacheWritesTotal.WithLabelValues("skipped")) != skipped+1 {
		t.Fatalf("expected skipped counter to increment")
	}
}

func TestObserveHistoryWrite(t *testing.T) {
	failed := testutil.ToFloat64(historyWritesTotal.WithLabelValues("failed"))
	ObserveHistoryWrite("failed")
	if testutil.ToFloat64(historyWritesTotal.WithLabelValues("failed")) != failed+1 {
		t.Fatalf("expected failed counter to increment")
	}
}

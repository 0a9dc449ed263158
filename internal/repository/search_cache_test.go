package repository

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/octobees/mapleads/internal/entity"
)

func TestPGXSearchCacheRepository_Get(t *testing.T) {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	var gotArgs []any
	repo := &PGXSearchCacheRepository{now: func() time.Time { return now }, pool: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			gotArgs = args
			if !strings.Contains(query, "expires_at > $2") {
				t.Errorf("expected strict expiry predicate, got %s", query)
			}
			return &stubRow{scan: func(dest ...any) error {
				*dest[0].(*string) = "bangalore|all"
				*dest[1].(*[]byte) = []byte(`[{"id":"p1","name":"Alpha Stores","categories":[],"quality_score":40}]`)
				*dest[2].(*string) = "Bangalore"
				*dest[3].(*string) = "all"
				*dest[4].(*int) = 1
				*dest[5].(*time.Time) = now.Add(time.Hour)
				*dest[6].(*time.Time) = now.Add(-time.Hour)
				*dest[7].(*time.Time) = now.Add(-time.Hour)
				return nil
			}}
		},
	}}

	entry, ok, err := repo.Get(context.Background(), "bangalore|all")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(entry.Results) != 1 || entry.Results[0].ID != "p1" || entry.Results[0].QualityScore != 40 {
		t.Fatalf("unexpected results: %+v", entry.Results)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "bangalore|all" || gotArgs[1] != now {
		t.Fatalf("unexpected args: %v", gotArgs)
	}
}

func TestPGXSearchCacheRepository_GetMissAndError(t *testing.T) {
	repo := &PGXSearchCacheRepository{now: time.Now, pool: &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error { return pgx.ErrNoRows }}
		},
	}}
	if entry, ok, err := repo.Get(context.Background(), "k"); ok || err != nil || entry != nil {
		t.Fatalf("expected clean miss, got %v %v %v", entry, ok, err)
	}

	boom := errors.New("connection reset")
	repo.pool = &stubPool{
		queryRowFunc: func(ctx context.Context, query string, args ...any) pgx.Row {
			return &stubRow{scan: func(dest ...any) error { return boom }}
		},
	}
	if _, ok, err := repo.Get(context.Background(), "k"); ok || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got ok=%v err=%v", ok, err)
	}
}

func TestPGXSearchCacheRepository_Put(t *testing.T) {
	var (
		gotQuery string
		gotArgs  []any
	)
	repo := &PGXSearchCacheRepository{now: time.Now, pool: &stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			gotQuery = query
			gotArgs = args
			return pgconn.NewCommandTag("INSERT 0 1"), nil
		},
	}}

	expires := time.Now().Add(24 * time.Hour)
	err := repo.Put(context.Background(), entity.SearchCacheEntry{
		CacheKey:  "bangalore|cafe",
		Results:   []entity.Place{{ID: "a"}, {ID: "b"}},
		City:      "Bangalore",
		ExpiresAt: expires,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "ON CONFLICT (cache_key)") {
		t.Fatalf("expected upsert, got %s", gotQuery)
	}
	if gotArgs[3] != "all" {
		t.Fatalf("expected default category, got %v", gotArgs[3])
	}
	if gotArgs[4] != 2 {
		t.Fatalf("expected result count 2, got %v", gotArgs[4])
	}
	if !strings.HasPrefix(gotArgs[1].(string), `[{"id":"a"`) {
		t.Fatalf("unexpected payload %v", gotArgs[1])
	}
}

func TestPGXSearchCacheRepository_DeleteExpired(t *testing.T) {
	repo := &PGXSearchCacheRepository{now: time.Now, pool: &stubPool{
		execFunc: func(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
			if !strings.Contains(query, "expires_at <= $1") {
				t.Errorf("unexpected query %s", query)
			}
			return pgconn.NewCommandTag("DELETE 3"), nil
		},
	}}

	n, err := repo.DeleteExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 deleted rows, got %d", n)
	}
}

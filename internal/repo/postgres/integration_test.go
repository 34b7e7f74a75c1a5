package postgres

import (
	"context"
	"errors"
	"math/rand/v2"
	"os"
	"testing"

	"github.com/geocoder89/bidashboard/internal/db"
	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/geocoder89/bidashboard/internal/domain/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn, 4)
	if err != nil {
		t.Fatalf("Failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	_, err = pool.Exec(ctx, `TRUNCATE dashboard_metrics, users RESTART IDENTITY`)
	if err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}

	return pool
}

func TestUsersRepo_CreateAndDuplicate(t *testing.T) {
	pool := setupPool(t)
	repo := NewUsersRepo(pool, nil)
	ctx := context.Background()

	u, err := repo.Create(ctx, "a@example.com", "hash")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.ID == 0 {
		t.Fatalf("expected generated id")
	}

	_, err = repo.Create(ctx, "a@example.com", "hash2")
	if !errors.Is(err, user.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := repo.GetByEmail(ctx, "a@example.com")
	if err != nil || got.PasswordHash != "hash" {
		t.Fatalf("get: %+v %v", got, err)
	}

	if _, err := repo.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, user.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMetricsRepo_RoundTrip(t *testing.T) {
	pool := setupPool(t)
	repo := NewMetricsRepo(pool, nil)
	ctx := context.Background()
	today := metric.Today()

	seeded, err := db.EnsureSampleData(ctx, repo, rand.New(rand.NewPCG(5, 5)), today)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if seeded != metric.SampleDays {
		t.Fatalf("seeded %d rows", seeded)
	}

	// second call is a no-op
	if again, _ := db.EnsureSampleData(ctx, repo, rand.New(rand.NewPCG(5, 5)), today); again != 0 {
		t.Fatalf("expected no reseed, got %d", again)
	}

	rec, err := repo.Insert(ctx, metric.NewManualRecord(today, 100, 3, 40, "Books", "North"))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if rec.Profit != 60 {
		t.Fatalf("profit: got %v", rec.Profit)
	}

	s, err := repo.Summary(ctx, metric.Filter{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.RecordCount != metric.SampleDays+1 {
		t.Fatalf("record count: %d", s.RecordCount)
	}

	list, err := repo.List(ctx, metric.Filter{}, 10)
	if err != nil || len(list) != 10 {
		t.Fatalf("list: %d %v", len(list), err)
	}

	all, err := repo.List(ctx, metric.Filter{}, 0)
	if err != nil || len(all) != metric.SampleDays+1 {
		t.Fatalf("unbounded list: %d %v", len(all), err)
	}

	n, err := repo.Scale(ctx, metric.Scaling{RevenueMultiplier: 2, ProfitMultiplier: 1, Category: metric.StringPtr("Books"), Region: metric.StringPtr("North")})
	if err != nil || n < 1 {
		t.Fatalf("scale: %d %v", n, err)
	}

	deleted, err := repo.DeleteAll(ctx)
	if err != nil || deleted != metric.SampleDays+1 {
		t.Fatalf("delete: %d %v", deleted, err)
	}

	empty, err := repo.Summary(ctx, metric.Filter{})
	if err != nil || empty.RecordCount != 0 || empty.TotalRevenue != 0 {
		t.Fatalf("empty summary: %+v %v", empty, err)
	}

	opts, err := repo.FilterOptions(ctx)
	if err != nil || opts.DateRange.MinDate != nil || len(opts.Categories) != 0 {
		t.Fatalf("empty filter options: %+v %v", opts, err)
	}
}

package handlers

import (
	"context"
	"time"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/geocoder89/bidashboard/internal/domain/user"
)

type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
	GetByEmail(ctx context.Context, email string) (user.User, error)
}

type MetricsReader interface {
	List(ctx context.Context, f metric.Filter, limit int) ([]metric.Record, error)
	Summary(ctx context.Context, f metric.Filter) (metric.Summary, error)
	FilterOptions(ctx context.Context) (metric.FilterOptions, error)
	CategoryTrends(ctx context.Context, f metric.Filter) ([]metric.CategoryTrend, error)
	DailyRevenue(ctx context.Context, f metric.Filter) ([]metric.DailyRevenue, error)
}

type MetricsWriter interface {
	Insert(ctx context.Context, rec metric.Record) (metric.Record, error)
	InsertMany(ctx context.Context, recs []metric.Record) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	Scale(ctx context.Context, s metric.Scaling) (int64, error)
}

// MetricsStore is implemented by both the postgres and the in-memory stores.
type MetricsStore interface {
	MetricsReader
	MetricsWriter
	Count(ctx context.Context) (int64, error)
	Now(ctx context.Context) (time.Time, error)
	Ping(ctx context.Context) error
}

package db

import (
	"context"
	"fmt"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
)

// SampleStore is the part of a metrics store the seeder needs.
type SampleStore interface {
	Count(ctx context.Context) (int64, error)
	InsertMany(ctx context.Context, recs []metric.Record) (int64, error)
}

// EnsureSampleData writes the canonical 90-day dataset when the table is empty and
// reports how many rows it inserted.
func EnsureSampleData(ctx context.Context, store SampleStore, rng metric.Random, today metric.Day) (int64, error) {
	n, err := store.Count(ctx)

	if err != nil {
		return 0, fmt.Errorf("count metrics: %w", err)
	}

	if n > 0 {
		return 0, nil
	}

	inserted, err := store.InsertMany(ctx, metric.GenerateSample(rng, today))

	if err != nil {
		return 0, fmt.Errorf("seed sample data: %w", err)
	}

	return inserted, nil
}

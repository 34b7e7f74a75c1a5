package postgres

import (
	"context"
	"time"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
	"github.com/geocoder89/bidashboard/internal/observability"
	"github.com/geocoder89/bidashboard/internal/querybuilder"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

const metricsTable = "dashboard_metrics"

var recordColumns = []string{
	"id",
	"date",
	"revenue::float8",
	"units_sold",
	"cost_of_goods::float8",
	"profit::float8",
	"product_category",
	"region",
	"created_at",
}

type MetricsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewMetricsRepo(pool *pgxpool.Pool, prom *observability.Prom) *MetricsRepo {
	return &MetricsRepo{pool: pool, prom: prom}
}

// filterPredicates fixes the clause order: date from, date to, category, region.
func filterPredicates(f metric.Filter) querybuilder.Where {
	var w querybuilder.Where

	if f.From != nil {
		w = append(w, querybuilder.Gte("date", f.From.Time))
	}
	if f.To != nil {
		w = append(w, querybuilder.Lte("date", f.To.Time))
	}
	if f.Category != nil {
		w = append(w, querybuilder.Eq("product_category", *f.Category))
	}
	if f.Region != nil {
		w = append(w, querybuilder.Eq("region", *f.Region))
	}

	return w
}

func scanRecord(row pgx.Row) (metric.Record, error) {
	var (
		rec  metric.Record
		date time.Time
		rev  float64
		cost float64
		prof float64
	)

	err := row.Scan(&rec.ID, &date, &rev, &rec.UnitsSold, &cost, &prof, &rec.Category, &rec.Region, &rec.CreatedAt)
	if err != nil {
		return metric.Record{}, err
	}

	rec.Date = metric.NewDay(date)
	rec.Revenue = metric.Money(rev)
	rec.CostOfGoods = metric.Money(cost)
	rec.Profit = metric.Money(prof)

	return rec, nil
}

// List returns matching rows ordered by date. limit <= 0 returns every row.
func (r *MetricsRepo) List(ctx context.Context, f metric.Filter, limit int) ([]metric.Record, error) {
	query, args := querybuilder.Select{
		Columns: recordColumns,
		From:    metricsTable,
		Where:   filterPredicates(f),
		OrderBy: []string{"date ASC", "id ASC"},
		Limit:   limit,
	}.Build()

	out := make([]metric.Record, 0)

	err := r.prom.ObserveDB("metrics.list", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			rec, err := scanRecord(rows)
			if err != nil {
				return err
			}
			out = append(out, rec)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *MetricsRepo) Summary(ctx context.Context, f metric.Filter) (metric.Summary, error) {
	query, args := querybuilder.Select{
		Columns: []string{
			"COALESCE(SUM(revenue), 0)::float8",
			"COALESCE(SUM(profit), 0)::float8",
			"COALESCE(SUM(units_sold), 0)::bigint",
			"COALESCE(AVG(revenue), 0)::float8",
			"COUNT(*)",
		},
		From:  metricsTable,
		Where: filterPredicates(f),
	}.Build()

	var (
		s                   metric.Summary
		revenue, profit, av float64
	)

	err := r.prom.ObserveDB("metrics.summary", func() error {
		return r.pool.QueryRow(ctx, query, args...).Scan(&revenue, &profit, &s.TotalUnits, &av, &s.RecordCount)
	})
	if err != nil {
		return metric.Summary{}, err
	}

	s.TotalRevenue = metric.Money(revenue)
	s.TotalProfit = metric.Money(profit)
	s.AvgRevenue = metric.Money(av)

	return s, nil
}

func (r *MetricsRepo) FilterOptions(ctx context.Context) (metric.FilterOptions, error) {
	opts := metric.FilterOptions{
		Categories: make([]string, 0),
		Regions:    make([]string, 0),
	}

	distinct := func(op, column string, dst *[]string) error {
		return r.prom.ObserveDB(op, func() error {
			rows, err := r.pool.Query(ctx,
				"SELECT DISTINCT "+column+" FROM "+metricsTable+
					" WHERE "+column+" IS NOT NULL ORDER BY "+column)
			if err != nil {
				return err
			}
			defer rows.Close()

			for rows.Next() {
				var v string
				if err := rows.Scan(&v); err != nil {
					return err
				}
				*dst = append(*dst, v)
			}
			return rows.Err()
		})
	}

	if err := distinct("metrics.filter_categories", "product_category", &opts.Categories); err != nil {
		return metric.FilterOptions{}, err
	}
	if err := distinct("metrics.filter_regions", "region", &opts.Regions); err != nil {
		return metric.FilterOptions{}, err
	}

	var minDate, maxDate *time.Time
	err := r.prom.ObserveDB("metrics.filter_date_range", func() error {
		return r.pool.QueryRow(ctx, "SELECT MIN(date), MAX(date) FROM "+metricsTable).Scan(&minDate, &maxDate)
	})
	if err != nil {
		return metric.FilterOptions{}, err
	}

	if minDate != nil {
		d := metric.NewDay(*minDate)
		opts.DateRange.MinDate = &d
	}
	if maxDate != nil {
		d := metric.NewDay(*maxDate)
		opts.DateRange.MaxDate = &d
	}

	return opts, nil
}

func (r *MetricsRepo) CategoryTrends(ctx context.Context, f metric.Filter) ([]metric.CategoryTrend, error) {
	query, args := querybuilder.Select{
		Columns: []string{
			"product_category",
			"SUM(revenue)::float8 AS total_revenue",
			"SUM(profit)::float8",
			"SUM(units_sold)::bigint",
			"COUNT(*)",
		},
		From:    metricsTable,
		Where:   filterPredicates(f),
		GroupBy: []string{"product_category"},
		OrderBy: []string{"total_revenue DESC"},
	}.Build()

	out := make([]metric.CategoryTrend, 0)

	err := r.prom.ObserveDB("metrics.category_trends", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				t               metric.CategoryTrend
				revenue, profit float64
			)
			if err := rows.Scan(&t.Category, &revenue, &profit, &t.TotalUnits, &t.TransactionCount); err != nil {
				return err
			}
			t.TotalRevenue = metric.Money(revenue)
			t.TotalProfit = metric.Money(profit)
			out = append(out, t)
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

func (r *MetricsRepo) DailyRevenue(ctx context.Context, f metric.Filter) ([]metric.DailyRevenue, error) {
	query, args := querybuilder.Select{
		Columns: []string{"date", "SUM(revenue)::float8"},
		From:    metricsTable,
		Where:   filterPredicates(f),
		GroupBy: []string{"date"},
		OrderBy: []string{"date ASC"},
	}.Build()

	out := make([]metric.DailyRevenue, 0)

	err := r.prom.ObserveDB("metrics.daily_revenue", func() error {
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				date    time.Time
				revenue float64
			)
			if err := rows.Scan(&date, &revenue); err != nil {
				return err
			}
			out = append(out, metric.DailyRevenue{Date: metric.NewDay(date), Revenue: metric.Money(revenue)})
		}
		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return out, nil
}

const insertRecordSQL = `INSERT INTO dashboard_metrics
	(date, revenue, units_sold, cost_of_goods, profit, product_category, region)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING ` + "id, date, revenue::float8, units_sold, cost_of_goods::float8, profit::float8, product_category, region, created_at"

func (r *MetricsRepo) Insert(ctx context.Context, rec metric.Record) (metric.Record, error) {
	var out metric.Record

	err := r.prom.ObserveDB("metrics.insert", func() error {
		var err error
		out, err = scanRecord(r.pool.QueryRow(ctx, insertRecordSQL,
			rec.Date.Time,
			float64(rec.Revenue),
			rec.UnitsSold,
			float64(rec.CostOfGoods),
			float64(rec.Profit),
			rec.Category,
			rec.Region,
		))
		return err
	})

	if err != nil {
		return metric.Record{}, err
	}

	return out, nil
}

// InsertMany issues one insert per row concurrently, bounded by the pool size, and
// waits for all of them. There is no surrounding transaction: on failure the rows
// already written stay written.
func (r *MetricsRepo) InsertMany(ctx context.Context, recs []metric.Record) (int64, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(int(r.pool.Config().MaxConns))

	for _, rec := range recs {
		g.Go(func() error {
			_, err := r.Insert(gctx, rec)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}

	return int64(len(recs)), nil
}

func (r *MetricsRepo) DeleteAll(ctx context.Context) (int64, error) {
	var affected int64

	err := r.prom.ObserveDB("metrics.delete_all", func() error {
		tag, err := r.pool.Exec(ctx, "DELETE FROM "+metricsTable)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	return affected, err
}

func (r *MetricsRepo) Count(ctx context.Context) (int64, error) {
	var n int64

	err := r.prom.ObserveDB("metrics.count", func() error {
		return r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+metricsTable).Scan(&n)
	})

	return n, err
}

// Scale multiplies revenue and profit in place for every row the scaling selects and
// returns the number of rows touched.
func (r *MetricsRepo) Scale(ctx context.Context, s metric.Scaling) (int64, error) {
	query, args, err := querybuilder.Update{
		Table: metricsTable,
		Set: []querybuilder.Assignment{
			querybuilder.Scale("revenue", s.RevenueMultiplier),
			querybuilder.Scale("profit", s.ProfitMultiplier),
		},
		Where: filterPredicates(s.Filter()),
	}.Build()
	if err != nil {
		return 0, err
	}

	var affected int64

	err = r.prom.ObserveDB("metrics.scale", func() error {
		tag, err := r.pool.Exec(ctx, query, args...)
		if err != nil {
			return err
		}
		affected = tag.RowsAffected()
		return nil
	})

	return affected, err
}

// Now reports the database clock, used as a connectivity probe.
func (r *MetricsRepo) Now(ctx context.Context) (time.Time, error) {
	var now time.Time

	err := r.prom.ObserveDB("metrics.now", func() error {
		return r.pool.QueryRow(ctx, "SELECT NOW()").Scan(&now)
	})

	return now, err
}

func (r *MetricsRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

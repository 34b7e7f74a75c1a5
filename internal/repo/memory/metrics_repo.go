package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/bidashboard/internal/domain/metric"
)

// MetricsRepo keeps dashboard rows in process. Money is rounded to cents on every
// write, the same way DECIMAL(10,2) columns store it.
type MetricsRepo struct {
	mu     sync.RWMutex
	nextID int64
	rows   []metric.Record
}

func NewMetricsRepo() *MetricsRepo {
	return &MetricsRepo{}
}

func roundMoney(r metric.Record) metric.Record {
	r.Revenue = metric.Money(metric.Round2(float64(r.Revenue)))
	r.CostOfGoods = metric.Money(metric.Round2(float64(r.CostOfGoods)))
	r.Profit = metric.Money(metric.Round2(float64(r.Profit)))
	return r
}

// matching returns copies of the rows f selects, ordered by date then id.
func (r *MetricsRepo) matching(f metric.Filter) []metric.Record {
	r.mu.RLock()
	out := make([]metric.Record, 0, len(r.rows))
	for _, rec := range r.rows {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.Before(out[j].Date.Time)
		}
		return out[i].ID < out[j].ID
	})

	return out
}

func (r *MetricsRepo) List(_ context.Context, f metric.Filter, limit int) ([]metric.Record, error) {
	out := r.matching(f)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MetricsRepo) Summary(_ context.Context, f metric.Filter) (metric.Summary, error) {
	var (
		s                    metric.Summary
		revenue, profit, avg float64
	)

	for _, rec := range r.matching(f) {
		revenue += float64(rec.Revenue)
		profit += float64(rec.Profit)
		s.TotalUnits += int64(rec.UnitsSold)
		s.RecordCount++
	}

	if s.RecordCount > 0 {
		avg = revenue / float64(s.RecordCount)
	}

	s.TotalRevenue = metric.Money(revenue)
	s.TotalProfit = metric.Money(profit)
	s.AvgRevenue = metric.Money(avg)

	return s, nil
}

func (r *MetricsRepo) FilterOptions(_ context.Context) (metric.FilterOptions, error) {
	cats := map[string]struct{}{}
	regs := map[string]struct{}{}
	var minDate, maxDate *metric.Day

	r.mu.RLock()
	for _, rec := range r.rows {
		if rec.Category != nil {
			cats[*rec.Category] = struct{}{}
		}
		if rec.Region != nil {
			regs[*rec.Region] = struct{}{}
		}
		d := rec.Date
		if minDate == nil || d.Before(minDate.Time) {
			minDate = &d
		}
		if maxDate == nil || d.After(maxDate.Time) {
			maxDate = &d
		}
	}
	r.mu.RUnlock()

	return metric.FilterOptions{
		Categories: sortedKeys(cats),
		Regions:    sortedKeys(regs),
		DateRange:  metric.DateRange{MinDate: minDate, MaxDate: maxDate},
	}, nil
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *MetricsRepo) CategoryTrends(_ context.Context, f metric.Filter) ([]metric.CategoryTrend, error) {
	const nullKey = "\x00null"

	groups := map[string]*metric.CategoryTrend{}
	order := make([]string, 0)

	for _, rec := range r.matching(f) {
		key := nullKey
		if rec.Category != nil {
			key = *rec.Category
		}

		g, ok := groups[key]
		if !ok {
			g = &metric.CategoryTrend{Category: rec.Category}
			groups[key] = g
			order = append(order, key)
		}

		g.TotalRevenue += rec.Revenue
		g.TotalProfit += rec.Profit
		g.TotalUnits += int64(rec.UnitsSold)
		g.TransactionCount++
	}

	out := make([]metric.CategoryTrend, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalRevenue > out[j].TotalRevenue
	})

	return out, nil
}

func (r *MetricsRepo) DailyRevenue(_ context.Context, f metric.Filter) ([]metric.DailyRevenue, error) {
	out := make([]metric.DailyRevenue, 0)

	// rows come back date ordered, so equal dates are adjacent
	for _, rec := range r.matching(f) {
		n := len(out)
		if n > 0 && out[n-1].Date.Equal(rec.Date.Time) {
			out[n-1].Revenue += rec.Revenue
			continue
		}
		out = append(out, metric.DailyRevenue{Date: rec.Date, Revenue: rec.Revenue})
	}

	return out, nil
}

func (r *MetricsRepo) Insert(_ context.Context, rec metric.Record) (metric.Record, error) {
	rec = roundMoney(rec)

	r.mu.Lock()
	r.nextID++
	rec.ID = r.nextID
	rec.CreatedAt = time.Now().UTC()
	r.rows = append(r.rows, rec)
	r.mu.Unlock()

	return rec, nil
}

func (r *MetricsRepo) InsertMany(ctx context.Context, recs []metric.Record) (int64, error) {
	for _, rec := range recs {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if _, err := r.Insert(ctx, rec); err != nil {
			return 0, err
		}
	}
	return int64(len(recs)), nil
}

func (r *MetricsRepo) DeleteAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	n := int64(len(r.rows))
	r.rows = nil
	r.mu.Unlock()

	return n, nil
}

func (r *MetricsRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.rows)), nil
}

func (r *MetricsRepo) Scale(_ context.Context, s metric.Scaling) (int64, error) {
	f := s.Filter()
	var affected int64

	r.mu.Lock()
	for i, rec := range r.rows {
		if f.Matches(rec) {
			r.rows[i] = s.Apply(rec)
			affected++
		}
	}
	r.mu.Unlock()

	return affected, nil
}

func (r *MetricsRepo) Now(_ context.Context) (time.Time, error) {
	return time.Now(), nil
}

func (r *MetricsRepo) Ping(_ context.Context) error {
	return nil
}

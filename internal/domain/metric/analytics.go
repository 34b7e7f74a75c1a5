package metric

import (
	"sort"
	"time"
)

const (
	TrendWindowDays    = 30
	HistoryWindowDays  = 90
	ForecastDays       = 30
	forecastBasisDays  = 30
	forecastJitter     = 0.05
	baseConfidence     = 0.85
	confidenceDecayDay = 0.02
)

type Period string

const (
	PeriodMonth Period = "month"
	PeriodWeek  Period = "week"
)

// ParsePeriod defaults to month when the parameter is omitted.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case "", PeriodMonth:
		return PeriodMonth, nil
	case PeriodWeek:
		return PeriodWeek, nil
	default:
		return "", ErrInvalidPeriod
	}
}

// Bounds returns the first day of the calendar period containing today and the first
// day of the period before it. Weeks start on Monday.
func (p Period) Bounds(today Day) (currentStart, previousStart Day) {
	switch p {
	case PeriodWeek:
		offset := (int(today.Weekday()) + 6) % 7
		currentStart = today.AddDays(-offset)
		previousStart = currentStart.AddDays(-7)
	default:
		currentStart = Day{time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)}
		previousStart = Day{currentStart.Time.AddDate(0, -1, 0)}
	}
	return
}

// Filters turns the period bounds into store filters. The current period is open ended,
// the previous one stops the day before the current one starts.
func (p Period) Filters(today Day) (current, previous Filter) {
	curStart, prevStart := p.Bounds(today)
	prevEnd := curStart.AddDays(-1)

	current = Filter{From: &curStart}
	previous = Filter{From: &prevStart, To: &prevEnd}
	return
}

type Totals struct {
	Revenue Money `json:"revenue"`
	Profit  Money `json:"profit"`
	Units   int64 `json:"units"`
}

func TotalsFrom(s Summary) Totals {
	return Totals{Revenue: s.TotalRevenue, Profit: s.TotalProfit, Units: s.TotalUnits}
}

type GrowthRates struct {
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
	Units   float64 `json:"units"`
}

type Growth struct {
	Period         Period      `json:"period"`
	CurrentPeriod  Totals      `json:"currentPeriod"`
	PreviousPeriod Totals      `json:"previousPeriod"`
	GrowthRates    GrowthRates `json:"growthRates"`
}

// GrowthRate is the percentage change from previous to current, 0 when previous is 0.
func GrowthRate(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return (current - previous) / previous * 100
}

func NewGrowth(p Period, current, previous Totals) Growth {
	return Growth{
		Period:         p,
		CurrentPeriod:  current,
		PreviousPeriod: previous,
		GrowthRates: GrowthRates{
			Revenue: GrowthRate(float64(current.Revenue), float64(previous.Revenue)),
			Profit:  GrowthRate(float64(current.Profit), float64(previous.Profit)),
			Units:   GrowthRate(float64(current.Units), float64(previous.Units)),
		},
	}
}

type TrendReport struct {
	TopPerformer      *CategoryTrend  `json:"topPerformer"`
	CategoryBreakdown []CategoryTrend `json:"categoryBreakdown"`
	TotalCategories   int             `json:"totalCategories"`
}

func NewTrendReport(rows []CategoryTrend) TrendReport {
	sorted := make([]CategoryTrend, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TotalRevenue > sorted[j].TotalRevenue
	})

	report := TrendReport{
		CategoryBreakdown: sorted,
		TotalCategories:   len(sorted),
	}
	if len(sorted) > 0 {
		top := sorted[0]
		report.TopPerformer = &top
	}
	return report
}

// TrendFilter covers the trailing trend window ending today.
func TrendFilter(today Day) Filter {
	from := today.AddDays(-TrendWindowDays)
	return Filter{From: &from}
}

func HistoryFilter(today Day) Filter {
	from := today.AddDays(-HistoryWindowDays)
	return Filter{From: &from}
}

// Random is the subset of *rand.Rand the generators need.
type Random interface {
	Float64() float64
	IntN(n int) int
}

type ForecastPoint struct {
	Date       Day     `json:"date"`
	Revenue    Money   `json:"forecasted_revenue"`
	Confidence float64 `json:"confidence"`
}

type ForecastReport struct {
	Historical []DailyRevenue  `json:"historical"`
	Forecast   []ForecastPoint `json:"forecast"`
}

// Forecast projects the mean of the last 30 daily totals forward, each day jittered by
// up to ±5% and tagged with a confidence of 0.85 - 0.02*day. It is a placeholder, not a
// fitted model. Fewer than two history points yields no forecast.
func Forecast(history []DailyRevenue, today Day, rng Random) []ForecastPoint {
	out := make([]ForecastPoint, 0, ForecastDays)
	if len(history) < 2 {
		return out
	}

	basis := history
	if len(basis) > forecastBasisDays {
		basis = basis[len(basis)-forecastBasisDays:]
	}

	var sum float64
	for _, d := range basis {
		sum += float64(d.Revenue)
	}
	avg := sum / float64(len(basis))

	for i := 1; i <= ForecastDays; i++ {
		jitter := rng.Float64()*2*forecastJitter - forecastJitter
		out = append(out, ForecastPoint{
			Date:       today.AddDays(i),
			Revenue:    Money(avg * (1 + jitter)),
			Confidence: baseConfidence - confidenceDecayDay*float64(i),
		})
	}

	return out
}

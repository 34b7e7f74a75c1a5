package metric

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ListLimit caps the rows returned by the dashboard listing. Export ignores it.
const ListLimit = 1000

const DayLayout = "2006-01-02"

var (
	ErrInvalidDay       = errors.New("date must be formatted as YYYY-MM-DD")
	ErrMissingDateRange = errors.New("startDate and endDate are required")
	ErrInvalidPeriod    = errors.New("invalid period parameter")
	ErrUnknownScenario  = errors.New("unknown scenario")
	ErrUnknownBulkMode  = errors.New("unknown generation scenario")
)

// Day is a calendar date with no time-of-day, always held in UTC.
type Day struct {
	time.Time
}

func NewDay(t time.Time) Day {
	y, m, d := t.Date()
	return Day{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func Today() Day {
	return NewDay(time.Now())
}

func ParseDay(s string) (Day, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return Day{}, ErrInvalidDay
	}
	return Day{t}, nil
}

func (d Day) AddDays(n int) Day {
	return Day{d.Time.AddDate(0, 0, n)}
}

func (d Day) String() string {
	return d.Time.Format(DayLayout)
}

func (d Day) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Day) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDay
	}
	parsed, err := ParseDay(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Money is a currency amount serialized with two decimals.
type Money float64

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(strconv.FormatFloat(Round2(float64(m)), 'f', 2, 64)), nil
}

// Record is one daily sales fact. Profit is expected to equal Revenue - CostOfGoods
// but nothing enforces it once admin multipliers have been applied.
type Record struct {
	ID          int64     `json:"id,omitempty"`
	Date        Day       `json:"date"`
	Revenue     Money     `json:"revenue"`
	UnitsSold   int       `json:"units_sold"`
	CostOfGoods Money     `json:"cost_of_goods"`
	Profit      Money     `json:"profit"`
	Category    *string   `json:"product_category"`
	Region      *string   `json:"region"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter selects rows. Nil fields are not applied; present fields combine with AND.
type Filter struct {
	From     *Day
	To       *Day
	Category *string
	Region   *string
}

func (f Filter) Matches(r Record) bool {
	if f.From != nil && r.Date.Time.Before(f.From.Time) {
		return false
	}
	if f.To != nil && r.Date.Time.After(f.To.Time) {
		return false
	}
	if f.Category != nil && (r.Category == nil || *r.Category != *f.Category) {
		return false
	}
	if f.Region != nil && (r.Region == nil || *r.Region != *f.Region) {
		return false
	}
	return true
}

type Summary struct {
	TotalRevenue Money `json:"totalRevenue"`
	TotalProfit  Money `json:"totalProfit"`
	TotalUnits   int64 `json:"totalUnits"`
	AvgRevenue   Money `json:"avgRevenue"`
	RecordCount  int64 `json:"recordCount"`
}

type DateRange struct {
	MinDate *Day `json:"minDate"`
	MaxDate *Day `json:"maxDate"`
}

type FilterOptions struct {
	Categories []string  `json:"categories"`
	Regions    []string  `json:"regions"`
	DateRange  DateRange `json:"dateRange"`
}

type CategoryTrend struct {
	Category         *string `json:"product_category"`
	TotalRevenue     Money   `json:"total_revenue"`
	TotalProfit      Money   `json:"total_profit"`
	TotalUnits       int64   `json:"total_units"`
	TransactionCount int64   `json:"transaction_count"`
}

type DailyRevenue struct {
	Date    Day   `json:"date"`
	Revenue Money `json:"daily_revenue"`
}

func StringPtr(s string) *string {
	return &s
}

// OptionalString maps "" to nil so query-string filters can be passed straight through.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

package metric

import (
	"math"
	"math/rand/v2"
	"sort"
)

// SampleDays is the size of the canonical dataset: one row per day ending today.
const SampleDays = 90

const (
	DefaultBulkRecords = 50
	DefaultBulkMode    = "normal"
	fallbackBase       = 500
)

var (
	Categories = []string{"Electronics", "Clothing", "Home Goods", "Books", "Sports"}
	Regions    = []string{"North", "South", "East", "West"}

	baseRevenue = map[string]float64{
		"Electronics": 1500,
		"Clothing":    300,
		"Home Goods":  600,
		"Books":       100,
		"Sports":      400,
	}

	bulkMultipliers = map[string]float64{
		"normal":    1.0,
		"growth":    1.3,
		"recession": 0.7,
		"spike":     2.0,
	}
)

// GlobalRandom draws from math/rand/v2's goroutine-safe top-level source.
type GlobalRandom struct{}

func (GlobalRandom) Float64() float64 { return rand.Float64() }
func (GlobalRandom) IntN(n int) int   { return rand.IntN(n) }

func BulkMultiplier(mode string) (float64, error) {
	m, ok := bulkMultipliers[mode]
	if !ok {
		return 0, ErrUnknownBulkMode
	}
	return m, nil
}

func BulkModes() []string {
	modes := make([]string, 0, len(bulkMultipliers))
	for m := range bulkMultipliers {
		modes = append(modes, m)
	}
	sort.Strings(modes)
	return modes
}

// Synthesize builds one plausible row for day with a random category and region.
// Cost of goods lands between 30% and 60% of revenue.
func Synthesize(rng Random, day Day, multiplier float64) Record {
	category := Categories[rng.IntN(len(Categories))]
	region := Regions[rng.IntN(len(Regions))]

	base, ok := baseRevenue[category]
	if !ok {
		base = fallbackBase
	}
	base *= multiplier

	revenue := Round2(math.Max(100, base+(rng.Float64()-0.5)*base))
	cost := Round2(revenue * (0.3 + rng.Float64()*0.3))
	units := int(math.Max(1, math.Floor(revenue/(base*0.3))))

	return Record{
		Date:        day,
		Revenue:     Money(revenue),
		UnitsSold:   units,
		CostOfGoods: Money(cost),
		Profit:      Money(Round2(revenue - cost)),
		Category:    StringPtr(category),
		Region:      StringPtr(region),
	}
}

// GenerateSample returns the canonical dataset, oldest day first.
func GenerateSample(rng Random, today Day) []Record {
	out := make([]Record, 0, SampleDays)
	for i := 0; i < SampleDays; i++ {
		out = append(out, Synthesize(rng, today.AddDays(-(SampleDays-1-i)), 1.0))
	}
	return out
}

// GenerateBulk draws n rows on random days within the trailing 90 days.
func GenerateBulk(rng Random, today Day, n int, mode string) ([]Record, float64, error) {
	multiplier, err := BulkMultiplier(mode)
	if err != nil {
		return nil, 0, err
	}

	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		day := today.AddDays(-rng.IntN(SampleDays))
		out = append(out, Synthesize(rng, day, multiplier))
	}
	return out, multiplier, nil
}

// NewManualRecord derives profit server-side; any client supplied profit is ignored.
func NewManualRecord(day Day, revenue float64, units int, cost float64, category, region string) Record {
	revenue = Round2(revenue)
	cost = Round2(cost)
	return Record{
		Date:        day,
		Revenue:     Money(revenue),
		UnitsSold:   units,
		CostOfGoods: Money(cost),
		Profit:      Money(Round2(revenue - cost)),
		Category:    StringPtr(category),
		Region:      StringPtr(region),
	}
}

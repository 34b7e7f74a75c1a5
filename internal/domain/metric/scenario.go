package metric

import "sort"

// Scaling multiplies revenue and profit in place for every row matching the optional
// category/region predicate.
type Scaling struct {
	RevenueMultiplier float64
	ProfitMultiplier  float64
	Category          *string
	Region            *string
}

func (s Scaling) Filter() Filter {
	return Filter{Category: s.Category, Region: s.Region}
}

func (s Scaling) Apply(r Record) Record {
	r.Revenue = Money(Round2(float64(r.Revenue) * s.RevenueMultiplier))
	r.Profit = Money(Round2(float64(r.Profit) * s.ProfitMultiplier))
	return r
}

type Scenario struct {
	Name        string
	Description string
	Scaling     Scaling
}

var scenarios = map[string]Scenario{
	"revenue-spike": {
		Name:        "revenue-spike",
		Description: "50% Revenue Spike in Electronics",
		Scaling:     Scaling{RevenueMultiplier: 1.5, ProfitMultiplier: 1.5, Category: StringPtr("Electronics")},
	},
	"profit-drop": {
		Name:        "profit-drop",
		Description: "30% Profit Drop in Clothing",
		Scaling:     Scaling{RevenueMultiplier: 0.9, ProfitMultiplier: 0.7, Category: StringPtr("Clothing")},
	},
	"category-leader": {
		Name:        "category-leader",
		Description: "Make Sports Category the Leader",
		Scaling:     Scaling{RevenueMultiplier: 2.0, ProfitMultiplier: 2.0, Category: StringPtr("Sports")},
	},
	"regional-boom": {
		Name:        "regional-boom",
		Description: "West Region Business Boom",
		Scaling:     Scaling{RevenueMultiplier: 1.8, ProfitMultiplier: 1.8, Region: StringPtr("West")},
	},
}

func LookupScenario(name string) (Scenario, error) {
	s, ok := scenarios[name]
	if !ok {
		return Scenario{}, ErrUnknownScenario
	}
	return s, nil
}

func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

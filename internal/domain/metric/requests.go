package metric

// AddRecordRequest mirrors the add-record form. Any profit in the body is ignored and
// recomputed from revenue and cost.
type AddRecordRequest struct {
	Date        string   `json:"date" binding:"required,datetime=2006-01-02"`
	Revenue     *float64 `json:"revenue" binding:"required,gt=0"`
	UnitsSold   *int     `json:"units_sold" binding:"required,gt=0"`
	CostOfGoods *float64 `json:"cost_of_goods" binding:"required,gt=0"`
	Category    string   `json:"product_category" binding:"required,max=100"`
	Region      string   `json:"region" binding:"required,max=50"`
}

func (r AddRecordRequest) Record() (Record, error) {
	day, err := ParseDay(r.Date)
	if err != nil {
		return Record{}, err
	}
	return NewManualRecord(day, *r.Revenue, *r.UnitsSold, *r.CostOfGoods, r.Category, r.Region), nil
}

// GenerateRequest distinguishes an omitted records count, which takes the default,
// from an explicit 0, which fails min=1.
type GenerateRequest struct {
	Records  *int   `json:"records" binding:"omitempty,min=1,max=10000"`
	Scenario string `json:"scenario" binding:"omitempty,oneof=normal growth recession spike"`
}

// BulkRequest is a GenerateRequest with every default applied.
type BulkRequest struct {
	Records  int    `json:"records"`
	Scenario string `json:"scenario"`
}

func (r GenerateRequest) Normalize() BulkRequest {
	out := BulkRequest{Records: DefaultBulkRecords, Scenario: r.Scenario}
	if r.Records != nil {
		out.Records = *r.Records
	}
	if out.Scenario == "" {
		out.Scenario = DefaultBulkMode
	}
	return out
}

type ScenarioRequest struct {
	Scenario string `json:"scenario" binding:"required"`
}

// ModifyRequest scales rows matching the optional category/region. An omitted
// multiplier leaves that column unchanged.
type ModifyRequest struct {
	RevenueMultiplier *float64 `json:"revenueMultiplier" binding:"omitempty,gt=0"`
	ProfitMultiplier  *float64 `json:"profitMultiplier" binding:"omitempty,gt=0"`
	Category          string   `json:"category" binding:"omitempty,max=100"`
	Region            string   `json:"region" binding:"omitempty,max=50"`
}

func (r ModifyRequest) Scaling() Scaling {
	s := Scaling{
		RevenueMultiplier: 1,
		ProfitMultiplier:  1,
		Category:          OptionalString(r.Category),
		Region:            OptionalString(r.Region),
	}
	if r.RevenueMultiplier != nil {
		s.RevenueMultiplier = *r.RevenueMultiplier
	}
	if r.ProfitMultiplier != nil {
		s.ProfitMultiplier = *r.ProfitMultiplier
	}
	return s
}

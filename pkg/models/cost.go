package models

import "time"

// Common cost dimensions
const (
	DimensionService        = "Service"
	DimensionTeam           = "Team"
	DimensionEnvironment    = "Environment"
	DimensionInstanceFamily = "InstanceFamily"
)

// ScopeTotal identifies the account-wide series
const ScopeTotal = "total"

// Period is a half-open billing interval [Start, End)
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Days returns the period length in whole days
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours() / 24)
}

// CostRecord is the spend of one billing period, optionally broken down by dimension
type CostRecord struct {
	Period     Period                        `json:"period"`
	Dimensions map[string]map[string]float64 `json:"dimensions,omitempty"`
	Total      float64                       `json:"total"`
	Currency   string                        `json:"currency"`
}

// Amount returns the spend for a dimension scope. An empty dimension means the total.
func (c CostRecord) Amount(dimension, value string) (float64, bool) {
	if dimension == "" {
		return c.Total, true
	}
	values, ok := c.Dimensions[dimension]
	if !ok {
		return 0, false
	}
	amount, ok := values[value]
	return amount, ok
}

// CostBreakdown is one dimension of latest-period spend
type CostBreakdown struct {
	Dimension string          `json:"dimension"`
	Period    Period          `json:"period"`
	Total     float64         `json:"total"`
	Items     []BreakdownItem `json:"items"`
}

// BreakdownItem is a single dimension value with its share of spend
type BreakdownItem struct {
	Value      string  `json:"value"`
	Amount     float64 `json:"amount"`
	Percentage float64 `json:"percentage"`
}

// ScopeOf renders a dimension scope label. An empty dimension is the account total.
func ScopeOf(dimension, value string) string {
	if dimension == "" {
		return ScopeTotal
	}
	return dimension + "=" + value
}

package models

// ActionType represents the kind of optimization action
type ActionType string

const (
	ActionTerminate           ActionType = "terminate"
	ActionDelete              ActionType = "delete"
	ActionRightSize           ActionType = "rightsize"
	ActionMigrateStorageClass ActionType = "migrate-storage-class"
	ActionPurchaseCommitment  ActionType = "purchase-commitment"
	ActionMigrateArchitecture ActionType = "migrate-architecture"
)

// RiskLevel represents the risk of applying a recommendation
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// Ordinal orders risk tiers from lowest to highest
func (r RiskLevel) Ordinal() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	default:
		return 3
	}
}

// Recommendation represents an optimization recommendation
type Recommendation struct {
	Rank        int        `json:"rank"`
	ResourceID  string     `json:"resource_id"`
	Action      ActionType `json:"action"`
	FindingKeys []string   `json:"finding_keys,omitempty"`
	Title       string     `json:"title"`
	Reason      string     `json:"reason"`

	// Current and target state, where the action changes a class
	CurrentClass string `json:"current_class,omitempty"`
	TargetClass  string `json:"target_class,omitempty"`

	// Economics
	MonthlySavings float64   `json:"monthly_savings"`
	MigrationCost  float64   `json:"migration_cost"`
	ROIMonths      float64   `json:"roi_months"`
	Risk           RiskLevel `json:"risk"`
}

// AnnualSavings projects the monthly saving across a year
func (r Recommendation) AnnualSavings() float64 {
	return r.MonthlySavings * 12
}

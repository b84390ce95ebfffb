package models

import "time"

// SeverityLevel buckets an anomaly's severity
type SeverityLevel string

const (
	SeverityLow      SeverityLevel = "LOW"
	SeverityMedium   SeverityLevel = "MEDIUM"
	SeverityHigh     SeverityLevel = "HIGH"
	SeverityCritical SeverityLevel = "CRITICAL"
)

// AnomalySignal flags a period whose spend departs from its trailing baseline
type AnomalySignal struct {
	Period   Period        `json:"period"`
	Scope    string        `json:"scope"`
	Observed float64       `json:"observed"`
	Expected float64       `json:"expected"`
	StdDev   float64       `json:"stddev"`
	Score    float64       `json:"score"`
	Severity float64       `json:"severity"`
	Level    SeverityLevel `json:"level"`
}

// PolicyViolation is a resource that breaks a governance rule
type PolicyViolation struct {
	ResourceID string `json:"resource_id"`
	Scope      string `json:"scope"`
	Rule       string `json:"rule"`
	Observed   string `json:"observed"`
	Threshold  string `json:"threshold"`
}

// BudgetLevel is the tier a budget alert fires at
type BudgetLevel string

const (
	BudgetWarning BudgetLevel = "warning"
	BudgetBreach  BudgetLevel = "breach"
)

// BudgetAlert is emitted when period-to-date spend crosses a budget ratio
type BudgetAlert struct {
	Budget    string      `json:"budget"`
	Scope     string      `json:"scope"`
	Level     BudgetLevel `json:"level"`
	Period    string      `json:"period"`
	Observed  float64     `json:"observed"`
	Threshold float64     `json:"threshold"`
	Limit     float64     `json:"limit"`
	At        time.Time   `json:"at"`
}

// ComplianceSummary is the tag compliance rate over the resource set
type ComplianceSummary struct {
	Total      int     `json:"total"`
	Compliant  int     `json:"compliant"`
	Percentage float64 `json:"percentage"`
}

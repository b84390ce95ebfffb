package models

import "time"

// ScenarioID names a forecast scenario. The set is closed.
type ScenarioID string

const (
	ScenarioBaseline     ScenarioID = "baseline"
	ScenarioConservative ScenarioID = "conservative"
	ScenarioAggressive   ScenarioID = "aggressive"
)

// Scenarios lists every scenario in presentation order
var Scenarios = []ScenarioID{ScenarioBaseline, ScenarioConservative, ScenarioAggressive}

// Valid reports whether s is a known scenario
func (s ScenarioID) Valid() bool {
	switch s {
	case ScenarioBaseline, ScenarioConservative, ScenarioAggressive:
		return true
	}
	return false
}

// ForecastPoint is the predicted spend of one future month under one scenario
type ForecastPoint struct {
	Period          string     `json:"period"`
	PeriodStart     time.Time  `json:"period_start"`
	Scenario        ScenarioID `json:"scenario"`
	Point           float64    `json:"point"`
	Lower           float64    `json:"lower"`
	Upper           float64    `json:"upper"`
	ConfidenceLevel float64    `json:"confidence_level"`
}

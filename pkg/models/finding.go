package models

// WasteCategory classifies a waste finding
type WasteCategory string

const (
	CategoryIdleCompute      WasteCategory = "idle-compute"
	CategoryUnattachedVolume WasteCategory = "unattached-storage"
	CategoryOldSnapshot      WasteCategory = "old-snapshot"
	CategoryIdleDatabase     WasteCategory = "idle-database"
	CategoryUnusedNetwork    WasteCategory = "unused-network"
	CategoryStoppedStorage   WasteCategory = "stopped-instance-storage"
)

// Evidence records what a rule observed against which threshold
type Evidence struct {
	Rule      string  `json:"rule"`
	Metric    string  `json:"metric"`
	Threshold float64 `json:"threshold"`
	Observed  float64 `json:"observed"`
	Samples   int     `json:"samples,omitempty"`
}

// WasteFinding is a resource judged to be wasting money
type WasteFinding struct {
	Key          string        `json:"key"`
	ResourceID   string        `json:"resource_id"`
	ResourceType ResourceType  `json:"resource_type"`
	Region       string        `json:"region"`
	Category     WasteCategory `json:"category"`
	MonthlyWaste float64       `json:"monthly_waste"`
	Confidence   float64       `json:"confidence"`
	Evidence     Evidence      `json:"evidence"`
	Detail       string        `json:"detail"`
}

package models

import "time"

// ResourceType is the broad class of a cloud resource
type ResourceType string

const (
	ResourceCompute  ResourceType = "compute"
	ResourceStorage  ResourceType = "storage"
	ResourceDatabase ResourceType = "database"
	ResourceNetwork  ResourceType = "network"
)

// ResourceKind narrows a ResourceType to the billable object the rules reason about
type ResourceKind string

const (
	KindInstance   ResourceKind = "instance"
	KindVolume     ResourceKind = "volume"
	KindSnapshot   ResourceKind = "snapshot"
	KindAddress    ResourceKind = "address"
	KindGateway    ResourceKind = "gateway"
	KindDBInstance ResourceKind = "db-instance"
)

// ResourceState is the lifecycle state reported by the provider
type ResourceState string

const (
	StateRunning   ResourceState = "running"
	StateStopped   ResourceState = "stopped"
	StateAvailable ResourceState = "available"
	StateInUse     ResourceState = "in-use"
)

// Metric names carried by utilization samples
const (
	MetricCPU            = "CPUUtilization"
	MetricDBConnections  = "DatabaseConnections"
	MetricBytesProcessed = "BytesProcessed"
)

// UtilizationSample is a single observation of a resource metric
type UtilizationSample struct {
	Timestamp time.Time `json:"timestamp"`
	Metric    string    `json:"metric"`
	Value     float64   `json:"value"`
}

// ResourceRecord is the normalized snapshot of one resource for a single run.
// Records are never mutated after normalization.
type ResourceRecord struct {
	ID          string              `json:"id"`
	Type        ResourceType        `json:"type"`
	Kind        ResourceKind        `json:"kind"`
	Region      string              `json:"region"`
	Tags        map[string]string   `json:"tags,omitempty"`
	Samples     []UtilizationSample `json:"samples,omitempty"`
	MonthlyCost float64             `json:"monthly_cost"`
	State       ResourceState       `json:"state"`

	// Sizing and topology attributes
	InstanceClass   string    `json:"instance_class,omitempty"`
	SizeGB          float64   `json:"size_gb,omitempty"`
	StorageClass    string    `json:"storage_class,omitempty"`
	AttachedVolumes int       `json:"attached_volumes,omitempty"`
	AttachedTo      string    `json:"attached_to,omitempty"`
	SourceID        string    `json:"source_id,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitempty"`
	StateSince      time.Time `json:"state_since,omitempty"`
}

// IsActive reports whether the resource is currently in service
func (r ResourceRecord) IsActive() bool {
	return r.State == StateRunning || r.State == StateInUse
}

// SkippedRecord describes input the normalization layer refused
type SkippedRecord struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Reason string `json:"reason"`
}

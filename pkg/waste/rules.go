package waste

import (
	"fmt"
	"time"

	"github.com/opscart/finops-engine/pkg/analyzer"
	"github.com/opscart/finops-engine/pkg/config"
	"github.com/opscart/finops-engine/pkg/models"
)

// IdleComputeRule flags running instances whose mean CPU stays under the idle
// threshold for the whole window. Sparse data suppresses the rule entirely.
type IdleComputeRule struct {
	cfg  config.ThresholdConfig
	asOf time.Time
}

func (r *IdleComputeRule) Name() string { return "idle-compute" }

func (r *IdleComputeRule) Evaluate(res models.ResourceRecord) (*models.WasteFinding, error) {
	if res.Kind != models.KindInstance || res.State != models.StateRunning {
		return nil, nil
	}

	cpu, err := analyzer.Summarize(res, models.MetricCPU, r.asOf, r.cfg.IdleWindow(), r.cfg.SampleInterval)
	if err != nil {
		return nil, err
	}
	if cpu.Coverage < r.cfg.MinSampleCoverage || cpu.Mean >= r.cfg.IdleCPUThreshold {
		return nil, nil
	}

	return newFinding(res, models.CategoryIdleCompute, cpu.Coverage, models.Evidence{
		Rule:      r.Name(),
		Metric:    models.MetricCPU,
		Threshold: r.cfg.IdleCPUThreshold,
		Observed:  cpu.Mean,
		Samples:   cpu.Samples,
	}, fmt.Sprintf("Average CPU %.1f%% over %d days (%s)", cpu.Mean, r.cfg.IdleDays, res.InstanceClass)), nil
}

// StoppedWithStorageRule flags stopped instances that still pay for attached volumes
type StoppedWithStorageRule struct{}

func (r *StoppedWithStorageRule) Name() string { return "stopped-instance-storage" }

func (r *StoppedWithStorageRule) Evaluate(res models.ResourceRecord) (*models.WasteFinding, error) {
	if res.Kind != models.KindInstance || res.State != models.StateStopped || res.AttachedVolumes == 0 {
		return nil, nil
	}

	return newFinding(res, models.CategoryStoppedStorage, 1.0, models.Evidence{
		Rule:      r.Name(),
		Metric:    "AttachedVolumes",
		Threshold: 0,
		Observed:  float64(res.AttachedVolumes),
	}, fmt.Sprintf("Stopped instance still billed for %d attached volume(s)", res.AttachedVolumes)), nil
}

// UnattachedVolumeRule flags volumes that have sat unattached for the minimum age
type UnattachedVolumeRule struct {
	cfg  config.ThresholdConfig
	asOf time.Time
}

func (r *UnattachedVolumeRule) Name() string { return "unattached-storage" }

func (r *UnattachedVolumeRule) Evaluate(res models.ResourceRecord) (*models.WasteFinding, error) {
	if res.Kind != models.KindVolume || res.State != models.StateAvailable {
		return nil, nil
	}

	// without a state change time, creation time bounds how long it can have been unattached
	since, confidence := res.StateSince, 1.0
	if since.IsZero() {
		since, confidence = res.CreatedAt, 0.9
	}
	if since.IsZero() {
		return nil, nil
	}

	days := r.asOf.Sub(since).Hours() / 24
	if days < float64(r.cfg.UnattachedMinDays) {
		return nil, nil
	}

	return newFinding(res, models.CategoryUnattachedVolume, confidence, models.Evidence{
		Rule:      r.Name(),
		Metric:    "DaysUnattached",
		Threshold: float64(r.cfg.UnattachedMinDays),
		Observed:  days,
	}, fmt.Sprintf("%.0fGB %s volume unattached for %.0f days", res.SizeGB, res.StorageClass, days)), nil
}

// OldSnapshotRule flags snapshots past the age limit whose source is no longer in service
type OldSnapshotRule struct {
	cfg       config.ThresholdConfig
	asOf      time.Time
	inventory *Inventory
}

func (r *OldSnapshotRule) Name() string { return "old-snapshot" }

func (r *OldSnapshotRule) Evaluate(res models.ResourceRecord) (*models.WasteFinding, error) {
	if res.Kind != models.KindSnapshot || res.CreatedAt.IsZero() {
		return nil, nil
	}

	age := r.asOf.Sub(res.CreatedAt).Hours() / 24
	if age < float64(r.cfg.SnapshotAgeDays) {
		return nil, nil
	}
	if res.SourceID != "" && r.inventory != nil && r.inventory.IsActive(res.SourceID) {
		return nil, nil
	}

	confidence := 1.0
	if res.SourceID == "" {
		confidence = 0.8
	}

	return newFinding(res, models.CategoryOldSnapshot, confidence, models.Evidence{
		Rule:      r.Name(),
		Metric:    "AgeDays",
		Threshold: float64(r.cfg.SnapshotAgeDays),
		Observed:  age,
	}, fmt.Sprintf("%.0fGB snapshot, %.0f days old, source %s not in service", res.SizeGB, age, orUnknown(res.SourceID))), nil
}

// UnusedAddressRule flags static addresses not associated with anything
type UnusedAddressRule struct{}

func (r *UnusedAddressRule) Name() string { return "unused-address" }

func (r *UnusedAddressRule) Evaluate(res models.ResourceRecord) (*models.WasteFinding, error) {
	if res.Kind != models.KindAddress || res.State != models.StateAvailable || res.AttachedTo != "" {
		return nil, nil
	}

	return newFinding(res, models.CategoryUnusedNetwork, 1.0, models.Evidence{
		Rule:   r.Name(),
		Metric: "Association",
	}, "Elastic IP not associated with any instance"), nil
}

// IdleDatabaseRule flags running databases with idle CPU and no client connections
type IdleDatabaseRule struct {
	cfg  config.ThresholdConfig
	asOf time.Time
}

func (r *IdleDatabaseRule) Name() string { return "idle-database" }

func (r *IdleDatabaseRule) Evaluate(res models.ResourceRecord) (*models.WasteFinding, error) {
	if res.Kind != models.KindDBInstance || res.State != models.StateRunning {
		return nil, nil
	}

	window := r.cfg.IdleWindow()
	cpu, err := analyzer.Summarize(res, models.MetricCPU, r.asOf, window, r.cfg.SampleInterval)
	if err != nil {
		return nil, err
	}
	if cpu.Coverage < r.cfg.MinSampleCoverage || cpu.Mean >= r.cfg.IdleDBCPUThreshold {
		return nil, nil
	}

	conns, err := analyzer.Summarize(res, models.MetricDBConnections, r.asOf, window, r.cfg.SampleInterval)
	if err != nil {
		return nil, err
	}
	if conns.Samples > 0 && conns.Mean > r.cfg.IdleDBMaxConnections {
		return nil, nil
	}

	return newFinding(res, models.CategoryIdleDatabase, cpu.Coverage, models.Evidence{
		Rule:      r.Name(),
		Metric:    models.MetricCPU,
		Threshold: r.cfg.IdleDBCPUThreshold,
		Observed:  cpu.Mean,
		Samples:   cpu.Samples,
	}, fmt.Sprintf("Average CPU %.1f%%, %.1f connections over %d days (%s)", cpu.Mean, conns.Mean, r.cfg.IdleDays, res.InstanceClass)), nil
}

// UnusedGatewayRule flags gateways that moved (almost) no traffic in the window
type UnusedGatewayRule struct {
	cfg  config.ThresholdConfig
	asOf time.Time
}

func (r *UnusedGatewayRule) Name() string { return "unused-gateway" }

func (r *UnusedGatewayRule) Evaluate(res models.ResourceRecord) (*models.WasteFinding, error) {
	if res.Kind != models.KindGateway {
		return nil, nil
	}

	traffic, err := analyzer.Summarize(res, models.MetricBytesProcessed, r.asOf, r.cfg.IdleWindow(), r.cfg.SampleInterval)
	if err != nil {
		return nil, err
	}
	if traffic.Coverage < r.cfg.MinSampleCoverage || traffic.Sum > r.cfg.IdleGatewayBytes {
		return nil, nil
	}

	return newFinding(res, models.CategoryUnusedNetwork, traffic.Coverage, models.Evidence{
		Rule:      r.Name(),
		Metric:    models.MetricBytesProcessed,
		Threshold: r.cfg.IdleGatewayBytes,
		Observed:  traffic.Sum,
		Samples:   traffic.Samples,
	}, fmt.Sprintf("Gateway processed %.0f bytes in %d days", traffic.Sum, r.cfg.IdleDays)), nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

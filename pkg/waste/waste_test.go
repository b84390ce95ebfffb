package waste

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/finops-engine/pkg/config"
	"github.com/opscart/finops-engine/pkg/models"
)

var asOf = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func thresholds() config.ThresholdConfig {
	return config.Default().Thresholds
}

func samples(metric string, days int, value float64) []models.UtilizationSample {
	out := make([]models.UtilizationSample, 0, days)
	for d := days - 1; d >= 0; d-- {
		out = append(out, models.UtilizationSample{
			Timestamp: asOf.Add(-time.Duration(d)*24*time.Hour - time.Hour),
			Metric:    metric,
			Value:     value,
		})
	}
	return out
}

func instance(id string, cpu float64, days int) models.ResourceRecord {
	return models.ResourceRecord{
		ID:            id,
		Type:          models.ResourceCompute,
		Kind:          models.KindInstance,
		Region:        "us-east-1",
		State:         models.StateRunning,
		MonthlyCost:   70.08,
		InstanceClass: "m5.large",
		Samples:       samples(models.MetricCPU, days, cpu),
	}
}

func detect(t *testing.T, resources ...models.ResourceRecord) ([]models.WasteFinding, []models.Warning) {
	t.Helper()
	return NewDetector(thresholds(), asOf, zerolog.Nop()).Detect(resources)
}

func byCategory(findings []models.WasteFinding, c models.WasteCategory) []models.WasteFinding {
	var out []models.WasteFinding
	for _, f := range findings {
		if f.Category == c {
			out = append(out, f)
		}
	}
	return out
}

func TestIdleComputeFullCoverage(t *testing.T) {
	findings, warnings := detect(t, instance("i-idle", 2.0, 7))
	assert.Empty(t, warnings)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, models.CategoryIdleCompute, f.Category)
	assert.Equal(t, 70.08, f.MonthlyWaste)
	assert.Equal(t, 1.0, f.Confidence)
	assert.Equal(t, 5.0, f.Evidence.Threshold)
	assert.InDelta(t, 2.0, f.Evidence.Observed, 1e-9)
}

func TestIdleComputeBusyInstance(t *testing.T) {
	findings, _ := detect(t, instance("i-busy", 45, 7))
	assert.Empty(t, findings)
}

func TestIdleComputeInsufficientCoverageSuppressed(t *testing.T) {
	// 5 of 7 daily slots is below the default 0.8 coverage
	findings, _ := detect(t, instance("i-sparse", 1.0, 5))
	assert.Empty(t, findings)

	cfg := thresholds()
	cfg.MinSampleCoverage = 0.7
	findings, _ = NewDetector(cfg, asOf, zerolog.Nop()).Detect([]models.ResourceRecord{instance("i-sparse", 1.0, 5)})
	require.Len(t, findings, 1)
	assert.InDelta(t, 5.0/7.0, findings[0].Confidence, 1e-9)
}

func TestStoppedInstanceWithVolumes(t *testing.T) {
	stopped := models.ResourceRecord{
		ID:              "i-stopped",
		Type:            models.ResourceCompute,
		Kind:            models.KindInstance,
		Region:          "us-east-1",
		State:           models.StateStopped,
		MonthlyCost:     24.0,
		AttachedVolumes: 3,
	}

	findings, warnings := detect(t, stopped)
	assert.Empty(t, warnings)
	require.Len(t, findings, 1)
	assert.Equal(t, models.CategoryStoppedStorage, findings[0].Category)
	assert.Equal(t, 3.0, findings[0].Evidence.Observed)
	assert.Empty(t, byCategory(findings, models.CategoryIdleCompute))
}

func TestUnattachedVolume(t *testing.T) {
	vol := models.ResourceRecord{
		ID:           "vol-1",
		Type:         models.ResourceStorage,
		Kind:         models.KindVolume,
		Region:       "us-east-1",
		State:        models.StateAvailable,
		MonthlyCost:  10,
		SizeGB:       100,
		StorageClass: "gp2",
		StateSince:   asOf.Add(-48 * time.Hour),
	}
	findings, _ := detect(t, vol)
	require.Len(t, findings, 1)
	assert.Equal(t, models.CategoryUnattachedVolume, findings[0].Category)

	vol.StateSince = asOf.Add(-6 * time.Hour)
	findings, _ = detect(t, vol)
	assert.Empty(t, findings, "detached less than a day ago")

	vol.StateSince = time.Time{}
	vol.CreatedAt = asOf.AddDate(0, -1, 0)
	findings, _ = detect(t, vol)
	require.Len(t, findings, 1)
	assert.Equal(t, 0.9, findings[0].Confidence)

	vol.State = models.StateInUse
	findings, _ = detect(t, vol)
	assert.Empty(t, findings)
}

func TestOldSnapshot(t *testing.T) {
	activeVolume := models.ResourceRecord{ID: "vol-live", Type: models.ResourceStorage, Kind: models.KindVolume,
		Region: "us-east-1", State: models.StateInUse}
	snapshot := func(id, source string, ageDays int) models.ResourceRecord {
		return models.ResourceRecord{ID: id, Type: models.ResourceStorage, Kind: models.KindSnapshot,
			Region: "us-east-1", State: models.StateAvailable, MonthlyCost: 4, SourceID: source,
			CreatedAt: asOf.AddDate(0, 0, -ageDays)}
	}

	findings, _ := detect(t,
		activeVolume,
		snapshot("snap-orphan", "vol-gone", 120),
		snapshot("snap-live", "vol-live", 200),
		snapshot("snap-young", "vol-gone", 45),
		snapshot("snap-nosource", "", 100),
	)

	require.Len(t, findings, 2)
	assert.Equal(t, "snap-orphan", findings[0].ResourceID)
	assert.Equal(t, 1.0, findings[0].Confidence)
	assert.Equal(t, "snap-nosource", findings[1].ResourceID)
	assert.Equal(t, 0.8, findings[1].Confidence)
}

func TestUnusedAddressAndGateway(t *testing.T) {
	eip := models.ResourceRecord{ID: "eip-1", Type: models.ResourceNetwork, Kind: models.KindAddress,
		Region: "us-east-1", State: models.StateAvailable, MonthlyCost: 3.65}
	attached := eip
	attached.ID = "eip-2"
	attached.State = models.StateInUse
	attached.AttachedTo = "i-1"

	nat := models.ResourceRecord{ID: "nat-1", Type: models.ResourceNetwork, Kind: models.KindGateway,
		Region: "us-east-1", State: models.StateAvailable, MonthlyCost: 32.85,
		Samples: samples(models.MetricBytesProcessed, 7, 100)}
	busyNat := nat
	busyNat.ID = "nat-2"
	busyNat.Samples = samples(models.MetricBytesProcessed, 7, 5e9)

	findings, _ := detect(t, eip, attached, nat, busyNat)
	require.Len(t, findings, 2)
	for _, f := range findings {
		assert.Equal(t, models.CategoryUnusedNetwork, f.Category)
	}
	assert.Equal(t, "eip-1", findings[0].ResourceID)
	assert.Equal(t, "nat-1", findings[1].ResourceID)
}

func TestIdleDatabase(t *testing.T) {
	db := models.ResourceRecord{ID: "db-1", Type: models.ResourceDatabase, Kind: models.KindDBInstance,
		Region: "us-east-1", State: models.StateRunning, MonthlyCost: 56.72, InstanceClass: "db.t3.medium"}
	db.Samples = append(samples(models.MetricCPU, 7, 2), samples(models.MetricDBConnections, 7, 0)...)

	findings, _ := detect(t, db)
	require.Len(t, findings, 1)
	assert.Equal(t, models.CategoryIdleDatabase, findings[0].Category)

	db.Samples = append(samples(models.MetricCPU, 7, 2), samples(models.MetricDBConnections, 7, 25)...)
	findings, _ = detect(t, db)
	assert.Empty(t, findings, "clients are still connected")
}

func TestMalformedSampleIsolated(t *testing.T) {
	bad := instance("i-bad", 1, 7)
	bad.Samples[3].Value = math.NaN()

	findings, warnings := detect(t, bad, instance("i-good", 1, 7))
	require.Len(t, findings, 1)
	assert.Equal(t, "i-good", findings[0].ResourceID)

	require.Len(t, warnings, 1)
	assert.Equal(t, models.WarningRuleFailure, warnings[0].Kind)
	assert.Equal(t, "i-bad", warnings[0].ResourceID)
}

func TestDetectIsIdempotent(t *testing.T) {
	resources := []models.ResourceRecord{instance("i-1", 1, 7), instance("i-2", 1, 7)}

	first, _ := detect(t, resources...)
	second, _ := detect(t, resources...)
	assert.Equal(t, first, second)
	assert.Equal(t, FindingKey("i-1", models.CategoryIdleCompute), first[0].Key)
	assert.NotEqual(t, first[0].Key, first[1].Key)
}

func TestWasteNeverExceedsCost(t *testing.T) {
	findings, _ := detect(t, instance("i-1", 1, 7))
	for _, f := range findings {
		assert.GreaterOrEqual(t, f.MonthlyWaste, 0.0)
		assert.LessOrEqual(t, f.MonthlyWaste, 70.08)
	}
}

type alwaysRule struct{}

func (alwaysRule) Name() string { return "always" }

func (alwaysRule) Evaluate(res models.ResourceRecord) (*models.WasteFinding, error) {
	return newFinding(res, "custom", 0.5, models.Evidence{Rule: "always"}, ""), nil
}

func TestRegisterCustomRule(t *testing.T) {
	d := NewDetector(thresholds(), asOf, zerolog.Nop())
	d.Register(alwaysRule{})

	findings, _ := d.Detect([]models.ResourceRecord{instance("i-1", 1, 7)})
	require.Len(t, findings, 2)
	assert.Equal(t, models.CategoryIdleCompute, findings[0].Category)
	assert.Equal(t, models.WasteCategory("custom"), findings[1].Category)

	registry := DefaultRegistry(thresholds(), asOf, NewInventory(nil))
	assert.Len(t, registry.Rules(), 7)
}

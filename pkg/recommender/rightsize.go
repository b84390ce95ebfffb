package recommender

import (
	"fmt"
	"math"

	"github.com/opscart/finops-engine/pkg/analyzer"
	"github.com/opscart/finops-engine/pkg/models"
	"github.com/opscart/finops-engine/pkg/pricing"
)

// rightSize picks the smallest class in the same family that keeps projected
// peak CPU under the target. Only resources between the idle and downsize bands qualify.
func (r *Recommender) rightSize(res models.ResourceRecord, table *pricing.Table) *models.Recommendation {
	if res.State != models.StateRunning || res.InstanceClass == "" {
		return nil
	}
	if res.Kind != models.KindInstance && res.Kind != models.KindDBInstance {
		return nil
	}

	current, ok := table.Instance(res.InstanceClass)
	if !ok {
		return nil
	}

	cpu, err := analyzer.Summarize(res, models.MetricCPU, r.asOf, r.thresholds.IdleWindow(), r.thresholds.SampleInterval)
	if err != nil || cpu.Coverage < r.thresholds.MinSampleCoverage {
		return nil
	}

	idle := r.thresholds.IdleCPUThreshold
	if res.Kind == models.KindDBInstance {
		idle = r.thresholds.IdleDBCPUThreshold
	}
	p95 := cpu.Percentiles.P95
	if cpu.Mean < idle || cpu.Mean >= r.cfg.DownsizeCPUThreshold || p95 >= r.cfg.DownsizeCPUThreshold {
		return nil
	}

	var target *pricing.InstanceType
	var projected float64
	for _, candidate := range table.SmallerInFamily(res.InstanceClass) {
		if candidate.Units() <= 0 {
			continue
		}
		p := p95 * current.Units() / candidate.Units()
		if p > r.cfg.RightsizeTargetCPU {
			break
		}
		c := candidate
		target, projected = &c, p
	}
	if target == nil {
		return nil
	}

	savings := current.MonthlyPrice - target.MonthlyPrice
	if res.MonthlyCost > 0 {
		savings = math.Min(savings, res.MonthlyCost)
	}

	risk := models.RiskMedium
	if projected <= r.cfg.RightsizeTargetCPU/2 {
		risk = models.RiskLow
	}
	if res.Kind == models.KindDBInstance && risk == models.RiskLow {
		risk = models.RiskMedium
	}

	return &models.Recommendation{
		ResourceID:     res.ID,
		Action:         models.ActionRightSize,
		Title:          "Right-size underutilized " + string(res.Kind),
		Reason:         fmt.Sprintf("Average CPU %.1f%%, P95 %.1f%%; projected P95 %.1f%% on %s", cpu.Mean, p95, projected, target.Class),
		CurrentClass:   current.Class,
		TargetClass:    target.Class,
		MonthlySavings: savings,
		MigrationCost:  table.MigrationCost(models.ActionRightSize),
		Risk:           risk,
	}
}

// migrateArchitecture suggests the ARM equivalent of class when it is cheaper
func (r *Recommender) migrateArchitecture(res models.ResourceRecord, class string, table *pricing.Table) *models.Recommendation {
	if res.Kind != models.KindInstance || res.State != models.StateRunning || class == "" {
		return nil
	}

	current, ok := table.Instance(class)
	if !ok || current.Arch == "arm64" {
		return nil
	}
	arm, ok := table.ArchEquivalent(class)
	if !ok || arm.MonthlyPrice >= current.MonthlyPrice {
		return nil
	}

	return &models.Recommendation{
		ResourceID:     res.ID,
		Action:         models.ActionMigrateArchitecture,
		Title:          "Migrate to ARM instance family",
		Reason:         fmt.Sprintf("%s costs $%.2f/month less than %s for the same size", arm.Class, current.MonthlyPrice-arm.MonthlyPrice, current.Class),
		CurrentClass:   current.Class,
		TargetClass:    arm.Class,
		MonthlySavings: current.MonthlyPrice - arm.MonthlyPrice,
		MigrationCost:  table.MigrationCost(models.ActionMigrateArchitecture),
		Risk:           models.RiskHigh,
	}
}

// migrateStorageClass moves attached volumes to a cheaper successor tier (gp2 -> gp3)
func (r *Recommender) migrateStorageClass(res models.ResourceRecord, table *pricing.Table) *models.Recommendation {
	if res.Kind != models.KindVolume || res.State != models.StateInUse || res.SizeGB <= 0 {
		return nil
	}

	price, ok := table.StoragePrice(res.StorageClass)
	if !ok {
		return nil
	}
	next, ok := table.Successor(res.StorageClass)
	if !ok {
		return nil
	}

	return &models.Recommendation{
		ResourceID:     res.ID,
		Action:         models.ActionMigrateStorageClass,
		Title:          "Migrate volume to " + next.Name,
		Reason:         fmt.Sprintf("%.0fGB at $%.3f/GB on %s vs $%.3f/GB on %s", res.SizeGB, price, res.StorageClass, next.PricePerGB, next.Name),
		CurrentClass:   res.StorageClass,
		TargetClass:    next.Name,
		MonthlySavings: res.SizeGB * (price - next.PricePerGB),
		MigrationCost:  table.MigrationCost(models.ActionMigrateStorageClass),
		Risk:           models.RiskLow,
	}
}

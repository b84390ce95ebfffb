package recommender

import (
	"fmt"
	"sort"

	"github.com/opscart/finops-engine/pkg/analyzer"
	"github.com/opscart/finops-engine/pkg/models"
	"github.com/opscart/finops-engine/pkg/normalize"
	"github.com/opscart/finops-engine/pkg/pricing"
)

// commitments recommends a commitment purchase for every instance family whose
// monthly spend is stable. The committed baseline is the cheapest recent month,
// less what idle instances of that family cost today.
func (r *Recommender) commitments(findings []models.WasteFinding, byID map[string]models.ResourceRecord, table *pricing.Table) []models.Recommendation {
	if len(r.history) == 0 || table.CommitmentDiscount <= 0 {
		return nil
	}

	months := normalize.Monthly(r.history)
	if len(months) > 12 {
		months = months[len(months)-12:]
	}
	if len(months) < r.cfg.CommitmentMinMonths {
		return nil
	}

	families := make(map[string]struct{})
	for _, m := range months {
		for family := range m.Dimensions[models.DimensionInstanceFamily] {
			families[family] = struct{}{}
		}
	}
	names := make([]string, 0, len(families))
	for f := range families {
		names = append(names, f)
	}
	sort.Strings(names)

	idleByFamily := make(map[string]float64)
	for _, f := range findings {
		if f.Category != models.CategoryIdleCompute {
			continue
		}
		if res, ok := byID[f.ResourceID]; ok && res.InstanceClass != "" {
			idleByFamily[pricing.Family(res.InstanceClass)] += res.MonthlyCost
		}
	}

	var recs []models.Recommendation
	for _, family := range names {
		spend := normalize.Series(months, models.DimensionInstanceFamily, family)
		pattern := analyzer.AnalyzeUsagePattern(spend, r.cfg.CommitmentMinMonths)
		if pattern.Variation >= r.cfg.CommitmentMaxCV {
			r.logger.Debug().Str("family", family).Str("pattern", pattern.Type).
				Float64("cv", pattern.Variation).Msg("spend too variable for a commitment")
			continue
		}

		baseline := spend[0]
		for _, v := range spend {
			if v < baseline {
				baseline = v
			}
		}
		baseline -= idleByFamily[family]
		if baseline <= 0 {
			continue
		}

		recs = append(recs, models.Recommendation{
			ResourceID:     "family:" + family,
			Action:         models.ActionPurchaseCommitment,
			Title:          fmt.Sprintf("Purchase 1-year commitment for %s", family),
			Reason:         fmt.Sprintf("%s spend is %s over %d months (CV %.2f); commit $%.2f/month at %.0f%% discount", family, pattern.Type, len(spend), pattern.Variation, baseline, table.CommitmentDiscount*100),
			CurrentClass:   family,
			MonthlySavings: baseline * table.CommitmentDiscount,
			MigrationCost:  table.MigrationCost(models.ActionPurchaseCommitment),
			Risk:           models.RiskMedium,
		})
	}
	return recs
}

package recommender

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/opscart/finops-engine/pkg/config"
	"github.com/opscart/finops-engine/pkg/models"
	"github.com/opscart/finops-engine/pkg/pricing"
)

type actionTemplate struct {
	action models.ActionType
	risk   models.RiskLevel
	title  string
}

var categoryActions = map[models.WasteCategory]actionTemplate{
	models.CategoryIdleCompute:      {models.ActionTerminate, models.RiskMedium, "Terminate idle instance"},
	models.CategoryStoppedStorage:   {models.ActionDelete, models.RiskMedium, "Snapshot and delete stopped instance"},
	models.CategoryUnattachedVolume: {models.ActionDelete, models.RiskLow, "Snapshot and delete unattached volume"},
	models.CategoryOldSnapshot:      {models.ActionDelete, models.RiskLow, "Delete old snapshot"},
	models.CategoryUnusedNetwork:    {models.ActionDelete, models.RiskLow, "Release unused network resource"},
	models.CategoryIdleDatabase:     {models.ActionTerminate, models.RiskHigh, "Take final snapshot and delete idle database"},
}

// Recommender turns waste findings and utilization into ranked actions
type Recommender struct {
	cfg        config.RecommendConfig
	thresholds config.ThresholdConfig
	asOf       time.Time
	history    []models.CostRecord
	logger     zerolog.Logger
}

// Option configures a Recommender
type Option func(*Recommender)

// WithSpendHistory supplies the cost series used for commitment recommendations
func WithSpendHistory(history []models.CostRecord) Option {
	return func(r *Recommender) {
		r.history = history
	}
}

// WithLogger sets the logger
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Recommender) {
		r.logger = logger.With().Str("component", "recommender").Logger()
	}
}

// New creates a recommender judging utilization windows that end at asOf
func New(cfg config.RecommendConfig, thresholds config.ThresholdConfig, asOf time.Time, opts ...Option) *Recommender {
	r := &Recommender{
		cfg:        cfg,
		thresholds: thresholds,
		asOf:       asOf,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recommend produces ranked recommendations. The result is never nil.
func (r *Recommender) Recommend(findings []models.WasteFinding, resources []models.ResourceRecord, table *pricing.Table) []models.Recommendation {
	if table == nil {
		table = pricing.DefaultTable()
	}

	byID := make(map[string]models.ResourceRecord, len(resources))
	for _, res := range resources {
		byID[res.ID] = res
	}

	recs := r.fromFindings(findings, byID)

	retired := make(map[string]bool)
	for _, rec := range recs {
		retired[rec.ResourceID] = true
	}

	for _, res := range resources {
		if retired[res.ID] {
			continue
		}
		class := res.InstanceClass
		if rs := r.rightSize(res, table); rs != nil {
			recs = append(recs, *rs)
			class = rs.TargetClass
		}
		if arch := r.migrateArchitecture(res, class, table); arch != nil {
			recs = append(recs, *arch)
		}
		if sc := r.migrateStorageClass(res, table); sc != nil {
			recs = append(recs, *sc)
		}
	}

	recs = append(recs, r.commitments(findings, byID, table)...)

	kept := make([]models.Recommendation, 0, len(recs))
	for _, rec := range recs {
		if rec.MonthlySavings < r.cfg.MinMonthlySavings || rec.MonthlySavings <= 0 {
			continue
		}
		rec.ROIMonths = roiMonths(rec.MigrationCost, rec.MonthlySavings)
		kept = append(kept, rec)
	}

	ranked := Rank(kept)
	r.logger.Debug().Int("findings", len(findings)).Int("recommendations", len(ranked)).
		Float64("monthly_savings", Total(ranked)).Msg("recommendations ranked")
	return ranked
}

// fromFindings maps each finding to its action and keeps one action per resource:
// the highest-confidence finding wins, the others are listed as supporting keys.
func (r *Recommender) fromFindings(findings []models.WasteFinding, byID map[string]models.ResourceRecord) []models.Recommendation {
	type slot struct {
		best models.WasteFinding
		tmpl actionTemplate
		keys []string
	}
	slots := make(map[string]*slot)
	var order []string

	for _, f := range findings {
		tmpl, ok := categoryActions[f.Category]
		if !ok {
			r.logger.Debug().Str("category", string(f.Category)).Msg("no action for category")
			continue
		}
		id := f.ResourceID + "|" + string(tmpl.action)
		s, exists := slots[id]
		if !exists {
			slots[id] = &slot{best: f, tmpl: tmpl, keys: []string{f.Key}}
			order = append(order, id)
			continue
		}
		s.keys = append(s.keys, f.Key)
		if better(f, s.best) {
			s.best, s.tmpl = f, tmpl
		}
	}

	recs := make([]models.Recommendation, 0, len(order))
	for _, id := range order {
		s := slots[id]
		sort.Strings(s.keys)

		savings := s.best.MonthlyWaste
		res, known := byID[s.best.ResourceID]
		if known && res.MonthlyCost > 0 {
			savings = math.Min(savings, res.MonthlyCost)
		}

		recs = append(recs, models.Recommendation{
			ResourceID:     s.best.ResourceID,
			Action:         s.tmpl.action,
			FindingKeys:    s.keys,
			Title:          s.tmpl.title,
			Reason:         s.best.Detail,
			CurrentClass:   res.InstanceClass,
			MonthlySavings: savings,
			Risk:           s.tmpl.risk,
		})
	}
	return recs
}

func better(a, b models.WasteFinding) bool {
	if a.Confidence != b.Confidence {
		return a.Confidence > b.Confidence
	}
	if a.MonthlyWaste != b.MonthlyWaste {
		return a.MonthlyWaste > b.MonthlyWaste
	}
	return a.Key < b.Key
}

func roiMonths(migrationCost, savings float64) float64 {
	if migrationCost <= 0 || savings <= 0 {
		return 0
	}
	return migrationCost / savings
}

// Rank orders recommendations by savings (desc), risk (asc), migration cost (asc)
// and resource id, and assigns 1-based ranks
func Rank(recs []models.Recommendation) []models.Recommendation {
	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.MonthlySavings != b.MonthlySavings {
			return a.MonthlySavings > b.MonthlySavings
		}
		if a.Risk.Ordinal() != b.Risk.Ordinal() {
			return a.Risk.Ordinal() < b.Risk.Ordinal()
		}
		if a.MigrationCost != b.MigrationCost {
			return a.MigrationCost < b.MigrationCost
		}
		if a.ResourceID != b.ResourceID {
			return a.ResourceID < b.ResourceID
		}
		return a.Action < b.Action
	})
	for i := range recs {
		recs[i].Rank = i + 1
	}
	return recs
}

// Total is the aggregate monthly savings potential of a recommendation set
func Total(recs []models.Recommendation) float64 {
	total := 0.0
	for _, rec := range recs {
		total += rec.MonthlySavings
	}
	return total
}

// Format renders a recommendation as a single human-readable block
func Format(rec models.Recommendation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s [%s]\n", rec.Rank, rec.Title, rec.ResourceID)
	if rec.TargetClass != "" {
		fmt.Fprintf(&b, "  Change:  %s -> %s\n", rec.CurrentClass, rec.TargetClass)
	}
	fmt.Fprintf(&b, "  Reason:  %s\n", rec.Reason)
	fmt.Fprintf(&b, "  Savings: $%.2f/month ($%.2f/year)\n", rec.MonthlySavings, rec.AnnualSavings())
	if rec.MigrationCost > 0 {
		fmt.Fprintf(&b, "  One-time cost: $%.2f (pays back in %.1f months)\n", rec.MigrationCost, rec.ROIMonths)
	}
	fmt.Fprintf(&b, "  Risk:    %s\n", rec.Risk)
	return b.String()
}

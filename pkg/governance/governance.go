// Package governance checks resources against tagging policy and cost
// series against budgets.
package governance

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/opscart/finops-engine/pkg/config"
	"github.com/opscart/finops-engine/pkg/models"
)

// PolicyRule is a single resource-level governance check. A nil result means compliant.
type PolicyRule interface {
	Name() string
	Evaluate(res models.ResourceRecord) *models.PolicyViolation
}

// RequiredTagsRule needs every listed tag key present with a non-blank value
type RequiredTagsRule struct {
	Tags []string
}

func (r *RequiredTagsRule) Name() string { return "required-tags" }

func (r *RequiredTagsRule) Evaluate(res models.ResourceRecord) *models.PolicyViolation {
	var missing []string
	for _, tag := range r.Tags {
		if strings.TrimSpace(res.Tags[tag]) == "" {
			missing = append(missing, tag)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &models.PolicyViolation{
		ResourceID: res.ID,
		Scope:      PolicyScope(res),
		Rule:       r.Name(),
		Observed:   "missing " + strings.Join(missing, ","),
		Threshold:  strings.Join(r.Tags, ","),
	}
}

// PolicyScope attributes a resource to its team, else its environment, else the account
func PolicyScope(res models.ResourceRecord) string {
	for _, dim := range []string{models.DimensionTeam, models.DimensionEnvironment} {
		if v := strings.TrimSpace(res.Tags[dim]); v != "" {
			return models.ScopeOf(dim, v)
		}
	}
	return ScopeAccount
}

// ScopeAccount is the scope of a violation that names no team or environment
const ScopeAccount = "account"

// Evaluator runs policy rules and budget checks
type Evaluator struct {
	cfg    config.GovernanceConfig
	rules  []PolicyRule
	logger zerolog.Logger
}

// New creates an evaluator with the required-tags rule registered
func New(cfg config.GovernanceConfig, logger zerolog.Logger) *Evaluator {
	e := &Evaluator{
		cfg:    cfg,
		logger: logger.With().Str("component", "governance").Logger(),
	}
	if len(cfg.RequiredTags) > 0 {
		e.Register(&RequiredTagsRule{Tags: cfg.RequiredTags})
	}
	return e
}

// Register appends a policy rule; rules run in registration order
func (e *Evaluator) Register(rule PolicyRule) {
	e.rules = append(e.rules, rule)
}

// Evaluate returns policy violations and budget alerts
func (e *Evaluator) Evaluate(resources []models.ResourceRecord, series []models.CostRecord) ([]models.PolicyViolation, []models.BudgetAlert) {
	violations := e.Policies(resources)
	alerts := e.Budgets(series)

	e.logger.Debug().Int("resources", len(resources)).Int("violations", len(violations)).
		Int("budget_alerts", len(alerts)).Msg("governance evaluated")
	return violations, alerts
}

// Policies runs every rule over every resource
func (e *Evaluator) Policies(resources []models.ResourceRecord) []models.PolicyViolation {
	var out []models.PolicyViolation
	for _, res := range resources {
		for _, rule := range e.rules {
			if v := rule.Evaluate(res); v != nil {
				out = append(out, *v)
			}
		}
	}
	return out
}

// Compliance summarizes how many resources pass every rule. An empty set is fully compliant.
func (e *Evaluator) Compliance(resources []models.ResourceRecord) models.ComplianceSummary {
	failing := make(map[string]bool)
	for _, v := range e.Policies(resources) {
		failing[v.ResourceID] = true
	}

	summary := models.ComplianceSummary{Total: len(resources), Percentage: 100}
	for _, res := range resources {
		if !failing[res.ID] {
			summary.Compliant++
		}
	}
	if summary.Total > 0 {
		summary.Percentage = float64(summary.Compliant) / float64(summary.Total) * 100
	}
	return summary
}

type budgetState struct {
	month   time.Time
	toDate  float64
	emitted map[models.BudgetLevel]bool
}

// Budgets walks the series in order, accumulating spend per calendar month,
// and alerts the first time each budget crosses each level in a month.
func (e *Evaluator) Budgets(series []models.CostRecord) []models.BudgetAlert {
	if len(e.cfg.Budgets) == 0 || len(series) == 0 {
		return nil
	}

	ordered := make([]models.CostRecord, len(series))
	copy(ordered, series)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Period.Start.Before(ordered[j].Period.Start)
	})

	levels := []struct {
		level models.BudgetLevel
		ratio float64
	}{
		{models.BudgetWarning, e.cfg.WarnRatio},
		{models.BudgetBreach, e.cfg.BreachRatio},
	}

	states := make([]budgetState, len(e.cfg.Budgets))
	var alerts []models.BudgetAlert

	for _, rec := range ordered {
		month := time.Date(rec.Period.Start.Year(), rec.Period.Start.Month(), 1, 0, 0, 0, 0, rec.Period.Start.Location())

		for i, b := range e.cfg.Budgets {
			st := &states[i]
			if !st.month.Equal(month) {
				*st = budgetState{month: month, emitted: make(map[models.BudgetLevel]bool, len(levels))}
			}

			amount, _ := rec.Amount(b.Dimension, b.Value)
			st.toDate += amount

			for _, l := range levels {
				threshold := b.Amount * l.ratio
				if st.emitted[l.level] || st.toDate < threshold {
					continue
				}
				st.emitted[l.level] = true
				alerts = append(alerts, models.BudgetAlert{
					Budget:    budgetName(b),
					Scope:     models.ScopeOf(b.Dimension, b.Value),
					Level:     l.level,
					Period:    month.Format("2006-01"),
					Observed:  st.toDate,
					Threshold: threshold,
					Limit:     b.Amount,
					At:        rec.Period.End,
				})
			}
		}
	}
	return alerts
}

func budgetName(b config.BudgetConfig) string {
	if b.Name != "" {
		return b.Name
	}
	return models.ScopeOf(b.Dimension, b.Value)
}

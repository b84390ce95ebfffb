// Package waste detects resources that cost money without doing useful work.
//
// Detection is a pipeline of independent rules held in an ordered registry.
// Every rule sees every resource and may emit at most one finding for it;
// a resource may collect findings from several rules.
package waste

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/opscart/finops-engine/pkg/config"
	"github.com/opscart/finops-engine/pkg/models"
)

// Rule evaluates a single resource. A nil finding means the rule does not apply
// or found nothing wasteful.
type Rule interface {
	Name() string
	Evaluate(res models.ResourceRecord) (*models.WasteFinding, error)
}

// Registry is an ordered set of rules
type Registry struct {
	rules []Rule
}

// NewRegistry creates a registry evaluating rules in the given order
func NewRegistry(rules ...Rule) *Registry {
	return &Registry{rules: rules}
}

// Register appends a rule
func (r *Registry) Register(rule Rule) {
	r.rules = append(r.rules, rule)
}

// Rules returns the rules in evaluation order
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// DefaultRegistry builds the standard rule set for one run
func DefaultRegistry(cfg config.ThresholdConfig, asOf time.Time, inv *Inventory) *Registry {
	return NewRegistry(
		&IdleComputeRule{cfg: cfg, asOf: asOf},
		&StoppedWithStorageRule{},
		&UnattachedVolumeRule{cfg: cfg, asOf: asOf},
		&OldSnapshotRule{cfg: cfg, asOf: asOf, inventory: inv},
		&UnusedAddressRule{},
		&IdleDatabaseRule{cfg: cfg, asOf: asOf},
		&UnusedGatewayRule{cfg: cfg, asOf: asOf},
	)
}

// Inventory is the set of resources in service during the run
type Inventory struct {
	active map[string]struct{}
}

// NewInventory indexes the active resources
func NewInventory(resources []models.ResourceRecord) *Inventory {
	inv := &Inventory{active: make(map[string]struct{}, len(resources))}
	for _, r := range resources {
		if r.IsActive() {
			inv.active[r.ID] = struct{}{}
		}
	}
	return inv
}

// IsActive reports whether id is a running instance or an attached volume
func (i *Inventory) IsActive(id string) bool {
	_, ok := i.active[id]
	return ok
}

// Detector runs the rule registry over a resource set
type Detector struct {
	cfg    config.ThresholdConfig
	asOf   time.Time
	extra  []Rule
	logger zerolog.Logger
}

// NewDetector creates a detector judging utilization windows that end at asOf
func NewDetector(cfg config.ThresholdConfig, asOf time.Time, logger zerolog.Logger) *Detector {
	return &Detector{
		cfg:    cfg,
		asOf:   asOf,
		logger: logger.With().Str("component", "waste").Logger(),
	}
}

// Register adds a rule that runs after the default rules
func (d *Detector) Register(rule Rule) {
	d.extra = append(d.extra, rule)
}

// Detect evaluates every rule against every resource. A rule error only
// affects that rule on that resource and is returned as a warning.
func (d *Detector) Detect(resources []models.ResourceRecord) ([]models.WasteFinding, []models.Warning) {
	registry := DefaultRegistry(d.cfg, d.asOf, NewInventory(resources))
	for _, rule := range d.extra {
		registry.Register(rule)
	}

	findings := make([]models.WasteFinding, 0)
	var warnings []models.Warning
	for _, res := range resources {
		for _, rule := range registry.rules {
			finding, err := rule.Evaluate(res)
			if err != nil {
				d.logger.Warn().Err(err).Str("rule", rule.Name()).Str("resource", res.ID).Msg("rule evaluation failed")
				warnings = append(warnings, models.Warning{
					Kind:       models.WarningRuleFailure,
					Component:  "waste",
					ResourceID: res.ID,
					Message:    fmt.Sprintf("%s: %v", rule.Name(), err),
				})
				continue
			}
			if finding == nil {
				continue
			}
			findings = append(findings, *finding)
		}
	}

	d.logger.Debug().Int("resources", len(resources)).Int("findings", len(findings)).Msg("waste detection complete")
	return findings, warnings
}

var findingNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("finops-engine.waste-finding"))

// FindingKey derives the stable key of a finding. The same resource and category
// always produce the same key, across runs.
func FindingKey(resourceID string, category models.WasteCategory) string {
	return uuid.NewSHA1(findingNamespace, []byte(resourceID+"|"+string(category))).String()
}

func newFinding(res models.ResourceRecord, category models.WasteCategory, confidence float64, ev models.Evidence, detail string) *models.WasteFinding {
	return &models.WasteFinding{
		Key:          FindingKey(res.ID, category),
		ResourceID:   res.ID,
		ResourceType: res.Type,
		Region:       res.Region,
		Category:     category,
		MonthlyWaste: math.Max(0, res.MonthlyCost),
		Confidence:   math.Max(0, math.Min(1, confidence)),
		Evidence:     ev,
		Detail:       detail,
	}
}

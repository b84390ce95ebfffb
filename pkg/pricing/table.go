package pricing

import (
	"sort"
	"strings"

	"github.com/opscart/finops-engine/pkg/models"
)

// InstanceType is one entry of the instance catalog (compute or database)
type InstanceType struct {
	Class        string  `yaml:"class"`
	VCPU         int     `yaml:"vcpu"`
	MemoryGiB    float64 `yaml:"memory_gib"`
	Arch         string  `yaml:"arch"`
	MonthlyPrice float64 `yaml:"monthly_price"`
}

// Family returns the class without its size, e.g. "m5" or "db.r5"
func (i InstanceType) Family() string {
	return Family(i.Class)
}

// Units is the size normalization factor used to compare capacity within a family
func (i InstanceType) Units() float64 {
	return SizeUnits(i.Class)
}

// StorageClass is a block storage tier priced per GB-month
type StorageClass struct {
	Name       string  `yaml:"name"`
	PricePerGB float64 `yaml:"price_per_gb"`
	// Successor is a newer tier that serves the same workload for less
	Successor string `yaml:"successor,omitempty"`
}

// Table is the pricing reference the recommender consults.
// It is read-only once built and safe for concurrent readers.
type Table struct {
	Region             string                        `yaml:"region"`
	Currency           string                        `yaml:"currency"`
	Instances          []InstanceType                `yaml:"instances"`
	Storage            []StorageClass                `yaml:"storage"`
	SnapshotPerGB      float64                       `yaml:"snapshot_per_gb"`
	AddressMonthly     float64                       `yaml:"address_monthly"`
	CommitmentDiscount float64                       `yaml:"commitment_discount"`
	ArchEquivalents    map[string]string             `yaml:"arch_equivalents"`
	MigrationCosts     map[models.ActionType]float64 `yaml:"migration_costs"`

	instances map[string]InstanceType
	storage   map[string]StorageClass
}

// index builds the lookup maps. It must run before the table is shared.
func (t *Table) index() {
	t.instances = make(map[string]InstanceType, len(t.Instances))
	for _, it := range t.Instances {
		t.instances[it.Class] = it
	}
	t.storage = make(map[string]StorageClass, len(t.Storage))
	for _, sc := range t.Storage {
		t.storage[sc.Name] = sc
	}
}

// Instance looks up an instance class
func (t *Table) Instance(class string) (InstanceType, bool) {
	it, ok := t.instances[class]
	return it, ok
}

// StoragePrice returns the per GB-month price of a storage class
func (t *Table) StoragePrice(class string) (float64, bool) {
	sc, ok := t.storage[class]
	return sc.PricePerGB, ok
}

// Successor returns the cheaper replacement tier of a storage class, if any
func (t *Table) Successor(class string) (StorageClass, bool) {
	sc, ok := t.storage[class]
	if !ok || sc.Successor == "" {
		return StorageClass{}, false
	}
	next, ok := t.storage[sc.Successor]
	if !ok || next.PricePerGB >= sc.PricePerGB {
		return StorageClass{}, false
	}
	return next, true
}

// SmallerInFamily lists the classes of the same family with less capacity than class,
// largest first
func (t *Table) SmallerInFamily(class string) []InstanceType {
	current, ok := t.instances[class]
	if !ok {
		return nil
	}

	var out []InstanceType
	for _, it := range t.Instances {
		if it.Family() == current.Family() && it.Units() < current.Units() {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Units() > out[j].Units()
	})
	return out
}

// ArchEquivalent returns the same size in the alternative-architecture family
func (t *Table) ArchEquivalent(class string) (InstanceType, bool) {
	target, ok := t.ArchEquivalents[Family(class)]
	if !ok {
		return InstanceType{}, false
	}
	it, ok := t.instances[target+"."+Size(class)]
	return it, ok
}

// MigrationCost is the one-time cost of carrying out an action
func (t *Table) MigrationCost(action models.ActionType) float64 {
	return t.MigrationCosts[action]
}

// Family strips the size suffix from an instance class
func Family(class string) string {
	idx := strings.LastIndex(class, ".")
	if idx < 0 {
		return class
	}
	return class[:idx]
}

// Size returns the size suffix of an instance class
func Size(class string) string {
	idx := strings.LastIndex(class, ".")
	if idx < 0 {
		return ""
	}
	return class[idx+1:]
}

var sizeUnits = map[string]float64{
	"nano":   0.25,
	"micro":  0.5,
	"small":  1,
	"medium": 2,
	"large":  4,
	"xlarge": 8,
}

// SizeUnits follows the EC2 size normalization factors: nano=0.25 up to xlarge=8,
// and Nxlarge = 8N
func SizeUnits(class string) float64 {
	size := Size(class)
	if u, ok := sizeUnits[size]; ok {
		return u
	}
	if strings.HasSuffix(size, "xlarge") {
		n := 0
		for _, r := range strings.TrimSuffix(size, "xlarge") {
			if r < '0' || r > '9' {
				return 0
			}
			n = n*10 + int(r-'0')
		}
		return float64(8 * n)
	}
	return 0
}

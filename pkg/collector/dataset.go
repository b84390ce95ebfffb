// Package collector holds the raw shape of collected cloud data and the
// sources that produce it. Nothing here is trusted: pkg/normalize validates it.
package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Amount is a money value as collectors report it. Billing APIs return
// decimal strings, hand-written files usually use numbers; both are accepted.
type Amount string

// UnmarshalJSON accepts a JSON string or number
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*a = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*a = Amount(str)
		return nil
	}
	*a = Amount(s)
	return nil
}

// UnmarshalYAML accepts any scalar
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: amount must be a scalar", node.Line)
	}
	*a = Amount(node.Value)
	return nil
}

// Sample is one raw utilization reading
type Sample struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Metric    string    `json:"metric" yaml:"metric"`
	Value     float64   `json:"value" yaml:"value"`
}

// Resource is a resource as the collector saw it
type Resource struct {
	ID              string            `json:"id" yaml:"id"`
	Type            string            `json:"type" yaml:"type"`
	Kind            string            `json:"kind" yaml:"kind"`
	Region          string            `json:"region" yaml:"region"`
	State           string            `json:"state" yaml:"state"`
	Tags            map[string]string `json:"tags,omitempty" yaml:"tags,omitempty"`
	MonthlyCost     Amount            `json:"monthly_cost" yaml:"monthly_cost"`
	InstanceClass   string            `json:"instance_class,omitempty" yaml:"instance_class,omitempty"`
	StorageClass    string            `json:"storage_class,omitempty" yaml:"storage_class,omitempty"`
	SizeGB          float64           `json:"size_gb,omitempty" yaml:"size_gb,omitempty"`
	AttachedVolumes int               `json:"attached_volumes,omitempty" yaml:"attached_volumes,omitempty"`
	AttachedTo      string            `json:"attached_to,omitempty" yaml:"attached_to,omitempty"`
	SourceID        string            `json:"source_id,omitempty" yaml:"source_id,omitempty"`
	CreatedAt       time.Time         `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	StateSince      time.Time         `json:"state_since,omitempty" yaml:"state_since,omitempty"`
	Samples         []Sample          `json:"samples,omitempty" yaml:"samples,omitempty"`
}

// CostEntry is one billing period of spend. Dates are YYYY-MM-DD, End exclusive.
type CostEntry struct {
	Start      string                       `json:"start" yaml:"start"`
	End        string                       `json:"end" yaml:"end"`
	Total      Amount                       `json:"total" yaml:"total"`
	Currency   string                       `json:"currency,omitempty" yaml:"currency,omitempty"`
	Dimensions map[string]map[string]Amount `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

// Dataset is everything one collection pass produced
type Dataset struct {
	Account   string      `json:"account,omitempty" yaml:"account,omitempty"`
	AsOf      time.Time   `json:"as_of,omitempty" yaml:"as_of,omitempty"`
	Resources []Resource  `json:"resources" yaml:"resources"`
	Costs     []CostEntry `json:"costs" yaml:"costs"`
}

// LoadFile reads a dataset from a JSON or YAML file, chosen by extension
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	format := "json"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	}
	return Decode(f, format)
}

// Decode reads a dataset in the given format ("json" or "yaml")
func Decode(r io.Reader, format string) (*Dataset, error) {
	ds := &Dataset{}
	switch format {
	case "json":
		if err := json.NewDecoder(r).Decode(ds); err != nil {
			return nil, fmt.Errorf("decode json dataset: %w", err)
		}
	case "yaml":
		if err := yaml.NewDecoder(r).Decode(ds); err != nil && err != io.EOF {
			return nil, fmt.Errorf("decode yaml dataset: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported dataset format %q", format)
	}
	return ds, nil
}

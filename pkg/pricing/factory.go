package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a pricing table from a YAML file. An empty path or "default"
// returns DefaultTable.
func Load(path string) (*Table, error) {
	if path == "" || path == "default" {
		return DefaultTable(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pricing table: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML pricing table and validates it
func Parse(data []byte) (*Table, error) {
	t := &Table{}
	if err := yaml.Unmarshal(data, t); err != nil {
		return nil, fmt.Errorf("decode pricing table: %w", err)
	}

	if len(t.Instances) == 0 && len(t.Storage) == 0 {
		return nil, fmt.Errorf("pricing table has no instances or storage classes")
	}
	for _, it := range t.Instances {
		if it.Class == "" || it.MonthlyPrice < 0 {
			return nil, fmt.Errorf("invalid instance entry %q", it.Class)
		}
	}
	if t.CommitmentDiscount < 0 || t.CommitmentDiscount >= 1 {
		return nil, fmt.Errorf("commitment_discount must be in [0, 1), got %.2f", t.CommitmentDiscount)
	}
	if t.Currency == "" {
		t.Currency = "USD"
	}

	t.index()
	return t, nil
}

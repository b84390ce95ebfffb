package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/finops-engine/pkg/models"
)

func TestSizeUnits(t *testing.T) {
	tests := []struct {
		class string
		want  float64
	}{
		{"t3.micro", 0.5},
		{"t3.medium", 2},
		{"m5.large", 4},
		{"m5.xlarge", 8},
		{"m5.2xlarge", 16},
		{"m5.8xlarge", 64},
		{"db.r5.xlarge", 8},
		{"weird", 0},
		{"m5.bigxlarge", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SizeUnits(tt.class), tt.class)
	}
}

func TestFamily(t *testing.T) {
	assert.Equal(t, "m5", Family("m5.large"))
	assert.Equal(t, "db.r5", Family("db.r5.large"))
	assert.Equal(t, "large", Size("db.r5.large"))
	assert.Equal(t, "solo", Family("solo"))
}

func TestDefaultTableLookups(t *testing.T) {
	table := DefaultTable()

	it, ok := table.Instance("m5.large")
	require.True(t, ok)
	assert.Equal(t, 70.08, it.MonthlyPrice)

	_, ok = table.Instance("x9.huge")
	assert.False(t, ok)

	price, ok := table.StoragePrice("gp2")
	require.True(t, ok)
	assert.Equal(t, 0.10, price)

	next, ok := table.Successor("gp2")
	require.True(t, ok)
	assert.Equal(t, "gp3", next.Name)

	// io1 -> io2 is not cheaper, so no successor is offered
	_, ok = table.Successor("io1")
	assert.False(t, ok)

	arm, ok := table.ArchEquivalent("m5.2xlarge")
	require.True(t, ok)
	assert.Equal(t, "m6g.2xlarge", arm.Class)

	_, ok = table.ArchEquivalent("t2.micro")
	assert.False(t, ok)

	assert.Equal(t, 500.0, table.MigrationCost(models.ActionMigrateArchitecture))
	assert.Equal(t, 0.0, table.MigrationCost(models.ActionTerminate))
}

func TestSmallerInFamily(t *testing.T) {
	table := DefaultTable()

	smaller := table.SmallerInFamily("m5.2xlarge")
	require.Len(t, smaller, 2)
	assert.Equal(t, "m5.xlarge", smaller[0].Class)
	assert.Equal(t, "m5.large", smaller[1].Class)

	assert.Empty(t, table.SmallerInFamily("m5.large"))
	assert.Empty(t, table.SmallerInFamily("unknown.large"))

	db := table.SmallerInFamily("db.r5.xlarge")
	require.Len(t, db, 1)
	assert.Equal(t, "db.r5.large", db[0].Class)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pricing.yaml")
	content := `
region: eu-west-1
instances:
  - class: m5.large
    vcpu: 2
    monthly_price: 77.38
  - class: m5.xlarge
    vcpu: 4
    monthly_price: 154.76
storage:
  - name: gp2
    price_per_gb: 0.11
    successor: gp3
  - name: gp3
    price_per_gb: 0.088
commitment_discount: 0.25
migration_costs:
  rightsize: 40
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	table, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", table.Region)
	assert.Equal(t, "USD", table.Currency)
	it, ok := table.Instance("m5.xlarge")
	require.True(t, ok)
	assert.Equal(t, 154.76, it.MonthlyPrice)
	assert.Equal(t, 40.0, table.MigrationCost(models.ActionRightSize))
	assert.Equal(t, 0.25, table.CommitmentDiscount)
}

func TestLoadDefault(t *testing.T) {
	table, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", table.Region)
}

func TestParseRejects(t *testing.T) {
	_, err := Parse([]byte("region: x\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("instances:\n  - class: m5.large\n    monthly_price: 1\ncommitment_discount: 1.5\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("instances: [\n"))
	assert.Error(t, err)
}

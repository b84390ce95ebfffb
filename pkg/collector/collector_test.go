package collector

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opscart/finops-engine/pkg/config"
)

var asOf = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func TestAmountJSON(t *testing.T) {
	var v struct {
		A Amount `json:"a"`
		B Amount `json:"b"`
		C Amount `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":"12.34","b":56.7,"c":null}`), &v))
	assert.Equal(t, Amount("12.34"), v.A)
	assert.Equal(t, Amount("56.7"), v.B)
	assert.Equal(t, Amount(""), v.C)
}

func TestDecodeYAML(t *testing.T) {
	doc := `
account: test
resources:
  - id: vol-1
    type: storage
    kind: volume
    region: us-east-1
    state: available
    monthly_cost: 10.5
    storage_class: gp2
    size_gb: 105
costs:
  - start: 2025-01-01
    end: 2025-02-01
    total: "1000.00"
    dimensions:
      Service:
        EC2: 600
        S3: "400"
`
	ds, err := Decode(strings.NewReader(doc), "yaml")
	require.NoError(t, err)
	require.Len(t, ds.Resources, 1)
	assert.Equal(t, Amount("10.5"), ds.Resources[0].MonthlyCost)
	require.Len(t, ds.Costs, 1)
	assert.Equal(t, Amount("600"), ds.Costs[0].Dimensions["Service"]["EC2"])
	assert.Equal(t, Amount("1000.00"), ds.Costs[0].Total)
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	_, err := Decode(strings.NewReader("{}"), "xml")
	assert.Error(t, err)
}

func TestLoadFileRoundTripsDemo(t *testing.T) {
	demo := Demo(asOf)
	data, err := json.Marshal(demo)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "demo.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	ds, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, ds.Resources, len(demo.Resources))
	assert.Len(t, ds.Costs, 12)
	assert.Equal(t, demo.Costs[0].Total, ds.Costs[0].Total)
}

func TestDemoShape(t *testing.T) {
	ds := Demo(asOf)

	assert.Equal(t, "2024-06-01", ds.Costs[0].Start)
	assert.Equal(t, "2025-06-01", ds.Costs[11].End)

	ids := make(map[string]Resource)
	for _, r := range ds.Resources {
		ids[r.ID] = r
	}
	require.Contains(t, ids, "i-demo001")
	assert.Len(t, ids["i-demo001"].Samples, 14)
	assert.Empty(t, ids["i-demo004"].Samples)
	assert.Equal(t, 1, ids["i-demo004"].AttachedVolumes)
	assert.Equal(t, Amount("5.00"), ids["vol-demo002"].MonthlyCost)
}

const matrixResponse = `{
  "status": "success",
  "data": {
    "resultType": "matrix",
    "result": [
      {"metric": {"instance_id": "i-1"}, "values": [[1749600000, "2.5"], [1749686400, "3.5"]]}
    ]
  }
}`

func TestPrometheusEnricher(t *testing.T) {
	var queries []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		queries = append(queries, r.Form.Get("query"))
		w.Header().Set("Content-Type", "application/json")
		if strings.Contains(r.Form.Get("query"), "i-1") {
			_, _ = w.Write([]byte(matrixResponse))
			return
		}
		_, _ = w.Write([]byte(`{"status":"success","data":{"resultType":"matrix","result":[]}}`))
	}))
	defer server.Close()

	cfg := config.Default().Prometheus
	cfg.URL = server.URL

	enricher, err := NewPrometheusEnricher(cfg, zerolog.Nop())
	require.NoError(t, err)

	ds := &Dataset{
		AsOf: asOf,
		Resources: []Resource{
			{ID: "i-1", Type: "compute"},
			{ID: "i-2", Type: "compute"},
			{ID: "vol-1", Type: "storage"},
			{ID: "i-3", Type: "compute", Samples: []Sample{{Timestamp: asOf, Metric: "CPUUtilization", Value: 1}}},
		},
	}

	n, err := enricher.Enrich(context.Background(), ds)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Len(t, queries, 2)
	require.Len(t, ds.Resources[0].Samples, 2)
	assert.Equal(t, 3.5, ds.Resources[0].Samples[1].Value)
	assert.Empty(t, ds.Resources[1].Samples)
	assert.Len(t, ds.Resources[3].Samples, 1)
}

func TestNewPrometheusEnricherRequiresURL(t *testing.T) {
	_, err := NewPrometheusEnricher(config.PrometheusConfig{}, zerolog.Nop())
	assert.Error(t, err)
}

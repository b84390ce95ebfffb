package collector

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type demoCompute struct {
	id, kind, class, state string
	cpu, cost              float64
	tags                   map[string]string
}

// Demo returns a sample account for trying the engine without cloud access.
// Utilization covers the 14 days before asOf; billing covers the 12 full months before asOf.
func Demo(asOf time.Time) *Dataset {
	asOf = asOf.UTC()
	region := "us-east-1"
	ds := &Dataset{Account: "demo", AsOf: asOf}

	compute := []demoCompute{
		{"i-demo001", "instance", "t3.medium", "running", 2.3, 30.37, map[string]string{"Environment": "dev", "Team": "engineering"}},
		{"i-demo002", "instance", "m5.large", "running", 1.1, 70.08, map[string]string{"Environment": "staging", "Team": "data-science"}},
		{"i-demo003", "instance", "t3.large", "running", 3.5, 60.74, map[string]string{"Environment": "dev", "Team": "engineering"}},
		{"i-demo004", "instance", "t3.xlarge", "stopped", 0, 8.00, map[string]string{"Environment": "dev"}},
		{"i-app001", "instance", "m5.xlarge", "running", 14.5, 140.16, map[string]string{"Environment": "production", "Team": "backend", "CostCenter": "cc-200"}},
		{"i-prod001", "instance", "m5.2xlarge", "running", 65.3, 280.32, map[string]string{"Environment": "production", "Team": "backend", "CostCenter": "cc-200"}},
		{"i-prod002", "instance", "c5.xlarge", "running", 78.2, 124.10, map[string]string{"Environment": "production", "Team": "backend", "CostCenter": "cc-200"}},
		{"db-demo001", "db-instance", "db.t3.medium", "running", 2.1, 56.72, map[string]string{"Environment": "dev"}},
		{"db-prod001", "db-instance", "db.r5.large", "running", 45.3, 183.96, map[string]string{"Environment": "production", "Team": "backend", "CostCenter": "cc-200"}},
	}
	for _, c := range compute {
		typ := "compute"
		if c.kind == "db-instance" {
			typ = "database"
		}
		r := Resource{
			ID:            c.id,
			Type:          typ,
			Kind:          c.kind,
			Region:        region,
			State:         c.state,
			Tags:          c.tags,
			MonthlyCost:   money(c.cost),
			InstanceClass: c.class,
			CreatedAt:     asOf.AddDate(0, -8, 0),
		}
		if c.state == "running" {
			r.Samples = dailySamples(asOf, 14, "CPUUtilization", c.cpu)
		}
		if c.kind == "db-instance" && c.state == "running" {
			conns := 0.0
			if c.cpu > 10 {
				conns = 42
			}
			r.Samples = append(r.Samples, dailySamples(asOf, 14, "DatabaseConnections", conns)...)
		}
		if c.id == "i-demo004" {
			r.AttachedVolumes = 1
			r.StateSince = asOf.AddDate(0, 0, -40)
		}
		ds.Resources = append(ds.Resources, r)
	}

	volumes := []struct {
		id, class, state, attachedTo string
		size                         float64
		tags                         map[string]string
	}{
		{"vol-demo001", "gp2", "available", "", 100, nil},
		{"vol-demo002", "gp2", "available", "", 50, nil},
		{"vol-demo003", "gp3", "in-use", "i-prod001", 200, map[string]string{"Environment": "production"}},
		{"vol-demo004", "gp2", "in-use", "i-prod002", 500, map[string]string{"Environment": "production"}},
		{"vol-demo005", "gp2", "in-use", "i-demo004", 80, map[string]string{"Environment": "dev"}},
	}
	perGB := map[string]float64{"gp2": 0.10, "gp3": 0.08}
	for _, v := range volumes {
		ds.Resources = append(ds.Resources, Resource{
			ID:           v.id,
			Type:         "storage",
			Kind:         "volume",
			Region:       region,
			State:        v.state,
			Tags:         v.tags,
			MonthlyCost:  money(v.size * perGB[v.class]),
			StorageClass: v.class,
			SizeGB:       v.size,
			AttachedTo:   v.attachedTo,
			CreatedAt:    asOf.AddDate(0, -6, 0),
			StateSince:   asOf.AddDate(0, 0, -30),
		})
	}

	snapshots := []struct {
		id, source string
		size       float64
		ageDays    int
		tags       map[string]string
	}{
		{"snap-demo001", "vol-retired01", 80, 120, nil},
		{"snap-demo002", "vol-demo004", 100, 150, nil},
		{"snap-demo003", "vol-retired02", 50, 200, nil},
		{"snap-demo004", "vol-demo003", 30, 45, map[string]string{"Backup": "weekly"}},
	}
	for _, s := range snapshots {
		ds.Resources = append(ds.Resources, Resource{
			ID:          s.id,
			Type:        "storage",
			Kind:        "snapshot",
			Region:      region,
			State:       "available",
			Tags:        s.tags,
			MonthlyCost: money(s.size * 0.05),
			SizeGB:      s.size,
			SourceID:    s.source,
			CreatedAt:   asOf.AddDate(0, 0, -s.ageDays),
		})
	}

	ds.Resources = append(ds.Resources,
		Resource{ID: "eipalloc-demo001", Type: "network", Kind: "address", Region: region, State: "available", MonthlyCost: money(3.65)},
		Resource{ID: "eipalloc-demo002", Type: "network", Kind: "address", Region: region, State: "in-use", AttachedTo: "i-prod001",
			Tags: map[string]string{"Environment": "production"}},
		Resource{ID: "nat-demo001", Type: "network", Kind: "gateway", Region: region, State: "available", MonthlyCost: money(32.85),
			Tags:    map[string]string{"Environment": "staging", "Team": "data-science"},
			Samples: dailySamples(asOf, 14, "BytesProcessed", 0)},
	)

	ds.Costs = demoCosts(asOf)
	return ds
}

// demoCosts builds a year of monthly spend around the $45k account total,
// with a Data Transfer spike in the most recent month
func demoCosts(asOf time.Time) []CostEntry {
	services := []struct {
		name string
		base float64
	}{
		{"EC2", 18450}, {"RDS", 12300}, {"S3", 5670}, {"Data Transfer", 4890}, {"EBS", 2100}, {"Other", 1824.50},
	}
	teams := []struct {
		name  string
		share float64
	}{
		{"engineering", 0.489}, {"data-science", 0.346}, {"backend", 0.165},
	}
	envs := []struct {
		name  string
		share float64
	}{
		{"production", 0.70}, {"staging", 0.20}, {"development", 0.10},
	}

	first := time.Date(asOf.Year(), asOf.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -12, 0)
	var costs []CostEntry
	for m := 0; m < 12; m++ {
		start := first.AddDate(0, m, 0)
		growth := 1 + 0.01*float64(m)

		byService := make(map[string]Amount, len(services))
		total := 0.0
		ec2 := 0.0
		for _, s := range services {
			amount := s.base * growth * (1 + 0.015*math.Sin(float64(m)))
			if s.name == "Data Transfer" && m == 11 {
				amount *= 3.2
			}
			amount = round2(amount)
			byService[s.name] = money(amount)
			total += amount
			if s.name == "EC2" {
				ec2 = amount
			}
		}

		byTeam := make(map[string]Amount, len(teams))
		for _, t := range teams {
			byTeam[t.name] = money(round2(total * t.share))
		}
		byEnv := make(map[string]Amount, len(envs))
		for _, e := range envs {
			byEnv[e.name] = money(round2(total * e.share))
		}

		// m5 runs steady production load, t3 follows dev activity
		t3Swing := 0.25
		if m%2 == 1 {
			t3Swing = -0.25
		}
		m5 := round2(ec2 * 0.55)
		t3 := round2(ec2 * 0.25 * (1 + t3Swing))
		c5 := round2(ec2 - m5 - ec2*0.25)

		costs = append(costs, CostEntry{
			Start:    start.Format("2006-01-02"),
			End:      start.AddDate(0, 1, 0).Format("2006-01-02"),
			Total:    money(round2(total)),
			Currency: "USD",
			Dimensions: map[string]map[string]Amount{
				"Service":        byService,
				"Team":           byTeam,
				"Environment":    byEnv,
				"InstanceFamily": {"m5": money(m5), "t3": money(t3), "c5": money(c5)},
			},
		})
	}
	return costs
}

func dailySamples(asOf time.Time, days int, metric string, mean float64) []Sample {
	samples := make([]Sample, 0, days)
	for d := days - 1; d >= 0; d-- {
		wobble := []float64{0.9, 1.0, 1.1}[d%3]
		samples = append(samples, Sample{
			Timestamp: asOf.AddDate(0, 0, -d).Add(-time.Hour),
			Metric:    metric,
			Value:     round2(mean * wobble),
		})
	}
	return samples
}

func money(v float64) Amount {
	return Amount(decimal.NewFromFloat(v).StringFixed(2))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// String implements fmt.Stringer for log output
func (d *Dataset) String() string {
	return fmt.Sprintf("dataset(%s: %d resources, %d cost periods)", d.Account, len(d.Resources), len(d.Costs))
}

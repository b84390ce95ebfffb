// Package normalize turns collector output into the canonical entities the
// analysis components consume. Anything it cannot make sense of is skipped
// with a reason, never guessed at.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/opscart/finops-engine/pkg/collector"
	"github.com/opscart/finops-engine/pkg/models"
)

var (
	// ErrMalformedResource marks a resource record that cannot be normalized
	ErrMalformedResource = errors.New("malformed resource record")
	// ErrMalformedCost marks a cost record that cannot be normalized
	ErrMalformedCost = errors.New("malformed cost record")
)

var kindTypes = map[models.ResourceKind]models.ResourceType{
	models.KindInstance:   models.ResourceCompute,
	models.KindVolume:     models.ResourceStorage,
	models.KindSnapshot:   models.ResourceStorage,
	models.KindAddress:    models.ResourceNetwork,
	models.KindGateway:    models.ResourceNetwork,
	models.KindDBInstance: models.ResourceDatabase,
}

var stateAliases = map[string]models.ResourceState{
	"running":   models.StateRunning,
	"pending":   models.StateRunning,
	"stopped":   models.StateStopped,
	"stopping":  models.StateStopped,
	"available": models.StateAvailable,
	"in-use":    models.StateInUse,
	"in_use":    models.StateInUse,
	"attached":  models.StateInUse,
	"inuse":     models.StateInUse,
}

// Resources normalizes every raw resource, skipping malformed and duplicate ones
func Resources(raw []collector.Resource) ([]models.ResourceRecord, []models.SkippedRecord) {
	records := make([]models.ResourceRecord, 0, len(raw))
	var skipped []models.SkippedRecord
	seen := make(map[string]struct{}, len(raw))

	for _, r := range raw {
		rec, err := Resource(r)
		if err != nil {
			skipped = append(skipped, models.SkippedRecord{ID: r.ID, Source: "resource", Reason: err.Error()})
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			skipped = append(skipped, models.SkippedRecord{ID: rec.ID, Source: "resource", Reason: "duplicate resource id"})
			continue
		}
		seen[rec.ID] = struct{}{}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool { return records[i].ID < records[j].ID })
	return records, skipped
}

// Resource normalizes a single raw resource
func Resource(r collector.Resource) (models.ResourceRecord, error) {
	id := strings.TrimSpace(r.ID)
	if id == "" {
		return models.ResourceRecord{}, fmt.Errorf("%w: missing id", ErrMalformedResource)
	}
	region := strings.TrimSpace(r.Region)
	if region == "" {
		return models.ResourceRecord{}, fmt.Errorf("%w: %s: missing region", ErrMalformedResource, id)
	}

	kind, typ, err := classify(r.Kind, r.Type)
	if err != nil {
		return models.ResourceRecord{}, fmt.Errorf("%w: %s: %v", ErrMalformedResource, id, err)
	}

	state, ok := stateAliases[strings.ToLower(strings.TrimSpace(r.State))]
	if !ok {
		return models.ResourceRecord{}, fmt.Errorf("%w: %s: unknown state %q", ErrMalformedResource, id, r.State)
	}

	cost, err := ParseAmount(r.MonthlyCost)
	if err != nil {
		return models.ResourceRecord{}, fmt.Errorf("%w: %s: monthly cost: %v", ErrMalformedResource, id, err)
	}
	if cost < 0 {
		return models.ResourceRecord{}, fmt.Errorf("%w: %s: negative monthly cost", ErrMalformedResource, id)
	}
	if r.SizeGB < 0 || r.AttachedVolumes < 0 {
		return models.ResourceRecord{}, fmt.Errorf("%w: %s: negative size or volume count", ErrMalformedResource, id)
	}

	rec := models.ResourceRecord{
		ID:              id,
		Type:            typ,
		Kind:            kind,
		Region:          region,
		MonthlyCost:     cost,
		State:           state,
		InstanceClass:   strings.TrimSpace(r.InstanceClass),
		SizeGB:          r.SizeGB,
		StorageClass:    strings.ToLower(strings.TrimSpace(r.StorageClass)),
		AttachedVolumes: r.AttachedVolumes,
		AttachedTo:      strings.TrimSpace(r.AttachedTo),
		SourceID:        strings.TrimSpace(r.SourceID),
		CreatedAt:       r.CreatedAt.UTC(),
		StateSince:      r.StateSince.UTC(),
	}

	if len(r.Tags) > 0 {
		rec.Tags = make(map[string]string, len(r.Tags))
		for k, v := range r.Tags {
			if key := strings.TrimSpace(k); key != "" {
				rec.Tags[key] = strings.TrimSpace(v)
			}
		}
	}

	if len(r.Samples) > 0 {
		rec.Samples = make([]models.UtilizationSample, 0, len(r.Samples))
		for _, s := range r.Samples {
			rec.Samples = append(rec.Samples, models.UtilizationSample{
				Timestamp: s.Timestamp.UTC(),
				Metric:    s.Metric,
				Value:     s.Value,
			})
		}
		sort.SliceStable(rec.Samples, func(i, j int) bool {
			return rec.Samples[i].Timestamp.Before(rec.Samples[j].Timestamp)
		})
	}

	return rec, nil
}

func classify(rawKind, rawType string) (models.ResourceKind, models.ResourceType, error) {
	kind := models.ResourceKind(strings.ToLower(strings.TrimSpace(rawKind)))
	typ := models.ResourceType(strings.ToLower(strings.TrimSpace(rawType)))

	if kind == "" {
		switch typ {
		case models.ResourceCompute:
			kind = models.KindInstance
		case models.ResourceDatabase:
			kind = models.KindDBInstance
		default:
			return "", "", fmt.Errorf("cannot infer kind from type %q", rawType)
		}
	}

	expected, ok := kindTypes[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown kind %q", rawKind)
	}
	if typ != "" && typ != expected {
		return "", "", fmt.Errorf("kind %q does not belong to type %q", kind, typ)
	}
	return kind, expected, nil
}

// ParseAmount parses a money string. An empty amount is zero.
func ParseAmount(a collector.Amount) (float64, error) {
	s := strings.TrimSpace(string(a))
	if s == "" {
		return 0, nil
	}
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", string(a))
	}
	return d.Round(6).InexactFloat64(), nil
}

// Costs normalizes the cost series: malformed records are skipped and the rest
// sorted by period start. Overlapping or duplicate periods keep the first seen.
func Costs(raw []collector.CostEntry) ([]models.CostRecord, []models.SkippedRecord) {
	rows := make([]costRow, 0, len(raw))
	var skipped []models.SkippedRecord

	for _, c := range raw {
		rec, openEnd, err := cost(c)
		if err != nil {
			skipped = append(skipped, models.SkippedRecord{ID: c.Start, Source: "cost", Reason: err.Error()})
			continue
		}
		rows = append(rows, costRow{rec: rec, openEnd: openEnd})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].rec.Period.Start.Before(rows[j].rec.Period.Start)
	})
	inferOpenEnds(rows)

	out := make([]models.CostRecord, 0, len(rows))
	currency := ""
	for _, row := range rows {
		rec := row.rec
		if currency == "" {
			currency = rec.Currency
		}
		id := rec.Period.Start.Format("2006-01-02")
		switch {
		case rec.Currency != currency:
			skipped = append(skipped, models.SkippedRecord{ID: id, Source: "cost",
				Reason: fmt.Sprintf("%v: currency %s differs from %s", ErrMalformedCost, rec.Currency, currency)})
			continue
		case len(out) > 0 && rec.Period.Start.Before(out[len(out)-1].Period.End):
			skipped = append(skipped, models.SkippedRecord{ID: id, Source: "cost",
				Reason: fmt.Sprintf("%v: period overlaps the previous record", ErrMalformedCost)})
			continue
		}
		out = append(out, rec)
	}
	return out, skipped
}

type costRow struct {
	rec     models.CostRecord
	openEnd bool
}

// inferOpenEnds gives records without an end the period length of the series:
// the median spacing between starts, or one month when that is 28 days or more.
// rows must be sorted by start.
func inferOpenEnds(rows []costRow) {
	var spacing []int
	for i := 1; i < len(rows); i++ {
		d := int(math.Round(rows[i].rec.Period.Start.Sub(rows[i-1].rec.Period.Start).Hours() / 24))
		if d > 0 {
			spacing = append(spacing, d)
		}
	}
	if len(spacing) == 0 {
		return
	}
	sort.Ints(spacing)
	days := spacing[len(spacing)/2]
	if days >= 28 {
		return
	}
	for i := range rows {
		if rows[i].openEnd {
			rows[i].rec.Period.End = rows[i].rec.Period.Start.AddDate(0, 0, days)
		}
	}
}

// Cost normalizes a single billing period. A missing end means one month;
// Costs narrows it when the series is finer grained.
func Cost(c collector.CostEntry) (models.CostRecord, error) {
	rec, _, err := cost(c)
	return rec, err
}

func cost(c collector.CostEntry) (models.CostRecord, bool, error) {
	start, err := parseDate(c.Start)
	if err != nil {
		return models.CostRecord{}, false, fmt.Errorf("%w: start: %v", ErrMalformedCost, err)
	}

	var end time.Time
	openEnd := strings.TrimSpace(c.End) == ""
	if openEnd {
		end = start.AddDate(0, 1, 0)
	} else if end, err = parseDate(c.End); err != nil {
		return models.CostRecord{}, false, fmt.Errorf("%w: end: %v", ErrMalformedCost, err)
	}
	if !end.After(start) {
		return models.CostRecord{}, false, fmt.Errorf("%w: end %s is not after start %s", ErrMalformedCost, c.End, c.Start)
	}

	if strings.TrimSpace(string(c.Total)) == "" {
		return models.CostRecord{}, false, fmt.Errorf("%w: missing total", ErrMalformedCost)
	}
	total, err := ParseAmount(c.Total)
	if err != nil {
		return models.CostRecord{}, false, fmt.Errorf("%w: total: %v", ErrMalformedCost, err)
	}

	currency := strings.ToUpper(strings.TrimSpace(c.Currency))
	if currency == "" {
		currency = "USD"
	}

	rec := models.CostRecord{
		Period:   models.Period{Start: start, End: end},
		Total:    total,
		Currency: currency,
	}

	if len(c.Dimensions) > 0 {
		rec.Dimensions = make(map[string]map[string]float64, len(c.Dimensions))
		for dim, values := range c.Dimensions {
			parsed := make(map[string]float64, len(values))
			for value, amount := range values {
				v, err := ParseAmount(amount)
				if err != nil {
					return models.CostRecord{}, false, fmt.Errorf("%w: %s=%s: %v", ErrMalformedCost, dim, value, err)
				}
				parsed[value] = v
			}
			rec.Dimensions[dim] = parsed
		}
	}
	return rec, openEnd, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	return t.UTC(), nil
}

package collector

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/api"
	v1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"
	"github.com/rs/zerolog"

	"github.com/opscart/finops-engine/pkg/config"
)

// PrometheusEnricher fills in CPU utilization for compute resources from a
// Prometheus that scrapes a CloudWatch exporter
type PrometheusEnricher struct {
	client   v1.API
	query    string
	step     time.Duration
	lookback time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewPrometheusEnricher creates an enricher for the configured Prometheus
func NewPrometheusEnricher(cfg config.PrometheusConfig, logger zerolog.Logger) (*PrometheusEnricher, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("prometheus url is not configured")
	}

	client, err := api.NewClient(api.Config{Address: cfg.URL})
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus client: %w", err)
	}

	return &PrometheusEnricher{
		client:   v1.NewAPI(client),
		query:    cfg.Query,
		step:     cfg.Step,
		lookback: cfg.Lookback,
		timeout:  cfg.Timeout,
		logger:   logger.With().Str("component", "prometheus").Logger(),
	}, nil
}

// Enrich queries CPU history for every compute or database resource that has no
// CPU samples yet. Resources Prometheus knows nothing about are left alone.
// It returns the number of resources that received samples.
func (p *PrometheusEnricher) Enrich(ctx context.Context, ds *Dataset) (int, error) {
	end := ds.AsOf
	if end.IsZero() {
		end = time.Now().UTC()
	}
	r := v1.Range{Start: end.Add(-p.lookback), End: end, Step: p.step}

	enriched := 0
	for i := range ds.Resources {
		res := &ds.Resources[i]
		if res.Type != "compute" && res.Type != "database" {
			continue
		}
		if hasMetric(res.Samples, "CPUUtilization") {
			continue
		}

		samples, err := p.queryRange(ctx, fmt.Sprintf(p.query, res.ID), r)
		if err != nil {
			if ctx.Err() != nil {
				return enriched, ctx.Err()
			}
			p.logger.Warn().Err(err).Str("resource", res.ID).Msg("CPU query failed")
			continue
		}
		if len(samples) == 0 {
			continue
		}
		res.Samples = append(res.Samples, samples...)
		enriched++
	}

	p.logger.Debug().Int("enriched", enriched).Msg("prometheus enrichment complete")
	return enriched, nil
}

func (p *PrometheusEnricher) queryRange(ctx context.Context, query string, r v1.Range) ([]Sample, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	result, warnings, err := p.client.QueryRange(ctx, query, r)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	if len(warnings) > 0 {
		p.logger.Warn().Strs("warnings", warnings).Str("query", query).Msg("prometheus returned warnings")
	}

	matrix, ok := result.(model.Matrix)
	if !ok {
		return nil, fmt.Errorf("unexpected result type %s", result.Type())
	}

	var samples []Sample
	for _, stream := range matrix {
		for _, pair := range stream.Values {
			samples = append(samples, Sample{
				Timestamp: pair.Timestamp.Time().UTC(),
				Metric:    "CPUUtilization",
				Value:     float64(pair.Value),
			})
		}
	}
	return samples, nil
}

func hasMetric(samples []Sample, metric string) bool {
	for _, s := range samples {
		if s.Metric == metric {
			return true
		}
	}
	return false
}

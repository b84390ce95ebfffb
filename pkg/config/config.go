package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/opscart/finops-engine/pkg/logging"
)

// ErrInvalidConfig is wrapped by every ConfigurationError
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigurationError names the offending field of a rejected configuration
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfig
}

// Config holds application configuration
type Config struct {
	Logging    logging.Config   `mapstructure:"logging"`
	Thresholds ThresholdConfig  `mapstructure:"thresholds"`
	Recommend  RecommendConfig  `mapstructure:"recommend"`
	Forecast   ForecastConfig   `mapstructure:"forecast"`
	Anomaly    AnomalyConfig    `mapstructure:"anomaly"`
	Governance GovernanceConfig `mapstructure:"governance"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Archive    ArchiveConfig    `mapstructure:"archive"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
}

// ThresholdConfig drives the waste rules
type ThresholdConfig struct {
	IdleCPUThreshold     float64       `mapstructure:"idle_cpu_threshold"`
	IdleDays             int           `mapstructure:"idle_days"`
	SampleInterval       time.Duration `mapstructure:"sample_interval"`
	MinSampleCoverage    float64       `mapstructure:"min_sample_coverage"`
	SnapshotAgeDays      int           `mapstructure:"snapshot_age_days"`
	UnattachedMinDays    int           `mapstructure:"unattached_min_days"`
	IdleDBCPUThreshold   float64       `mapstructure:"idle_db_cpu_threshold"`
	IdleDBMaxConnections float64       `mapstructure:"idle_db_max_connections"`
	IdleGatewayBytes     float64       `mapstructure:"idle_gateway_bytes"`
}

// IdleWindow is the trailing utilization window the idle rules look at
func (t ThresholdConfig) IdleWindow() time.Duration {
	return time.Duration(t.IdleDays) * 24 * time.Hour
}

// RecommendConfig tunes right-sizing and commitment recommendations
type RecommendConfig struct {
	DownsizeCPUThreshold float64 `mapstructure:"downsize_cpu_threshold"`
	RightsizeTargetCPU   float64 `mapstructure:"rightsize_target_cpu"`
	CommitmentMinMonths  int     `mapstructure:"commitment_min_months"`
	CommitmentMaxCV      float64 `mapstructure:"commitment_max_cv"`
	MinMonthlySavings    float64 `mapstructure:"min_monthly_savings"`
}

// ForecastConfig tunes the cost forecaster and its scenarios
type ForecastConfig struct {
	HorizonMonths   int     `mapstructure:"horizon_months"`
	PhaseInMonths   int     `mapstructure:"phase_in_months"`
	ConservativePct float64 `mapstructure:"conservative_pct"`
	AggressivePct   float64 `mapstructure:"aggressive_pct"`
	ConfidenceLevel float64 `mapstructure:"confidence_level"`
	SeasonalPeriod  int     `mapstructure:"seasonal_period"`
	MaxGapPeriods   int     `mapstructure:"max_gap_periods"`
}

// AnomalyConfig tunes the rolling-window anomaly detector
type AnomalyConfig struct {
	Sensitivity       float64 `mapstructure:"sensitivity"`
	Window            int     `mapstructure:"window"`
	MinWindow         int     `mapstructure:"min_window"`
	MinRelativeStdDev float64 `mapstructure:"min_relative_stddev"`
	MaxGapPeriods     int     `mapstructure:"max_gap_periods"`
}

// GovernanceConfig lists required tags and budgets
type GovernanceConfig struct {
	RequiredTags []string       `mapstructure:"required_tags"`
	WarnRatio    float64        `mapstructure:"warn_ratio"`
	BreachRatio  float64        `mapstructure:"breach_ratio"`
	Budgets      []BudgetConfig `mapstructure:"budgets"`
}

// BudgetConfig is a monthly spend limit for a scope. An empty Dimension means the account total.
type BudgetConfig struct {
	Name      string  `mapstructure:"name"`
	Dimension string  `mapstructure:"dimension"`
	Value     string  `mapstructure:"value"`
	Amount    float64 `mapstructure:"amount"`
}

// PrometheusConfig locates the optional utilization source
type PrometheusConfig struct {
	URL      string        `mapstructure:"url"`
	Query    string        `mapstructure:"query"`
	Step     time.Duration `mapstructure:"step"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Lookback time.Duration `mapstructure:"lookback"`
}

// ArchiveConfig enables the PostgreSQL run archive
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// MetricsConfig sets where run metrics are written
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// Default returns the configuration used when nothing overrides it
func Default() *Config {
	return &Config{
		Logging: logging.Config{
			Level:  "info",
			Format: "console",
		},
		Thresholds: ThresholdConfig{
			IdleCPUThreshold:     5.0,
			IdleDays:             7,
			SampleInterval:       24 * time.Hour,
			MinSampleCoverage:    0.8,
			SnapshotAgeDays:      90,
			UnattachedMinDays:    1,
			IdleDBCPUThreshold:   5.0,
			IdleDBMaxConnections: 1,
			IdleGatewayBytes:     1 << 20,
		},
		Recommend: RecommendConfig{
			DownsizeCPUThreshold: 40,
			RightsizeTargetCPU:   70,
			CommitmentMinMonths:  3,
			CommitmentMaxCV:      0.15,
			MinMonthlySavings:    1.0,
		},
		Forecast: ForecastConfig{
			HorizonMonths:   12,
			PhaseInMonths:   3,
			ConservativePct: 0.5,
			AggressivePct:   1.0,
			ConfidenceLevel: 0.8,
			SeasonalPeriod:  12,
			MaxGapPeriods:   1,
		},
		Anomaly: AnomalyConfig{
			Sensitivity:       2.0,
			Window:            6,
			MinWindow:         3,
			MinRelativeStdDev: 0.01,
			MaxGapPeriods:     1,
		},
		Governance: GovernanceConfig{
			RequiredTags: []string{"Environment", "Team", "CostCenter"},
			WarnRatio:    0.8,
			BreachRatio:  1.0,
		},
		Prometheus: PrometheusConfig{
			Query:    `avg_over_time(aws_ec2_cpuutilization_average{instance_id="%s"}[1d])`,
			Step:     24 * time.Hour,
			Timeout:  30 * time.Second,
			Lookback: 14 * 24 * time.Hour,
		},
	}
}

// Load builds configuration from defaults, an optional file and FINOPS_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("FINOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("finops")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.time_format", d.Logging.TimeFormat)
	v.SetDefault("logging.caller", d.Logging.Caller)

	v.SetDefault("thresholds.idle_cpu_threshold", d.Thresholds.IdleCPUThreshold)
	v.SetDefault("thresholds.idle_days", d.Thresholds.IdleDays)
	v.SetDefault("thresholds.sample_interval", d.Thresholds.SampleInterval.String())
	v.SetDefault("thresholds.min_sample_coverage", d.Thresholds.MinSampleCoverage)
	v.SetDefault("thresholds.snapshot_age_days", d.Thresholds.SnapshotAgeDays)
	v.SetDefault("thresholds.unattached_min_days", d.Thresholds.UnattachedMinDays)
	v.SetDefault("thresholds.idle_db_cpu_threshold", d.Thresholds.IdleDBCPUThreshold)
	v.SetDefault("thresholds.idle_db_max_connections", d.Thresholds.IdleDBMaxConnections)
	v.SetDefault("thresholds.idle_gateway_bytes", d.Thresholds.IdleGatewayBytes)

	v.SetDefault("recommend.downsize_cpu_threshold", d.Recommend.DownsizeCPUThreshold)
	v.SetDefault("recommend.rightsize_target_cpu", d.Recommend.RightsizeTargetCPU)
	v.SetDefault("recommend.commitment_min_months", d.Recommend.CommitmentMinMonths)
	v.SetDefault("recommend.commitment_max_cv", d.Recommend.CommitmentMaxCV)
	v.SetDefault("recommend.min_monthly_savings", d.Recommend.MinMonthlySavings)

	v.SetDefault("forecast.horizon_months", d.Forecast.HorizonMonths)
	v.SetDefault("forecast.phase_in_months", d.Forecast.PhaseInMonths)
	v.SetDefault("forecast.conservative_pct", d.Forecast.ConservativePct)
	v.SetDefault("forecast.aggressive_pct", d.Forecast.AggressivePct)
	v.SetDefault("forecast.confidence_level", d.Forecast.ConfidenceLevel)
	v.SetDefault("forecast.seasonal_period", d.Forecast.SeasonalPeriod)
	v.SetDefault("forecast.max_gap_periods", d.Forecast.MaxGapPeriods)

	v.SetDefault("anomaly.sensitivity", d.Anomaly.Sensitivity)
	v.SetDefault("anomaly.window", d.Anomaly.Window)
	v.SetDefault("anomaly.min_window", d.Anomaly.MinWindow)
	v.SetDefault("anomaly.min_relative_stddev", d.Anomaly.MinRelativeStdDev)
	v.SetDefault("anomaly.max_gap_periods", d.Anomaly.MaxGapPeriods)

	v.SetDefault("governance.required_tags", d.Governance.RequiredTags)
	v.SetDefault("governance.warn_ratio", d.Governance.WarnRatio)
	v.SetDefault("governance.breach_ratio", d.Governance.BreachRatio)

	v.SetDefault("prometheus.url", d.Prometheus.URL)
	v.SetDefault("prometheus.query", d.Prometheus.Query)
	v.SetDefault("prometheus.step", d.Prometheus.Step.String())
	v.SetDefault("prometheus.timeout", d.Prometheus.Timeout.String())
	v.SetDefault("prometheus.lookback", d.Prometheus.Lookback.String())

	v.SetDefault("archive.enabled", d.Archive.Enabled)
	v.SetDefault("archive.dsn", d.Archive.DSN)

	v.SetDefault("metrics.textfile_path", d.Metrics.TextfilePath)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate checks if configuration is valid. It is called once per run, before any analysis.
func (c *Config) Validate() error {
	t := c.Thresholds
	switch {
	case t.IdleCPUThreshold <= 0 || t.IdleCPUThreshold > 100:
		return invalid("thresholds.idle_cpu_threshold", "must be in (0, 100]")
	case t.IdleDays < 1:
		return invalid("thresholds.idle_days", "must be at least 1")
	case t.SampleInterval < time.Minute:
		return invalid("thresholds.sample_interval", "must be at least 1m")
	case t.MinSampleCoverage <= 0 || t.MinSampleCoverage > 1:
		return invalid("thresholds.min_sample_coverage", "must be in (0, 1]")
	case t.SnapshotAgeDays < 1:
		return invalid("thresholds.snapshot_age_days", "must be at least 1")
	case t.UnattachedMinDays < 0:
		return invalid("thresholds.unattached_min_days", "cannot be negative")
	case t.IdleDBCPUThreshold <= 0 || t.IdleDBCPUThreshold > 100:
		return invalid("thresholds.idle_db_cpu_threshold", "must be in (0, 100]")
	case t.IdleDBMaxConnections < 0:
		return invalid("thresholds.idle_db_max_connections", "cannot be negative")
	case t.IdleGatewayBytes < 0:
		return invalid("thresholds.idle_gateway_bytes", "cannot be negative")
	}

	r := c.Recommend
	switch {
	case r.DownsizeCPUThreshold <= t.IdleCPUThreshold || r.DownsizeCPUThreshold > 100:
		return invalid("recommend.downsize_cpu_threshold", "must be above the idle threshold and at most 100")
	case r.RightsizeTargetCPU <= 0 || r.RightsizeTargetCPU > 100:
		return invalid("recommend.rightsize_target_cpu", "must be in (0, 100]")
	case r.CommitmentMinMonths < 2:
		return invalid("recommend.commitment_min_months", "must be at least 2")
	case r.CommitmentMaxCV <= 0:
		return invalid("recommend.commitment_max_cv", "must be greater than zero")
	case r.MinMonthlySavings < 0:
		return invalid("recommend.min_monthly_savings", "cannot be negative")
	}

	f := c.Forecast
	switch {
	case f.HorizonMonths < 1:
		return invalid("forecast.horizon_months", "must be at least 1")
	case f.PhaseInMonths < 1:
		return invalid("forecast.phase_in_months", "must be at least 1")
	case f.ConservativePct < 0 || f.ConservativePct > 1:
		return invalid("forecast.conservative_pct", "must be in [0, 1]")
	case f.AggressivePct < 0 || f.AggressivePct > 1:
		return invalid("forecast.aggressive_pct", "must be in [0, 1]")
	case f.ConservativePct > f.AggressivePct:
		return invalid("forecast.conservative_pct", "cannot exceed forecast.aggressive_pct")
	case f.ConfidenceLevel <= 0 || f.ConfidenceLevel >= 1:
		return invalid("forecast.confidence_level", "must be in (0, 1)")
	case f.SeasonalPeriod < 2:
		return invalid("forecast.seasonal_period", "must be at least 2")
	case f.MaxGapPeriods < 0:
		return invalid("forecast.max_gap_periods", "cannot be negative")
	}

	a := c.Anomaly
	switch {
	case a.Sensitivity <= 0:
		return invalid("anomaly.sensitivity", "must be greater than zero")
	case a.MinWindow < 2:
		return invalid("anomaly.min_window", "must be at least 2")
	case a.Window < a.MinWindow:
		return invalid("anomaly.window", "cannot be smaller than anomaly.min_window")
	case a.MinRelativeStdDev < 0:
		return invalid("anomaly.min_relative_stddev", "cannot be negative")
	case a.MaxGapPeriods < 0:
		return invalid("anomaly.max_gap_periods", "cannot be negative")
	}

	g := c.Governance
	switch {
	case g.WarnRatio <= 0:
		return invalid("governance.warn_ratio", "must be greater than zero")
	case g.BreachRatio < g.WarnRatio:
		return invalid("governance.breach_ratio", "cannot be below governance.warn_ratio")
	}
	for i, tag := range g.RequiredTags {
		if strings.TrimSpace(tag) == "" {
			return invalid(fmt.Sprintf("governance.required_tags[%d]", i), "cannot be blank")
		}
	}
	for i, b := range g.Budgets {
		field := fmt.Sprintf("governance.budgets[%d]", i)
		if b.Amount <= 0 {
			return invalid(field+".amount", "must be greater than zero")
		}
		if b.Dimension != "" && b.Value == "" {
			return invalid(field+".value", "required when dimension is set")
		}
	}

	if c.Archive.Enabled && c.Archive.DSN == "" {
		return invalid("archive.dsn", "must be set when the archive is enabled")
	}
	return nil
}

func invalid(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

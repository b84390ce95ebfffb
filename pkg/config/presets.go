package config

import "fmt"

// UseDevPreset shortens the observation windows for sandbox accounts
func (c *Config) UseDevPreset() {
	c.Thresholds.IdleDays = 3
	c.Thresholds.MinSampleCoverage = 0.5
	c.Thresholds.SnapshotAgeDays = 30
	c.Anomaly.Sensitivity = 2.0
}

// UseProductionPreset asks for more evidence before flagging anything
func (c *Config) UseProductionPreset() {
	c.Thresholds.IdleDays = 14
	c.Thresholds.MinSampleCoverage = 0.9
	c.Thresholds.SnapshotAgeDays = 90
	c.Anomaly.Sensitivity = 2.5
}

// UseCriticalPreset is the most conservative setting, for revenue-critical accounts
func (c *Config) UseCriticalPreset() {
	c.Thresholds.IdleDays = 30
	c.Thresholds.MinSampleCoverage = 0.95
	c.Thresholds.SnapshotAgeDays = 180
	c.Anomaly.Sensitivity = 3.0
	c.Recommend.DownsizeCPUThreshold = 30
}

// ApplyPreset applies a named preset. An empty name leaves the configuration untouched.
func (c *Config) ApplyPreset(name string) error {
	switch name {
	case "":
	case "dev":
		c.UseDevPreset()
	case "production":
		c.UseProductionPreset()
	case "critical":
		c.UseCriticalPreset()
	default:
		return &ConfigurationError{Field: "preset", Reason: fmt.Sprintf("unknown preset %q", name)}
	}
	return nil
}

// Package metrics defines the observability contract for optimization
// runs. Concrete sinks live in infra/metrics.
package metrics

import "time"

// RunResult represents one completed (or failed) optimization run to be
// recorded.
type RunResult struct {
	RunID          string
	Status         string
	TotalFee       int64
	TotalShortfall int64
	Transfers      int
	Accounts       int
	HorizonDays    int
	SolveDuration  time.Duration
	Time           time.Time
}

// Sink records optimization runs for observability purposes.
type Sink interface {
	RecordRun(res RunResult) error
}

// NopSink discards every record.
type NopSink struct{}

func (NopSink) RecordRun(RunResult) error { return nil }

// Config selects and parameterizes the enabled sinks.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

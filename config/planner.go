package config

import "fmt"

// PlannerConfig holds the optimization parameters of one run.
type PlannerConfig struct {
	// HorizonDays is the number of business days to plan over and the
	// rolling-window length of the safety-stock estimator.
	HorizonDays int `json:"horizon_days"`
	// Quantile of the rolling net-outflow distribution used for safety
	// stock.
	Quantile float64 `json:"quantile"`
	// Lambda weights the shortfall penalty against transfer fees.
	Lambda float64 `json:"lambda"`
	// PlanningTime ("HH:MM") is the conceptual run initiation time
	// checked against service cut-offs.
	PlanningTime string `json:"planning_time"`
	// StartDate ("YYYY-MM-DD") anchors the horizon; empty means today.
	StartDate string `json:"start_date"`
	// SolveTimeoutSec bounds the solve stage wall clock.
	SolveTimeoutSec int `json:"solve_timeout_sec"`
	// NoiseThreshold filters solver floating-point residue from the
	// extracted plan.
	NoiseThreshold float64 `json:"noise_threshold"`
}

// SetDefaults applies sane defaults.
func (c *PlannerConfig) SetDefaults() {
	if c.HorizonDays == 0 {
		c.HorizonDays = 30
	}
	if c.Quantile == 0 {
		c.Quantile = 0.95
	}
	if c.Lambda == 0 {
		c.Lambda = 1.0
	}
	if c.PlanningTime == "" {
		c.PlanningTime = "15:00"
	}
	if c.SolveTimeoutSec == 0 {
		c.SolveTimeoutSec = 60
	}
	if c.NoiseThreshold == 0 {
		c.NoiseThreshold = 1e-4
	}
}

// Validate checks parameter ranges.
func (c PlannerConfig) Validate() error {
	if c.HorizonDays < 1 {
		return fmt.Errorf("planner.horizon_days must be positive")
	}
	if c.Quantile <= 0 || c.Quantile >= 1 {
		return fmt.Errorf("planner.quantile must be in (0,1)")
	}
	if c.Lambda < 0 {
		return fmt.Errorf("planner.lambda must be non-negative")
	}
	if c.SolveTimeoutSec < 1 {
		return fmt.Errorf("planner.solve_timeout_sec must be positive")
	}
	return nil
}

// KPIConfig selects the store appended to after every run.
type KPIConfig struct {
	// Backend selects the store type: "jsonl" or "sqlite".
	Backend string `json:"backend"`
	// Path is the file location of the store.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *KPIConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "kpi.jsonl"
	}
}

// Validate checks mandatory fields.
func (c KPIConfig) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown kpi backend %s", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("kpi.path is required")
	}
	return nil
}

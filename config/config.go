package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/fjtyk95/bankoptimize/core/metrics"
	"github.com/fjtyk95/bankoptimize/infra/mqtt"
)

type Config struct {
	Inputs  InputsConfig   `json:"inputs"`
	Planner PlannerConfig  `json:"planner"`
	Output  OutputConfig   `json:"output"`
	KPI     KPIConfig      `json:"kpi"`
	Metrics metrics.Config `json:"metrics"`
	MQTT    mqtt.Config    `json:"mqtt"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("BO_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "bo_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Planner.SetDefaults()
	cfg.Output.SetDefaults()
	cfg.KPI.SetDefaults()
	cfg.MQTT.SetDefaults()
	if err := cfg.Inputs.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Planner.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.KPI.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.MQTT.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// InputsConfig locates the four input tables.
type InputsConfig struct {
	AccountMaster string `json:"account_master"`
	FeeTable      string `json:"fee_table"`
	Balances      string `json:"balances"`
	CashFlows     string `json:"cash_flows"`
}

// Validate checks all paths are present.
func (c InputsConfig) Validate() error {
	for name, p := range map[string]string{
		"account_master": c.AccountMaster,
		"fee_table":      c.FeeTable,
		"balances":       c.Balances,
		"cash_flows":     c.CashFlows,
	} {
		if p == "" {
			return fmt.Errorf("inputs.%s is required", name)
		}
	}
	return nil
}

// OutputConfig locates the plan file written after each run.
type OutputConfig struct {
	PlanPath string `json:"plan_path"`
	// Format selects "csv" or "json".
	Format string `json:"format"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.PlanPath == "" {
		c.PlanPath = "transfer_plan.csv"
	}
	if c.Format == "" {
		c.Format = "csv"
	}
}

package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/fjtyk95/bankoptimize/config"
	"github.com/fjtyk95/bankoptimize/core/model"
	"github.com/fjtyk95/bankoptimize/core/safety"
	"github.com/fjtyk95/bankoptimize/infra/csvload"
)

var safetyCmd = &cobra.Command{
	Use:   "safety",
	Short: "Print per-account safety-stock requirements",
	RunE:  runSafety,
}

func init() {
	rootCmd.AddCommand(safetyCmd)
}

func runSafety(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	obs, err := csvload.LoadCashFlows(cfg.Inputs.CashFlows)
	if err != nil {
		return err
	}
	req, err := safety.Calc(obs, cfg.Planner.HorizonDays, cfg.Planner.Quantile)
	if err != nil {
		return err
	}
	ids := make([]model.AccountID, 0, len(req))
	for id := range req {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		fmt.Printf("%s\t%d\n", id, req[id])
	}
	return nil
}

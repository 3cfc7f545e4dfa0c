package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fjtyk95/bankoptimize/config"
	corekpi "github.com/fjtyk95/bankoptimize/core/kpi"
	infrakpi "github.com/fjtyk95/bankoptimize/infra/kpi"
)

var kpiDays int

var kpiCmd = &cobra.Command{
	Use:   "kpi",
	Short: "Show KPI records of recent runs",
	RunE:  runKPI,
}

func init() {
	kpiCmd.Flags().IntVar(&kpiDays, "days", 30, "show runs newer than this many days")
	rootCmd.AddCommand(kpiCmd)
}

func runKPI(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	var store corekpi.Store
	switch cfg.KPI.Backend {
	case "sqlite":
		store, err = infrakpi.NewSQLiteStore(cfg.KPI.Path)
	default:
		store, err = infrakpi.NewJSONLStore(cfg.KPI.Path)
	}
	if err != nil {
		return fmt.Errorf("kpi store: %w", err)
	}
	defer func() { _ = store.Close() }()

	recs, err := store.Recent(context.Background(), kpiDays)
	if err != nil {
		return err
	}
	for _, r := range recs {
		fmt.Printf("%s\t%s\t%s\tfee=%d\tshortfall=%d\truntime=%.3fs\n",
			r.Timestamp.Format(time.RFC3339), r.RunID, r.Status, r.TotalFee, r.TotalShortfall, r.RuntimeSec)
	}
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/fjtyk95/bankoptimize/app"
	"github.com/fjtyk95/bankoptimize/config"
	"github.com/fjtyk95/bankoptimize/infra/logger"
	"github.com/fjtyk95/bankoptimize/infra/metrics"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Run the optimization pipeline and write the transfer plan",
	RunE:  runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("plan-command").Errorf("service close: %v", err)
		}
	}()

	if cfg.Metrics.PrometheusEnabled {
		go func() {
			if err := metrics.StartPromServer(ctx, cfg.Metrics.PrometheusPort); err != nil {
				logger.New("plan-command").Errorf("prom server: %v", err)
			}
		}()
	}

	res, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("run %s finished %s: %d transfers written to %s (total fee %d)\n",
		res.RunID, res.Status, len(res.Plan), cfg.Output.PlanPath, res.Record.TotalFee)
	return nil
}

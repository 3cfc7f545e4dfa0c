// Package app wires the optimization pipeline from configuration and runs
// it end to end: estimate safety stock, build the fee schedule, assemble
// the program, solve, extract and persist the plan.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/fjtyk95/bankoptimize/config"
	"github.com/fjtyk95/bankoptimize/core/fee"
	corekpi "github.com/fjtyk95/bankoptimize/core/kpi"
	coremetrics "github.com/fjtyk95/bankoptimize/core/metrics"
	"github.com/fjtyk95/bankoptimize/core/model"
	"github.com/fjtyk95/bankoptimize/core/monitor"
	"github.com/fjtyk95/bankoptimize/core/planner"
	"github.com/fjtyk95/bankoptimize/core/safety"
	"github.com/fjtyk95/bankoptimize/infra/csvload"
	infrakpi "github.com/fjtyk95/bankoptimize/infra/kpi"
	"github.com/fjtyk95/bankoptimize/infra/logger"
	"github.com/fjtyk95/bankoptimize/infra/metrics"
	"github.com/fjtyk95/bankoptimize/infra/mqtt"
	infrasolver "github.com/fjtyk95/bankoptimize/infra/solver"
	"github.com/fjtyk95/bankoptimize/pkg/export"
)

// Service orchestrates one optimization run per invocation. Each run works
// on its own input snapshots; concurrent runs share nothing but the sinks.
type Service struct {
	cfg    *config.Config
	log    logger.Logger
	solver planner.Solver
	sink   coremetrics.Sink
	store  corekpi.Store
	pub    *mqtt.PlanPublisher
	hook   monitor.Hook
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink(cfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics))
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	var store corekpi.Store
	var err error
	switch cfg.KPI.Backend {
	case "sqlite":
		store, err = infrakpi.NewSQLiteStore(cfg.KPI.Path)
	default:
		store, err = infrakpi.NewJSONLStore(cfg.KPI.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("kpi store: %w", err)
	}

	var pub *mqtt.PlanPublisher
	if cfg.MQTT.Enabled {
		pub, err = mqtt.NewPlanPublisher(cfg.MQTT)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}

	svc := &Service{
		cfg:    cfg,
		log:    logg,
		solver: infrasolver.Simplex{},
		sink:   sink,
		store:  store,
		pub:    pub,
	}
	svc.hook = func(stage string, elapsed time.Duration) {
		logg.Debugw("stage complete", map[string]any{"stage": stage, "elapsed": elapsed.String()})
	}
	return svc, nil
}

// SetSolver overrides the LP backend. Intended for tests.
func (s *Service) SetSolver(sv planner.Solver) { s.solver = sv }

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.pub != nil {
		s.pub.Close()
	}
	return s.store.Close()
}

// RunResult is what one pipeline execution produced.
type RunResult struct {
	RunID    string
	Status   planner.Status
	Plan     model.TransferPlan
	Balances model.BalanceTrajectory
	Record   corekpi.Record
}

// Run executes the full pipeline once. Solver failures other than a clean
// optimum are surfaced to the caller with their status; the run is still
// recorded in the KPI store so failed runs stay visible.
func (s *Service) Run(ctx context.Context) (*RunResult, error) {
	started := time.Now()
	runID := uuid.NewString()

	var accounts []model.Account
	var entries []fee.Entry
	var balances model.BalanceSnapshot
	var observations []model.CashFlowObservation
	err := monitor.Time(s.hook, "load", func() error {
		var err error
		if accounts, err = csvload.LoadAccounts(s.cfg.Inputs.AccountMaster); err != nil {
			return err
		}
		if entries, err = csvload.LoadFeeTable(s.cfg.Inputs.FeeTable); err != nil {
			return err
		}
		if balances, err = csvload.LoadBalances(s.cfg.Inputs.Balances); err != nil {
			return err
		}
		observations, err = csvload.LoadCashFlows(s.cfg.Inputs.CashFlows)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load inputs: %w", err)
	}

	start := started
	if s.cfg.Planner.StartDate != "" {
		start, err = time.Parse(model.DayFormat, s.cfg.Planner.StartDate)
		if err != nil {
			return nil, fmt.Errorf("planner start date: %w", err)
		}
	}
	days := model.BusinessDays(start, s.cfg.Planner.HorizonDays)
	history, flows := splitObservations(observations, days)

	var requirement model.SafetyRequirement
	err = monitor.Time(s.hook, "safety", func() error {
		var err error
		requirement, err = safety.Calc(history, s.cfg.Planner.HorizonDays, s.cfg.Planner.Quantile)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("safety stock: %w", err)
	}

	var schedule *fee.Schedule
	err = monitor.Time(s.hook, "fee", func() error {
		var err error
		schedule, err = fee.NewSchedule(entries)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fee schedule: %w", err)
	}

	planningTime, err := model.ParseCutOff(s.cfg.Planner.PlanningTime)
	if err != nil {
		return nil, fmt.Errorf("planning time: %w", err)
	}

	var problem *planner.Problem
	err = monitor.Time(s.hook, "build", func() error {
		var err error
		problem, err = planner.Build(planner.Inputs{
			Accounts:        accounts,
			Days:            days,
			ProjectedFlows:  flows,
			InitialBalances: balances,
			Safety:          requirement,
			Fees:            schedule,
			PlanningTime:    planningTime,
			Lambda:          s.cfg.Planner.Lambda,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}

	var sol *planner.Solution
	var solveDur time.Duration
	err = monitor.Time(s.hook, "solve", func() error {
		solveCtx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.Planner.SolveTimeoutSec)*time.Second)
		defer cancel()
		solveStart := time.Now()
		var err error
		sol, err = s.solver.Solve(solveCtx, problem)
		solveDur = time.Since(solveStart)
		return err
	})
	if err != nil {
		status := planner.StatusError
		var se *planner.SolveError
		if errors.As(err, &se) {
			status = se.Status
		}
		s.record(ctx, corekpi.Record{
			RunID:      runID,
			Timestamp:  started,
			RuntimeSec: time.Since(started).Seconds(),
			Status:     status.String(),
		}, coremetrics.RunResult{
			RunID:         runID,
			Status:        status.String(),
			Accounts:      len(accounts),
			HorizonDays:   len(days),
			SolveDuration: solveDur,
			Time:          started,
		})
		return nil, fmt.Errorf("solve: %w", err)
	}

	var result *planner.Result
	err = monitor.Time(s.hook, "extract", func() error {
		var err error
		result, err = planner.Extract(problem, sol, s.cfg.Planner.NoiseThreshold)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("extract solution: %w", err)
	}

	if err := s.writePlan(result.Plan); err != nil {
		return nil, err
	}

	rec := corekpi.Record{
		RunID:          runID,
		Timestamp:      started,
		TotalFee:       result.Plan.TotalFee(),
		TotalShortfall: result.TotalShortfall,
		RuntimeSec:     time.Since(started).Seconds(),
		Status:         sol.Status.String(),
	}
	s.record(ctx, rec, coremetrics.RunResult{
		RunID:          runID,
		Status:         sol.Status.String(),
		TotalFee:       rec.TotalFee,
		TotalShortfall: rec.TotalShortfall,
		Transfers:      len(result.Plan),
		Accounts:       len(accounts),
		HorizonDays:    len(days),
		SolveDuration:  solveDur,
		Time:           started,
	})

	s.log.Infof("run %s %s: %d transfers, total fee %d, total shortfall %d",
		runID, sol.Status, len(result.Plan), rec.TotalFee, rec.TotalShortfall)
	return &RunResult{
		RunID:    runID,
		Status:   sol.Status,
		Plan:     result.Plan,
		Balances: result.Balances,
		Record:   rec,
	}, nil
}

// record persists the KPI line and forwards the run to the metrics sinks
// and the optional publisher. Observability failures are logged, never
// fatal.
func (s *Service) record(ctx context.Context, rec corekpi.Record, res coremetrics.RunResult) {
	if err := s.store.Append(ctx, rec); err != nil {
		s.log.Errorf("kpi append: %v", err)
	}
	if err := s.sink.RecordRun(res); err != nil {
		s.log.Errorf("metrics sink: %v", err)
	}
	if s.pub != nil {
		if err := s.pub.Publish(rec); err != nil {
			s.log.Errorf("mqtt publish: %v", err)
		}
	}
}

func (s *Service) writePlan(plan model.TransferPlan) error {
	f, err := os.Create(s.cfg.Output.PlanPath)
	if err != nil {
		return fmt.Errorf("create plan file: %w", err)
	}
	defer func() { _ = f.Close() }()
	if s.cfg.Output.Format == "json" {
		err = export.WriteJSON(f, plan)
	} else {
		err = export.WriteCSV(f, plan)
	}
	if err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}

// splitObservations divides the cash-flow history at the horizon boundary:
// rows dated before the first horizon day feed the estimator, rows falling
// on horizon days become the projected net flows of the run.
func splitObservations(obs []model.CashFlowObservation, days []string) ([]model.CashFlowObservation, model.ProjectedNetFlow) {
	inHorizon := make(map[string]bool, len(days))
	for _, d := range days {
		inHorizon[d] = true
	}
	var history []model.CashFlowObservation
	flows := make(model.ProjectedNetFlow)
	for _, o := range obs {
		day := o.Date.Format(model.DayFormat)
		if inHorizon[day] {
			if flows[o.Account] == nil {
				flows[o.Account] = make(map[string]int64)
			}
			flows[o.Account][day] += o.Amount
			continue
		}
		history = append(history, o)
	}
	return history, flows
}

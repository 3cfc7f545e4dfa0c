package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjtyk95/bankoptimize/config"
	"github.com/fjtyk95/bankoptimize/core/model"
	"github.com/fjtyk95/bankoptimize/core/planner"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// testConfig lays out a two-account scenario: X runs a projected deficit
// against its safety stock on the first horizon day and Y holds the cash to
// cover it over a tiered fee route.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		Inputs: config.InputsConfig{
			AccountMaster: writeFile(t, dir, "accounts.csv", `bank_id,branch_id,service_id,cut_off_time
X,001,general,15:00
Y,001,general,16:00
`),
			FeeTable: writeFile(t, dir, "fees.csv", `from_bank,service_id,amount_bin,to_bank,to_branch,fee
Y,general,0-100000,X,001,220
Y,general,100000+,X,001,330
`),
			Balances: writeFile(t, dir, "balances.csv", `bank_id,branch_id,balance
X,001,100000
Y,001,1000000
`),
			CashFlows: writeFile(t, dir, "flows.csv", `date,bank_id,branch_id,amount,direction
2025-06-05,X,001,40000,out
2025-06-06,X,001,60000,out
2025-06-09,X,001,50000,out
`),
		},
	}
	cfg.Planner.SetDefaults()
	cfg.Planner.HorizonDays = 2
	cfg.Planner.StartDate = "2025-06-09"
	cfg.Output.PlanPath = filepath.Join(dir, "plan.csv")
	cfg.Output.SetDefaults()
	cfg.KPI.Path = filepath.Join(dir, "kpi.jsonl")
	cfg.KPI.SetDefaults()
	cfg.MQTT.SetDefaults()
	return cfg
}

func TestServiceRun(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, planner.StatusOptimal, res.Status)
	require.NotEmpty(t, res.RunID)

	// The 0.95 quantile of X's rolling two-day outflows (40000, 100000) is
	// 97000; with 50000 flowing out against a 100000 opening balance the
	// top-up from Y is 47000.
	require.Len(t, res.Plan, 1)
	tr := res.Plan[0]
	assert.Equal(t, model.AccountID{Bank: "Y", Branch: "001"}, tr.From)
	assert.Equal(t, model.AccountID{Bank: "X", Branch: "001"}, tr.To)
	assert.Equal(t, "general", tr.Service)
	assert.Equal(t, "2025-06-09", tr.ExecuteDay)
	assert.Equal(t, int64(47000), tr.Amount)
	assert.Equal(t, int64(220), tr.ExpectedFee)

	bal, ok := res.Balances.Of(model.AccountID{Bank: "X", Branch: "001"}, "2025-06-09")
	require.True(t, ok)
	assert.Equal(t, int64(97000), bal)
	bal, ok = res.Balances.Of(model.AccountID{Bank: "Y", Branch: "001"}, "2025-06-09")
	require.True(t, ok)
	assert.Equal(t, int64(953000), bal)

	assert.Equal(t, int64(220), res.Record.TotalFee)
	assert.Equal(t, int64(0), res.Record.TotalShortfall)
	assert.Equal(t, "optimal", res.Record.Status)

	planData, err := os.ReadFile(cfg.Output.PlanPath)
	require.NoError(t, err)
	assert.Contains(t, string(planData), "execute_date,from_bank,to_bank,service_id,amount,expected_fee")
	assert.Contains(t, string(planData), "2025-06-09,Y,X,general,47000,220")

	kpiData, err := os.ReadFile(cfg.KPI.Path)
	require.NoError(t, err)
	assert.Contains(t, string(kpiData), res.RunID)
	assert.Equal(t, 1, strings.Count(string(kpiData), "\n"))
}

func TestServiceRunJSONOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.Format = "json"
	cfg.Output.PlanPath = filepath.Join(t.TempDir(), "plan.json")
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	_, err = svc.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.Output.PlanPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Amount":47000`)
}

type failingSolver struct{ err error }

func (f failingSolver) Solve(context.Context, *planner.Problem) (*planner.Solution, error) {
	return nil, f.err
}

func TestServiceRunRecordsSolverFailure(t *testing.T) {
	cfg := testConfig(t)
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	solveErr := &planner.SolveError{Status: planner.StatusInfeasible, Err: errors.New("no feasible plan")}
	svc.SetSolver(failingSolver{err: solveErr})

	_, err = svc.Run(context.Background())
	require.Error(t, err)
	var se *planner.SolveError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, planner.StatusInfeasible, se.Status)

	// The failed run still lands in the KPI store.
	kpiData, err := os.ReadFile(cfg.KPI.Path)
	require.NoError(t, err)
	assert.Contains(t, string(kpiData), `"status":"infeasible"`)
}

func mustDay(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(model.DayFormat, s)
	require.NoError(t, err)
	return d
}

func TestSplitObservations(t *testing.T) {
	x := model.AccountID{Bank: "X", Branch: "001"}
	obs := []model.CashFlowObservation{
		{Account: x, Date: mustDay(t, "2025-06-05"), Amount: -40000},
		{Account: x, Date: mustDay(t, "2025-06-09"), Amount: -30000},
		{Account: x, Date: mustDay(t, "2025-06-09"), Amount: 10000},
	}
	history, flows := splitObservations(obs, []string{"2025-06-09", "2025-06-10"})

	require.Len(t, history, 1)
	assert.Equal(t, int64(-40000), history[0].Amount)
	assert.Equal(t, int64(-20000), flows.Of(x, "2025-06-09"))
	assert.Equal(t, int64(0), flows.Of(x, "2025-06-10"))
}
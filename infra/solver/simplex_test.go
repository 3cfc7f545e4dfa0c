package solver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/fjtyk95/bankoptimize/core/fee"
	"github.com/fjtyk95/bankoptimize/core/model"
	"github.com/fjtyk95/bankoptimize/core/planner"
)

var (
	acctX = model.AccountID{Bank: "X", Branch: "001"}
	acctY = model.AccountID{Bank: "Y", Branch: "001"}
)

func accountsXY(cutOffY string) []model.Account {
	y := model.Account{ID: acctY, Services: []string{"G"}, CutOff: map[string]model.CutOffTime{}}
	if cutOffY != "" {
		cut, _ := model.ParseCutOff(cutOffY)
		y.CutOff["G"] = cut
	}
	return []model.Account{
		{ID: acctX, Services: []string{"G"}, CutOff: map[string]model.CutOffTime{}},
		y,
	}
}

func schedule(t *testing.T, entries ...fee.Entry) *fee.Schedule {
	t.Helper()
	s, err := fee.NewSchedule(entries)
	require.NoError(t, err)
	return s
}

func yToX(lower, upper, f int64) fee.Entry {
	return fee.Entry{
		Route: fee.RouteKey{FromBank: "Y", Service: "G", To: acctX},
		Lower: lower, Upper: upper, Fee: f,
	}
}

func planning(t *testing.T) model.CutOffTime {
	t.Helper()
	pt, err := model.ParseCutOff("15:00")
	require.NoError(t, err)
	return pt
}

func solveAndExtract(t *testing.T, in planner.Inputs) *planner.Result {
	t.Helper()
	p, err := planner.Build(in)
	require.NoError(t, err)
	sol, err := Simplex{}.Solve(context.Background(), p)
	require.NoError(t, err)
	require.Equal(t, planner.StatusOptimal, sol.Status)
	res, err := planner.Extract(p, sol, 1e-4)
	require.NoError(t, err)
	return res
}

func TestSolveDeficitCoveredByTransfer(t *testing.T) {
	in := planner.Inputs{
		Accounts:        accountsXY(""),
		Days:            []string{"2025-06-08"},
		ProjectedFlows:  model.ProjectedNetFlow{acctX: {"2025-06-08": -500000}},
		InitialBalances: model.BalanceSnapshot{acctX: 100000, acctY: 1000000},
		Safety:          model.SafetyRequirement{},
		Fees:            schedule(t, yToX(0, 100000, 220), yToX(100000, fee.NoUpperBound, 330)),
		PlanningTime:    planning(t),
		Lambda:          1.0,
	}
	res := solveAndExtract(t, in)

	require.Len(t, res.Plan, 1)
	tr := res.Plan[0]
	assert.Equal(t, acctY, tr.From)
	assert.Equal(t, acctX, tr.To)
	assert.Equal(t, "2025-06-08", tr.ExecuteDay)
	assert.Equal(t, int64(400000), tr.Amount)
	assert.Equal(t, int64(330), tr.ExpectedFee)
	assert.Equal(t, int64(330), res.Plan.TotalFee())

	for _, b := range res.Balances {
		assert.GreaterOrEqual(t, b.Balance, int64(0))
	}
}

func TestSolveNoTransfersWhenBalancesSuffice(t *testing.T) {
	in := planner.Inputs{
		Accounts:        accountsXY(""),
		Days:            []string{"2025-06-08", "2025-06-09"},
		ProjectedFlows:  model.ProjectedNetFlow{},
		InitialBalances: model.BalanceSnapshot{acctX: 100000, acctY: 100000},
		Safety:          model.SafetyRequirement{},
		Fees:            schedule(t, yToX(0, fee.NoUpperBound, 220)),
		PlanningTime:    planning(t),
		Lambda:          1.0,
	}
	res := solveAndExtract(t, in)
	assert.Empty(t, res.Plan)

	b, ok := res.Balances.Of(acctX, "2025-06-09")
	require.True(t, ok)
	assert.Equal(t, int64(100000), b)
}

func TestSolveBalanceContinuity(t *testing.T) {
	acct := model.AccountID{Bank: "A", Branch: "001"}
	in := planner.Inputs{
		Accounts: []model.Account{{ID: acct, Services: []string{"G"}, CutOff: map[string]model.CutOffTime{}}},
		Days:     []string{"2025-06-08", "2025-06-09", "2025-06-10"},
		ProjectedFlows: model.ProjectedNetFlow{acct: {
			"2025-06-08": -10000,
			"2025-06-09": -15000,
			"2025-06-10": -20000,
		}},
		InitialBalances: model.BalanceSnapshot{acct: 100000},
		Safety:          model.SafetyRequirement{},
		Fees:            schedule(t),
		PlanningTime:    planning(t),
		Lambda:          1.0,
	}
	res := solveAndExtract(t, in)
	assert.Empty(t, res.Plan)

	want := map[string]int64{"2025-06-08": 90000, "2025-06-09": 75000, "2025-06-10": 55000}
	for day, exp := range want {
		got, ok := res.Balances.Of(acct, day)
		require.True(t, ok)
		assert.Equal(t, exp, got, "day %s", day)
	}
}

func TestSolveCutOffDefersTransfer(t *testing.T) {
	// Y's cut-off precedes the planning time, so funds cannot reach X on
	// day 1; the plan settles the top-up on day 2 only.
	in := planner.Inputs{
		Accounts:        accountsXY("14:00"),
		Days:            []string{"2025-06-08", "2025-06-09"},
		ProjectedFlows:  model.ProjectedNetFlow{acctX: {"2025-06-08": -50}},
		InitialBalances: model.BalanceSnapshot{acctX: 60, acctY: 1000},
		Safety:          model.SafetyRequirement{acctX: 50},
		Fees:            schedule(t, yToX(0, fee.NoUpperBound, 10)),
		PlanningTime:    planning(t),
		Lambda:          10.0,
	}
	res := solveAndExtract(t, in)

	require.Len(t, res.Plan, 1)
	assert.Equal(t, "2025-06-09", res.Plan[0].ExecuteDay)
	assert.Equal(t, int64(40), res.Plan[0].Amount)
}

func TestSolveAggregateLiquidityShortage(t *testing.T) {
	// Safety stock exceeds all cash in the system. The floor is soft, so
	// the run stays solvable and reports the residual shortfall.
	in := planner.Inputs{
		Accounts:        accountsXY(""),
		Days:            []string{"2025-06-08"},
		ProjectedFlows:  model.ProjectedNetFlow{},
		InitialBalances: model.BalanceSnapshot{acctX: 0, acctY: 1000},
		Safety:          model.SafetyRequirement{acctX: 5000},
		Fees:            schedule(t, yToX(0, fee.NoUpperBound, 0)),
		PlanningTime:    planning(t),
		Lambda:          1.0,
	}
	res := solveAndExtract(t, in)
	assert.Equal(t, int64(4000), res.TotalShortfall)
}

func TestSolveLambdaMonotonicity(t *testing.T) {
	build := func(lambda float64) planner.Inputs {
		return planner.Inputs{
			Accounts:        accountsXY(""),
			Days:            []string{"2025-06-08"},
			ProjectedFlows:  model.ProjectedNetFlow{},
			InitialBalances: model.BalanceSnapshot{acctX: 0, acctY: 1000},
			Safety:          model.SafetyRequirement{acctX: 1000},
			Fees:            schedule(t, yToX(0, fee.NoUpperBound, 500)),
			PlanningTime:    planning(t),
			Lambda:          lambda,
		}
	}
	low := solveAndExtract(t, build(0.1))
	high := solveAndExtract(t, build(1.0))
	assert.LessOrEqual(t, high.TotalShortfall, low.TotalShortfall)
	// With the fee amortizing to 0.5 per unit, the cheap penalty keeps the
	// cash put while the expensive one forces the top-up.
	assert.Equal(t, int64(1000), low.TotalShortfall)
	assert.Equal(t, int64(0), high.TotalShortfall)
}

func TestSolveInfeasibleWhenOverdrawUnavoidable(t *testing.T) {
	acct := model.AccountID{Bank: "A", Branch: "001"}
	in := planner.Inputs{
		Accounts:        []model.Account{{ID: acct, Services: []string{"G"}, CutOff: map[string]model.CutOffTime{}}},
		Days:            []string{"2025-06-08"},
		ProjectedFlows:  model.ProjectedNetFlow{acct: {"2025-06-08": -100}},
		InitialBalances: model.BalanceSnapshot{acct: 50},
		Safety:          model.SafetyRequirement{},
		Fees:            schedule(t),
		PlanningTime:    planning(t),
		Lambda:          1.0,
	}
	p, err := planner.Build(in)
	require.NoError(t, err)

	_, err = Simplex{}.Solve(context.Background(), p)
	require.Error(t, err)
	var se *planner.SolveError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, planner.StatusInfeasible, se.Status)
}

func TestSolveHonorsContextDeadline(t *testing.T) {
	orig := simplexSolve
	simplexSolve = func(p *planner.Problem, tol float64) (float64, []float64, error) {
		time.Sleep(time.Second)
		return 0, nil, nil
	}
	defer func() { simplexSolve = orig }()

	p, err := planner.Build(planner.Inputs{
		Accounts:        accountsXY(""),
		Days:            []string{"2025-06-08"},
		ProjectedFlows:  model.ProjectedNetFlow{},
		InitialBalances: model.BalanceSnapshot{acctX: 1, acctY: 1},
		Safety:          model.SafetyRequirement{},
		Fees:            schedule(t),
		PlanningTime:    planning(t),
		Lambda:          1.0,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = Simplex{}.Solve(ctx, p)
	var se *planner.SolveError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, planner.StatusError, se.Status)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestSolveClassifiesSolverFailures(t *testing.T) {
	p, err := planner.Build(planner.Inputs{
		Accounts:        accountsXY(""),
		Days:            []string{"2025-06-08"},
		ProjectedFlows:  model.ProjectedNetFlow{},
		InitialBalances: model.BalanceSnapshot{acctX: 1, acctY: 1},
		Safety:          model.SafetyRequirement{},
		Fees:            schedule(t),
		PlanningTime:    planning(t),
		Lambda:          1.0,
	})
	require.NoError(t, err)

	cases := []struct {
		err  error
		want planner.Status
	}{
		{lp.ErrInfeasible, planner.StatusInfeasible},
		{lp.ErrUnbounded, planner.StatusUnbounded},
		{errors.New("boom"), planner.StatusError},
	}
	orig := simplexSolve
	defer func() { simplexSolve = orig }()
	for _, tc := range cases {
		failure := tc.err
		simplexSolve = func(*planner.Problem, float64) (float64, []float64, error) {
			return 0, nil, failure
		}
		_, err := Simplex{}.Solve(context.Background(), p)
		var se *planner.SolveError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, tc.want, se.Status)
	}
}

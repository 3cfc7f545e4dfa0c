package planner

import (
	"fmt"
	"math"
	"sort"

	"github.com/fjtyk95/bankoptimize/core/model"
)

// Result is the structured form of a solved problem: the transfer plan,
// the realized balance trajectory and the aggregate safety shortfall.
type Result struct {
	Plan           model.TransferPlan
	Balances       model.BalanceTrajectory
	TotalShortfall int64
}

type routeDay struct {
	from, to model.AccountID
	service  string
	day      string
}

// Extract converts raw variable assignments into a transfer plan and a
// balance trajectory. Bucket values for the same route and settle day are
// summed back into one transfer; values at or below the noise threshold are
// treated as solver floating-point residue and dropped. Balances that dip
// negative within the threshold are clamped to zero; anything more negative
// is a solver defect and fails extraction.
func Extract(p *Problem, sol *Solution, noise float64) (*Result, error) {
	if sol == nil || !sol.Status.Usable() {
		return nil, fmt.Errorf("extract: no usable solution")
	}
	if len(sol.Values) != p.NumVars() {
		return nil, fmt.Errorf("extract: got %d variable values, problem has %d", len(sol.Values), p.NumVars())
	}
	if noise < 0 {
		noise = 0
	}

	amounts := make(map[routeDay]float64)
	for k, bk := range p.Buckets {
		v := sol.Values[k]
		if v <= 0 {
			continue
		}
		key := routeDay{from: bk.From, to: bk.To, service: bk.Service, day: bk.SettleDay}
		amounts[key] += v
	}

	dayIdx := make(map[string]int, len(p.Days))
	for i, d := range p.Days {
		dayIdx[d] = i
	}

	plan := make(model.TransferPlan, 0, len(amounts))
	for key, v := range amounts {
		if v <= noise {
			continue
		}
		amount := int64(math.Round(v))
		if amount <= 0 {
			continue
		}
		expFee, err := p.Fees.Fee(key.from.Bank, key.service, amount, key.to)
		if err != nil {
			return nil, fmt.Errorf("extract: pricing transfer %s -> %s: %w", key.from, key.to, err)
		}
		t := model.Transfer{
			From:        key.from,
			To:          key.to,
			Service:     key.service,
			ExecuteDay:  key.day,
			Amount:      amount,
			ExpectedFee: expFee,
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("extract: %w", err)
		}
		plan = append(plan, t)
	}
	sort.Slice(plan, func(i, j int) bool {
		a, b := plan[i], plan[j]
		if a.ExecuteDay != b.ExecuteDay {
			return dayIdx[a.ExecuteDay] < dayIdx[b.ExecuteDay]
		}
		if a.From != b.From {
			return a.From.String() < b.From.String()
		}
		if a.To != b.To {
			return a.To.String() < b.To.String()
		}
		return a.Service < b.Service
	})

	balances := make(model.BalanceTrajectory, 0, len(p.Accounts)*len(p.Days))
	for _, acc := range p.Accounts {
		for di, day := range p.Days {
			v := sol.Values[p.BalanceIndex(acc, di)]
			if v < 0 {
				if v < -noise {
					return nil, fmt.Errorf("extract: balance %s on %s is %g, below tolerance", acc, day, v)
				}
				v = 0
			}
			balances = append(balances, model.BalancePoint{Account: acc, Day: day, Balance: int64(math.Round(v))})
		}
	}

	var shortfall float64
	for _, acc := range p.Accounts {
		for di := range p.Days {
			if v := sol.Values[p.ShortfallIndex(acc, di)]; v > noise {
				shortfall += v
			}
		}
	}

	return &Result{
		Plan:           plan,
		Balances:       balances,
		TotalShortfall: int64(math.Round(shortfall)),
	}, nil
}

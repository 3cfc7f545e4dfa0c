// Package planner builds the transfer-scheduling linear program and turns
// raw solver output back into a transfer plan with realized balances.
//
// The formulation follows the balance recurrence
//
//	balance[a,d] = balance[a,d-1] + flow[a,d] + inbound(d) - outbound(d)
//
// with hard balance non-negativity and a soft safety floor expressed via
// penalized shortfall variables. Tiered fees are encoded by pre-bucketing
// each route's amount axis per fee tier, so the problem stays a pure LP.
package planner

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/fjtyk95/bankoptimize/core/fee"
	"github.com/fjtyk95/bankoptimize/core/model"
)

// BuildError reports invalid builder inputs: an empty horizon, a negative
// penalty weight, or references to accounts missing from the master list.
type BuildError struct {
	Msg string
}

func (e *BuildError) Error() string { return "build model: " + e.Msg }

func buildErrf(format string, args ...any) error {
	return &BuildError{Msg: fmt.Sprintf(format, args...)}
}

// Inputs collects everything the builder needs for one optimization run.
// All fields are snapshots owned by the caller; the builder never mutates
// them.
type Inputs struct {
	Accounts        []model.Account
	Days            []string
	ProjectedFlows  model.ProjectedNetFlow
	InitialBalances model.BalanceSnapshot
	Safety          model.SafetyRequirement
	Fees            *fee.Schedule
	// PlanningTime is the conceptual run initiation time of day. Services
	// whose cut-off at the origin account is earlier cannot settle
	// same-day.
	PlanningTime model.CutOffTime
	// Lambda weights the shortfall penalty against transfer fees.
	Lambda float64
}

// Build assembles the linear program for the given inputs.
func Build(in Inputs) (*Problem, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	accIndex := make(map[model.AccountID]int, len(in.Accounts))
	accounts := make([]model.AccountID, len(in.Accounts))
	for i, a := range in.Accounts {
		accounts[i] = a.ID
		accIndex[a.ID] = i
	}
	nDays := len(in.Days)

	// Finite bound for open-ended fee tiers: no transfer can exceed the
	// cash ever present in the system.
	var systemCap float64
	for _, a := range accounts {
		if b := in.InitialBalances[a]; b > 0 {
			systemCap += float64(b)
		}
		for _, d := range in.Days {
			if f := in.ProjectedFlows.Of(a, d); f > 0 {
				systemCap += float64(f)
			}
		}
	}
	if systemCap < 1 {
		systemCap = 1
	}

	buckets, settleIdx := buildBuckets(in, systemCap)

	nB := len(buckets)
	nBal := len(accounts) * nDays
	nVars := nB + 2*nBal

	p := &Problem{
		Buckets:  buckets,
		Accounts: accounts,
		Days:     in.Days,
		Fees:     in.Fees,
		accIndex: accIndex,
	}

	c := make([]float64, nVars)
	for k, bk := range buckets {
		c[k] = bk.Rate
	}
	for i := nB + nBal; i < nVars; i++ {
		c[i] = in.Lambda
	}

	// Balance recurrence, one equality per (account, day).
	A := mat.NewDense(nBal, nVars, nil)
	b := make([]float64, nBal)
	for ai, acc := range accounts {
		for di := 0; di < nDays; di++ {
			row := ai*nDays + di
			A.Set(row, p.BalanceIndex(acc, di), 1)
			if di > 0 {
				A.Set(row, p.BalanceIndex(acc, di-1), -1)
			}
			b[row] = float64(in.ProjectedFlows.Of(acc, in.Days[di]))
			if di == 0 {
				b[row] += float64(in.InitialBalances[acc])
			}
		}
	}
	for k, bk := range buckets {
		if to, ok := accIndex[bk.To]; ok {
			row := to*nDays + settleIdx[k]
			A.Set(row, k, A.At(row, k)-1)
		}
		if from, ok := accIndex[bk.From]; ok {
			row := from*nDays + settleIdx[k]
			A.Set(row, k, A.At(row, k)+1)
		}
	}

	// Soft safety floor, per-bucket tier caps, and explicit variable
	// non-negativity: the general form handed to lp.Convert treats
	// variables as free.
	G := mat.NewDense(nBal+nB+nVars, nVars, nil)
	h := make([]float64, nBal+nB+nVars)
	for ai, acc := range accounts {
		for di := 0; di < nDays; di++ {
			row := ai*nDays + di
			G.Set(row, p.BalanceIndex(acc, di), -1)
			G.Set(row, p.ShortfallIndex(acc, di), -1)
			h[row] = -float64(in.Safety.Of(acc))
		}
	}
	for k, bk := range buckets {
		G.Set(nBal+k, k, 1)
		h[nBal+k] = bk.Cap
	}
	for i := 0; i < nVars; i++ {
		G.Set(nBal+nB+i, i, -1)
	}

	p.C = c
	p.A = A
	p.B = b
	p.G = G
	p.H = h
	return p, nil
}

// buildBuckets enumerates transfer variables. Self-transfers are never
// created, and a service past its cut-off settles next day, with no
// variable on the final horizon day.
func buildBuckets(in Inputs, systemCap float64) ([]Bucket, []int) {
	var buckets []Bucket
	var settleIdx []int
	nDays := len(in.Days)
	for _, origin := range in.Accounts {
		for _, svc := range origin.Services {
			sameDay := true
			if cut, ok := origin.CutOff[svc]; ok {
				sameDay = !cut.Before(in.PlanningTime)
			}
			for _, dest := range in.Accounts {
				if dest.ID == origin.ID {
					continue
				}
				bins := in.Fees.Bins(fee.RouteKey{FromBank: origin.ID.Bank, Service: svc, To: dest.ID})
				if bins == nil {
					continue
				}
				for di := 0; di < nDays; di++ {
					si := di
					if !sameDay {
						si = di + 1
						if si >= nDays {
							continue
						}
					}
					for _, bin := range bins {
						cap := float64(bin.Upper - bin.Lower)
						if bin.Upper == fee.NoUpperBound {
							cap = systemCap - float64(bin.Lower)
						}
						if cap <= 0 {
							continue
						}
						rate := 0.0
						if bin.Fee > 0 {
							rate = float64(bin.Fee) / cap
						}
						buckets = append(buckets, Bucket{
							From:      origin.ID,
							To:        dest.ID,
							Service:   svc,
							SendDay:   in.Days[di],
							SettleDay: in.Days[si],
							Lower:     bin.Lower,
							Upper:     bin.Upper,
							Fee:       bin.Fee,
							Rate:      rate,
							Cap:       cap,
						})
						settleIdx = append(settleIdx, si)
					}
				}
			}
		}
	}
	return buckets, settleIdx
}

func validate(in Inputs) error {
	if len(in.Days) == 0 {
		return buildErrf("horizon is empty")
	}
	seen := make(map[string]bool, len(in.Days))
	for _, d := range in.Days {
		if seen[d] {
			return buildErrf("duplicate horizon day %s", d)
		}
		seen[d] = true
	}
	if in.Lambda < 0 {
		return buildErrf("lambda penalty must be non-negative, got %g", in.Lambda)
	}
	if len(in.Accounts) == 0 {
		return buildErrf("account master is empty")
	}
	if in.Fees == nil {
		return buildErrf("fee schedule is required")
	}
	known := make(map[model.AccountID]bool, len(in.Accounts))
	for _, a := range in.Accounts {
		if err := a.Validate(); err != nil {
			return buildErrf("%v", err)
		}
		if known[a.ID] {
			return buildErrf("duplicate account %s", a.ID)
		}
		known[a.ID] = true
	}
	for id := range in.InitialBalances {
		if !known[id] {
			return buildErrf("balance snapshot references unknown account %s", id)
		}
	}
	for id, byDay := range in.ProjectedFlows {
		if !known[id] {
			return buildErrf("projected flow references unknown account %s", id)
		}
		for d := range byDay {
			if !seen[d] {
				return buildErrf("projected flow for account %s references day %s outside the horizon", id, d)
			}
		}
	}
	for id := range in.Safety {
		if !known[id] {
			return buildErrf("safety requirement references unknown account %s", id)
		}
	}
	return nil
}

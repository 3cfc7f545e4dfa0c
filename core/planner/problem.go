package planner

import (
	"gonum.org/v1/gonum/mat"

	"github.com/fjtyk95/bankoptimize/core/fee"
	"github.com/fjtyk95/bankoptimize/core/model"
)

// Bucket is one transfer decision variable: the slice of a transfer over a
// single fee tier for one route and send day. Pre-bucketing the amount axis
// keeps the tiered objective linear without binary variables.
type Bucket struct {
	From    model.AccountID
	To      model.AccountID
	Service string
	// SendDay is when the transfer is initiated, SettleDay when funds
	// move. They differ when the service's cut-off has passed.
	SendDay   string
	SettleDay string
	// Lower and Upper delimit the fee tier the bucket belongs to.
	Lower int64
	Upper int64
	// Fee is the tier's fixed fee; Rate amortizes it over the bucket span
	// so that a fully used bucket contributes exactly Fee to the
	// objective.
	Fee  int64
	Rate float64
	// Cap bounds the bucket value (tier span, or remaining system
	// liquidity for the open top tier).
	Cap float64
}

// Problem is a fully assembled linear program in the general form
// min c'x subject to G x <= h, A x = b, x >= 0, together with the variable
// metadata needed to interpret a solution. Variables are laid out as
// [buckets..., balances..., shortfalls...].
type Problem struct {
	C []float64
	G *mat.Dense
	H []float64
	A *mat.Dense
	B []float64

	Buckets  []Bucket
	Accounts []model.AccountID
	Days     []string
	Fees     *fee.Schedule

	accIndex map[model.AccountID]int
}

// NumVars returns the total variable count.
func (p *Problem) NumVars() int {
	return len(p.Buckets) + 2*len(p.Accounts)*len(p.Days)
}

// BalanceIndex returns the variable index of balance[account, day].
func (p *Problem) BalanceIndex(id model.AccountID, dayIdx int) int {
	return len(p.Buckets) + p.accIndex[id]*len(p.Days) + dayIdx
}

// ShortfallIndex returns the variable index of shortfall[account, day].
func (p *Problem) ShortfallIndex(id model.AccountID, dayIdx int) int {
	return len(p.Buckets) + len(p.Accounts)*len(p.Days) + p.accIndex[id]*len(p.Days) + dayIdx
}

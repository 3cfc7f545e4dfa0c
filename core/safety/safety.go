// Package safety estimates the minimum balance each account should hold,
// sized to a quantile of its historical rolling net outflow.
package safety

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/fjtyk95/bankoptimize/core/model"
)

// ErrInsufficientHistory indicates an account has fewer observations than
// the requested horizon. Silently returning zero here would mask a caller
// bug, so the estimator fails instead.
var ErrInsufficientHistory = errors.New("insufficient cash-flow history")

// Calc derives the safety requirement per account from historical cash
// flows. For each account it sums net outflow over sliding date windows of
// horizonDays and takes the given quantile of that rolling distribution,
// rounded up and clamped at zero. Accounts with no observations at all get
// no entry, which reads as a zero requirement.
func Calc(observations []model.CashFlowObservation, horizonDays int, quantile float64) (model.SafetyRequirement, error) {
	if horizonDays <= 0 {
		return nil, fmt.Errorf("horizon must be positive, got %d", horizonDays)
	}
	if quantile <= 0 || quantile >= 1 {
		return nil, fmt.Errorf("quantile must be in (0,1), got %g", quantile)
	}

	byAccount := make(map[model.AccountID][]model.CashFlowObservation)
	for _, o := range observations {
		byAccount[o.Account] = append(byAccount[o.Account], o)
	}

	req := make(model.SafetyRequirement, len(byAccount))
	for id, obs := range byAccount {
		if len(obs) < horizonDays {
			return nil, fmt.Errorf("%w: account %s has %d observations, horizon is %d days",
				ErrInsufficientHistory, id, len(obs), horizonDays)
		}
		sums := rollingOutflow(obs, horizonDays)
		sort.Float64s(sums)
		q := stat.Quantile(quantile, stat.LinInterp, sums, nil)
		v := int64(math.Ceil(q))
		if v < 0 {
			v = 0
		}
		req[id] = v
	}
	return req, nil
}

// rollingOutflow returns one rolling net-outflow sum per distinct
// observation date, summed over the trailing window of horizonDays days
// ending on that date.
func rollingOutflow(obs []model.CashFlowObservation, horizonDays int) []float64 {
	daily := make(map[time.Time]int64)
	for _, o := range obs {
		day := o.Date.Truncate(24 * time.Hour)
		daily[day] += o.Outflow()
	}
	days := make([]time.Time, 0, len(daily))
	for d := range daily {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	sums := make([]float64, 0, len(days))
	lo := 0
	var window int64
	for _, d := range days {
		window += daily[d]
		cutoff := d.AddDate(0, 0, -horizonDays)
		for !days[lo].After(cutoff) {
			window -= daily[days[lo]]
			lo++
		}
		sums = append(sums, float64(window))
	}
	return sums
}

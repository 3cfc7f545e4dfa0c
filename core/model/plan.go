package model

import "fmt"

// Transfer is one scheduled interbank transfer in the final plan.
type Transfer struct {
	From       AccountID
	To         AccountID
	Service    string
	ExecuteDay string
	Amount     int64
	// ExpectedFee is priced from the fee schedule on the realized amount.
	ExpectedFee int64
}

// Validate enforces the structural plan invariants.
func (t Transfer) Validate() error {
	if t.From == t.To {
		return fmt.Errorf("transfer on %s: origin and destination are both %s", t.ExecuteDay, t.From)
	}
	if t.Amount <= 0 {
		return fmt.Errorf("transfer %s -> %s on %s: amount must be positive", t.From, t.To, t.ExecuteDay)
	}
	if t.ExpectedFee < 0 {
		return fmt.Errorf("transfer %s -> %s on %s: negative fee", t.From, t.To, t.ExecuteDay)
	}
	return nil
}

// TransferPlan is the ordered list of transfers produced by one run.
type TransferPlan []Transfer

// TotalFee sums the expected fees over the plan.
func (p TransferPlan) TotalFee() int64 {
	var total int64
	for _, t := range p {
		total += t.ExpectedFee
	}
	return total
}

// BalancePoint is one realized end-of-day balance.
type BalancePoint struct {
	Account AccountID
	Day     string
	Balance int64
}

// BalanceTrajectory holds the realized balance per (account, day).
type BalanceTrajectory []BalancePoint

// Of returns the balance for (account, day) and whether it is present.
func (tr BalanceTrajectory) Of(id AccountID, day string) (int64, bool) {
	for _, p := range tr {
		if p.Account == id && p.Day == day {
			return p.Balance, true
		}
	}
	return 0, false
}

package model

import (
	"fmt"
	"time"
)

// Direction indicates whether a historical cash flow left or entered an
// account.
type Direction string

const (
	DirectionIn  Direction = "in"
	DirectionOut Direction = "out"
)

// ParseDirection validates the in|out column of the cash-flow history.
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionIn, DirectionOut:
		return Direction(s), nil
	default:
		return "", fmt.Errorf("direction must be %q or %q, got %q", DirectionIn, DirectionOut, s)
	}
}

// CashFlowObservation is one historical inflow or outflow record. Amount is
// signed: positive for inflow, negative for outflow.
type CashFlowObservation struct {
	Account AccountID
	Date    time.Time
	Amount  int64
}

// Outflow returns the observation as a signed outflow (outflows positive),
// the orientation used by the safety-stock estimator.
func (o CashFlowObservation) Outflow() int64 { return -o.Amount }

// SafetyRequirement maps each account to its required minimum balance.
// Values are non-negative. The zero value of the map lookup doubles as the
// requirement for accounts with no history.
type SafetyRequirement map[AccountID]int64

// Of returns the requirement for the account, zero when absent.
func (r SafetyRequirement) Of(id AccountID) int64 { return r[id] }

// BalanceSnapshot is the opening balance per account on the first horizon
// day.
type BalanceSnapshot map[AccountID]int64

// ProjectedNetFlow holds the exogenous signed amount expected to hit each
// account on each horizon day absent any transfer.
type ProjectedNetFlow map[AccountID]map[string]int64

// Of returns the projected flow for (account, day), zero when absent.
func (p ProjectedNetFlow) Of(id AccountID, day string) int64 {
	return p[id][day]
}

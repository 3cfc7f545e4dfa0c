package model

import (
	"fmt"
	"time"
)

// AccountID identifies a settlement account by bank and branch.
type AccountID struct {
	Bank   string
	Branch string
}

func (id AccountID) String() string {
	return id.Bank + "/" + id.Branch
}

// Account describes one settlement account: the transfer services it can
// originate or receive and, per service, the time of day after which
// same-day execution is no longer permitted.
type Account struct {
	ID       AccountID
	Services []string
	// CutOff maps service id to the service's cut-off time of day ("HH:MM").
	CutOff map[string]CutOffTime
}

// Validate checks that the account master row is sound.
func (a Account) Validate() error {
	if a.ID.Bank == "" {
		return fmt.Errorf("account %s: bank id is required", a.ID)
	}
	if len(a.Services) == 0 {
		return fmt.Errorf("account %s: at least one service is required", a.ID)
	}
	for s, t := range a.CutOff {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("account %s service %s: %w", a.ID, s, err)
		}
	}
	return nil
}

// CutOffTime is a time of day in minutes since midnight.
type CutOffTime int

// ParseCutOff parses an "HH:MM" clock string.
func ParseCutOff(s string) (CutOffTime, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid cut-off time %q: %w", s, err)
	}
	return CutOffTime(t.Hour()*60 + t.Minute()), nil
}

// Validate checks the cut-off falls within a single day.
func (c CutOffTime) Validate() error {
	if c < 0 || c >= 24*60 {
		return fmt.Errorf("cut-off %d out of range", int(c))
	}
	return nil
}

// Before reports whether the cut-off is strictly earlier than t.
func (c CutOffTime) Before(t CutOffTime) bool { return c < t }

func (c CutOffTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

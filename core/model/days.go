package model

import "time"

// DayFormat is the canonical horizon day label layout.
const DayFormat = "2006-01-02"

// BusinessDays returns n consecutive business-day labels starting at the
// first weekday on or after start. Weekends are skipped; exchange holidays
// are out of scope for horizon generation.
func BusinessDays(start time.Time, n int) []string {
	days := make([]string, 0, n)
	d := start
	for len(days) < n {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			days = append(days, d.Format(DayFormat))
		}
		d = d.AddDate(0, 0, 1)
	}
	return days
}

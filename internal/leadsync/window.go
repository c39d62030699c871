package leadsync

import "time"

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// LastFullMonth returns the calendar month before now, in loc.
func LastFullMonth(now time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.Local
	}
	local := now.In(loc)
	thisMonth := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
	return Window{
		Start: thisMonth.AddDate(0, -1, 0),
		End:   thisMonth,
	}
}

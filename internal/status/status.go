package status

import "time"

// Status is the derived lifecycle phase of an auction. It is computed from
// the listing's time window on every read and never persisted.
type Status string

const (
	Upcoming   Status = "upcoming"
	Active     Status = "active"
	EndingSoon Status = "ending-soon"
	Ended      Status = "ended"

	// InvalidDates is an error sentinel for records whose timestamps are
	// missing or inverted, so that one malformed listing does not fail a
	// whole list render.
	InvalidDates Status = "invalid-dates"
)

// EndingSoonWindow is how much remaining time turns an active auction into
// ending-soon. Fixed policy constant.
const EndingSoonWindow = time.Hour

// Derive maps an auction's time window and the caller's current time to a
// lifecycle status. The window is [start, end): an auction is biddable from
// its start time up to, but not including, its end time.
func Derive(start, end, now time.Time) Status {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return InvalidDates
	}

	switch {
	case now.Before(start):
		return Upcoming
	case now.Before(end):
		if end.Sub(now) < EndingSoonWindow {
			return EndingSoon
		}
		return Active
	default:
		return Ended
	}
}

// Biddable reports whether bids may be placed in the given status
func Biddable(s Status) bool {
	return s == Active || s == EndingSoon
}

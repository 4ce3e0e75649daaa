package domain

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time within a day, stored as minutes since
// midnight. Reservations carry a date plus two of these rather than full
// timestamps, which keeps overlap checks integer comparisons.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM" (24-hour). Both fields must be exactly
// two digits.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("parse time of day %q: want HH:MM", s)
	}
	for _, i := range [...]int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, fmt.Errorf("parse time of day %q: want HH:MM", s)
		}
	}
	h := int(s[0]-'0')*10 + int(s[1]-'0')
	m := int(s[3]-'0')*10 + int(s[4]-'0')
	if h > 23 || m > 59 {
		return 0, fmt.Errorf("parse time of day %q: out of range", s)
	}
	return TimeOfDay(h*60 + m), nil
}

// TimeOfDayFrom extracts the time-of-day component of t.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// At anchors the time of day on the given date.
func (t TimeOfDay) At(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), int(t)/60, int(t)%60, 0, 0, date.Location())
}

// strictlyInside reports whether t lies inside (start, end), both bounds
// excluded. Endpoints touching a boundary are deliberately not inside so
// that back-to-back reservations do not conflict.
func (t TimeOfDay) strictlyInside(start, end TimeOfDay) bool {
	return t > start && t < end
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) conflict on
// the same date: they are identical, or either interval's endpoint falls
// strictly inside the other's span.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	if aStart == bStart && aEnd == bEnd {
		return true
	}
	if aStart.strictlyInside(bStart, bEnd) || aEnd.strictlyInside(bStart, bEnd) {
		return true
	}
	return bStart.strictlyInside(aStart, aEnd) || bEnd.strictlyInside(aStart, aEnd)
}

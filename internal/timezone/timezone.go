// Package timezone computes the 09:00-local-to-UTC instant a greeting is due,
// and answers "is this date the user's event today" across DST and leap-year
// edges. It touches no other package: every other component either consumes
// it or feeds it a (date, zone) pair.
package timezone

import (
	"fmt"
	"time"
)

// ErrInvalidZone is returned whenever an IANA zone name cannot be resolved.
// The engine never silently falls back to UTC.
type ErrInvalidZone struct {
	Zone string
	Err  error
}

func (e *ErrInvalidZone) Error() string {
	return fmt.Sprintf("timezone: invalid zone %q: %v", e.Zone, e.Err)
}

func (e *ErrInvalidZone) Unwrap() error {
	return e.Err
}

// sendHour is the local hour at which every greeting is due.
const sendHour = 9

// ValidateZone reports whether tz resolves to a known IANA location.
func ValidateZone(tz string) bool {
	_, err := time.LoadLocation(tz)
	return err == nil
}

// NineAmLocalToUtc returns the UTC instant corresponding to 09:00:00 local on
// targetDate in IANA zone tz.
//
// Two rare edge cases are resolved deterministically:
//   - if 09:00 local does not exist that day (a DST forward jump that skips
//     over it), the first valid instant at or after 09:00 local is used.
//   - if 09:00 local is ambiguous (a DST backward jump spanning 09:00), the
//     earlier, pre-transition occurrence is used.
func NineAmLocalToUtc(targetDate time.Time, tz string) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, &ErrInvalidZone{Zone: tz, Err: err}
	}

	y, m, d := targetDate.Date()
	// time.Date never errors; on a skipped wall-clock instant Go normalizes
	// the result forward past the gap, which already satisfies "first valid
	// instant >= 09:00 local".
	candidate := time.Date(y, m, d, sendHour, 0, 0, 0, loc)

	// On an ambiguous instant Go's choice of offset is not documented to be
	// stable, so pin it to the earlier (pre-transition) occurrence ourselves.
	earlier := earlierOffsetOccurrence(y, m, d, loc)
	if !earlier.IsZero() {
		candidate = earlier
	}

	return candidate.UTC(), nil
}

// earlierOffsetOccurrence returns the pre-transition instant for 09:00 local
// on (y, m, d) in loc if that wall-clock time is ambiguous (occurs twice due
// to a backward DST transition), or the zero Time otherwise.
func earlierOffsetOccurrence(y int, m time.Month, d int, loc *time.Location) time.Time {
	t := time.Date(y, m, d, sendHour, 0, 0, 0, loc)
	_, offset := t.Zone()

	// Re-derive the wall clock using the offset one nanosecond earlier; if that
	// also names 09:00 with a different offset, the hour was ambiguous and
	// the earlier (larger UTC-offset-before-fallback) occurrence is correct.
	justBefore := t.Add(-time.Nanosecond)
	_, offsetBefore := justBefore.Zone()
	if offsetBefore == offset {
		return time.Time{}
	}

	// The instant using offsetBefore is the earlier occurrence of the
	// ambiguous wall-clock hour.
	return time.Date(y, m, d, sendHour, 0, 0, 0, time.FixedZone(justBefore.Location().String(), offsetBefore))
}

// IsEventToday reports whether eventDate's (month, day) matches now's
// (month, day) when now is rendered in tz.
//
// Leap-day policy: an event stored on Feb 29 fires on Feb 28 in non-leap
// years, keeping "exactly once per year" true without a four-year gap.
func IsEventToday(eventDate time.Time, tz string, now time.Time) (bool, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return false, &ErrInvalidZone{Zone: tz, Err: err}
	}

	localNow := now.In(loc)
	nowMonth, nowDay := localNow.Month(), localNow.Day()

	eventMonth, eventDay := eventDate.Month(), eventDate.Day()
	if eventMonth == time.February && eventDay == 29 && !isLeapYear(localNow.Year()) {
		eventDay = 28
	}

	return nowMonth == eventMonth && nowDay == eventDay, nil
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// OffsetMinutes returns the UTC offset, in minutes, of instant rendered in
// tz. Used for observability and test assertions only.
func OffsetMinutes(instant time.Time, tz string) (int, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, &ErrInvalidZone{Zone: tz, Err: err}
	}
	_, offsetSec := instant.In(loc).Zone()
	return offsetSec / 60, nil
}

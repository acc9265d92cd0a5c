// Package timezone provides timezone utilities for chronolog.
//
// Requests carry either a fixed UTC offset in minutes or an IANA zone name.
// The zone is turned into the offset in effect at the request's "now", so a
// message sent across a DST change resolves against the right wall clock.
package timezone

import (
	"fmt"
	"time"
)

// UTC is the coordinated universal time timezone.
var UTC = time.UTC

// MaxOffsetMinutes bounds a UTC offset. Real zones stay within -12:00 and +14:00.
const MaxOffsetMinutes = 14 * 60

// ParseTimezone parses an IANA timezone identifier (e.g., "Asia/Shanghai").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// OffsetMinutes returns loc's UTC offset in minutes at instant t.
func OffsetMinutes(loc *time.Location, t time.Time) int {
	if loc == nil {
		loc = UTC
	}
	_, seconds := t.In(loc).Zone()
	return seconds / 60
}

// ValidateOffset checks that minutes is a plausible UTC offset.
func ValidateOffset(minutes int) error {
	if minutes < -MaxOffsetMinutes || minutes > MaxOffsetMinutes {
		return fmt.Errorf("utc offset %d minutes out of range", minutes)
	}
	return nil
}

// ResolveOffset picks the offset for a request: an explicit offset wins,
// then the request's zone, then fallbackTZ. Zones are evaluated at instant at.
func ResolveOffset(offset *int, tz, fallbackTZ string, at time.Time) (int, error) {
	if offset != nil {
		if err := ValidateOffset(*offset); err != nil {
			return 0, err
		}
		return *offset, nil
	}
	if tz == "" {
		tz = fallbackTZ
	}
	loc, err := ParseTimezone(tz)
	if err != nil {
		return 0, err
	}
	return OffsetMinutes(loc, at), nil
}

// FixedZone returns a location for a fixed UTC offset in minutes.
func FixedZone(offsetMinutes int) *time.Location {
	if offsetMinutes == 0 {
		return UTC
	}
	return time.FixedZone(FormatOffset(offsetMinutes), offsetMinutes*60)
}

// FormatOffset formats an offset as "+05:30" or "-07:00".
func FormatOffset(offsetMinutes int) string {
	sign := '+'
	if offsetMinutes < 0 {
		sign = '-'
		offsetMinutes = -offsetMinutes
	}
	return fmt.Sprintf("%c%02d:%02d", sign, offsetMinutes/60, offsetMinutes%60)
}

// StartOfDay returns the start of the day (00:00:00) in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	local := t.In(tz)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, tz)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in the given timezone.
func EndOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = UTC
	}
	local := t.In(tz)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, tz)
}

// FormatEntryTime formats a log entry's time span for display.
// Rules:
//   - With start: "2006-01-02 15:04 - 16:00"
//   - Without start: "2006-01-02 ? - 16:00"
func FormatEntryTime(startTs *int64, endTs int64, tz *time.Location) string {
	if tz == nil {
		tz = UTC
	}
	endTime := time.Unix(endTs, 0).In(tz)
	if startTs == nil {
		return fmt.Sprintf("%s ? - %s", endTime.Format("2006-01-02"), endTime.Format("15:04"))
	}

	startTime := time.Unix(*startTs, 0).In(tz)
	return fmt.Sprintf("%s - %s",
		startTime.Format("2006-01-02 15:04"),
		endTime.Format("15:04"))
}

package logparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Clock is a wall-clock time of day.
type Clock struct {
	Hour   int
	Minute int
}

// String formats the clock as HH:MM.
func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// ParseTimeString parses a bare wall-clock expression such as "2:30pm",
// "9 am" or "14:30". It returns false for anything outside 00:00-23:59
// after 12-hour normalisation.
func ParseTimeString(s string) (Clock, bool) {
	m := clockPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Clock{}, false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return Clock{}, false
	}
	minute := 0
	if m[2] != "" {
		if minute, err = strconv.Atoi(m[2]); err != nil {
			return Clock{}, false
		}
	}

	switch strings.ToLower(m[3]) {
	case "pm":
		if hour != 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Clock{}, false
	}
	return Clock{Hour: hour, Minute: minute}, true
}

// ToUTC anchors the clock to "today" in the caller's local timezone and
// returns the matching UTC instant. The local date is taken from now shifted
// by offsetMinutes; no cross-midnight disambiguation is attempted.
func (c Clock) ToUTC(now time.Time, offsetMinutes int) time.Time {
	offset := time.Duration(offsetMinutes) * time.Minute
	local := now.UTC().Add(offset)
	wall := time.Date(local.Year(), local.Month(), local.Day(), c.Hour, c.Minute, 0, 0, time.UTC)
	return wall.Add(-offset)
}

package logparse

import (
	"strconv"
	"strings"
	"time"
)

// MaxDuration caps a parsed duration. Larger amounts are still consumed as a
// duration phrase so the title never keeps them.
const MaxDuration = 7 * 24 * time.Hour

// ParseDuration finds the first duration phrase in message ("for 2 hours",
// "30 minutes", "1.5h", "2 hours 30 minutes") and returns it as a positive
// offset. The resolver decides the sign.
func ParseDuration(message string) (time.Duration, bool) {
	for _, m := range durationPattern.FindAllStringSubmatch(message, -1) {
		if d, ok := durationFromMatch(m); ok {
			return d, true
		}
	}
	return 0, false
}

func durationFromMatch(m []string) (time.Duration, bool) {
	amount, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}

	total := scaleByUnit(amount, m[2])
	if m[3] != "" {
		extra, err := strconv.ParseFloat(m[3], 64)
		if err != nil {
			return 0, false
		}
		total += scaleByUnit(extra, m[4])
	}

	total = min(total, MaxDuration).Round(time.Second)
	if total <= 0 {
		return 0, false
	}
	return total, true
}

func scaleByUnit(amount float64, unit string) time.Duration {
	scale := time.Minute
	if strings.HasPrefix(strings.ToLower(unit), "h") {
		scale = time.Hour
	}
	if amount >= float64(MaxDuration/scale) {
		return MaxDuration
	}
	return time.Duration(amount * float64(scale))
}

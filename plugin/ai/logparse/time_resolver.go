package logparse

import (
	"regexp"
	"time"
)

// timeQuery is the input row of the resolver decision table.
type timeQuery struct {
	message string
	ctx     TimeContext
}

func (q timeQuery) now() time.Time {
	return q.ctx.CurrentTime.UTC()
}

func (q timeQuery) lastEventEnd() (time.Time, bool) {
	if q.ctx.LastEventEndTime == nil {
		return time.Time{}, false
	}
	return q.ctx.LastEventEndTime.UTC(), true
}

func (q timeQuery) toUTC(c Clock) time.Time {
	return c.ToUTC(q.ctx.CurrentTime, q.ctx.UTCOffsetMinutes)
}

// timeRules holds resolution rules 1-4 in priority order. Rule 5 (the
// default) is applied when none of them match.
var timeRules = []rule[timeQuery, TimeInfo]{
	{name: "explicit_range", apply: resolveExplicitRange},
	{name: "marker_plus_duration", apply: resolveMarkerWithDuration},
	{name: "duration_only", apply: resolveDurationOnly},
	{name: "single_marker", apply: resolveSingleMarker},
}

// ExtractTimeInfo resolves the start and end of the activity described by
// message. It never fails: when nothing in the message pins the time, the
// activity is assumed to end now.
func ExtractTimeInfo(message string, ctx TimeContext) TimeInfo {
	q := timeQuery{message: message, ctx: ctx}
	if info, _, ok := firstMatch(timeRules, q); ok {
		return info
	}
	return resolveDefault(q)
}

func resolveExplicitRange(q timeQuery) (TimeInfo, bool) {
	for _, rp := range rangePatterns {
		for _, m := range rp.re.FindAllStringSubmatch(q.message, -1) {
			start, okStart := ParseTimeString(m[1])
			end, okEnd := ParseTimeString(m[2])
			if !okStart || !okEnd {
				continue
			}
			return newTimeInfo(q.toUTC(start), q.toUTC(end), SourceExplicitRange), true
		}
	}
	return TimeInfo{}, false
}

func resolveMarkerWithDuration(q timeQuery) (TimeInfo, bool) {
	d, ok := ParseDuration(q.message)
	if !ok {
		return TimeInfo{}, false
	}
	if c, ok := findMarker(startMarkerPattern, q.message); ok {
		start := q.toUTC(c)
		return newTimeInfo(start, start.Add(d), SourceStartPlusDuration), true
	}
	if c, ok := findMarker(endMarkerPattern, q.message); ok {
		end := q.toUTC(c)
		return newTimeInfo(end.Add(-d), end, SourceEndMinusDuration), true
	}
	return TimeInfo{}, false
}

func resolveDurationOnly(q timeQuery) (TimeInfo, bool) {
	d, ok := ParseDuration(q.message)
	if !ok {
		return TimeInfo{}, false
	}
	if last, ok := q.lastEventEnd(); ok {
		return newTimeInfo(last, last.Add(d), SourceLastEventPlusDuration), true
	}
	end := q.now()
	return newTimeInfo(end.Add(-d), end, SourceCurrentMinusDuration), true
}

func resolveSingleMarker(q timeQuery) (TimeInfo, bool) {
	if c, ok := findMarker(startMarkerPattern, q.message); ok {
		return newTimeInfo(q.toUTC(c), q.now(), SourceStartToNow), true
	}
	if c, ok := findMarker(endMarkerPattern, q.message); ok {
		end := q.toUTC(c)
		if last, ok := q.lastEventEnd(); ok {
			return newTimeInfo(last, end, SourceLastEventToEnd), true
		}
		return TimeInfo{EndTime: &end, Source: SourceUnknownToEnd}, true
	}
	return TimeInfo{}, false
}

func resolveDefault(q timeQuery) TimeInfo {
	end := q.now()
	if last, ok := q.lastEventEnd(); ok {
		return newTimeInfo(last, end, SourceLastEventToNow)
	}
	return TimeInfo{EndTime: &end, Source: SourceEndOnly}
}

// findMarker returns the first marker in message whose clock parses.
func findMarker(re *regexp.Regexp, message string) (Clock, bool) {
	for _, m := range re.FindAllStringSubmatch(message, -1) {
		if c, ok := ParseTimeString(m[1]); ok {
			return c, true
		}
	}
	return Clock{}, false
}

func newTimeInfo(start, end time.Time, source TimeSource) TimeInfo {
	start, end = start.UTC(), end.UTC()
	return TimeInfo{StartTime: &start, EndTime: &end, Source: source}
}

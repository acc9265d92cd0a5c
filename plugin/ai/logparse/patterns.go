package logparse

import "regexp"

// Building blocks shared by the time resolver and the activity extractor.
// The extractor strips exactly the phrases the resolver consumes, so both
// sides are compiled from these same expressions.
const (
	// clockExpr matches a wall-clock token such as "9", "9am", "2:30 pm" or "14:30".
	clockExpr = `\d{1,2}(?::\d{2})?(?:\s*[ap]m)?`

	hourUnitExpr   = `hours?|hrs?|h`
	minuteUnitExpr = `minutes?|mins?|m`

	// durationSpanExpr is the capture-free form of durationPattern.
	durationSpanExpr = `\d+(?:\.\d+)?\s*(?:` + hourUnitExpr + `|` + minuteUnitExpr + `)\b` +
		`(?:\s*(?:and\s+)?\d+\s*(?:` + minuteUnitExpr + `)\b)?`

	rangeJoinExpr = `(?:\s*-\s*|\s+(?:to|until|till)\s+)`
)

// clockPattern is the standalone time-string grammar: H[:MM][am|pm].
var clockPattern = regexp.MustCompile(`(?i)^(\d{1,2})(?::(\d{2}))?\s*([ap]m)?$`)

// rangePattern captures a start and an end clock token.
type rangePattern struct {
	name string
	re   *regexp.Regexp
}

// Range patterns in priority order.
var rangePatterns = []rangePattern{
	{
		name: "from_to",
		re:   regexp.MustCompile(`(?i)\bfrom\s+(` + clockExpr + `)` + rangeJoinExpr + `(` + clockExpr + `)\b`),
	},
	{
		name: "between_and",
		re:   regexp.MustCompile(`(?i)\bbetween\s+(` + clockExpr + `)\s+and\s+(` + clockExpr + `)\b`),
	},
	{
		name: "bare_range",
		re:   regexp.MustCompile(`(?i)\b(` + clockExpr + `)` + rangeJoinExpr + `(` + clockExpr + `)\b`),
	},
}

// Single time markers. A start marker pins the beginning of the activity,
// an end marker pins its end.
var (
	startMarkerPattern = regexp.MustCompile(`(?i)\b(?:at|since|starting(?:\s+(?:at|from))?|from)\s+(` + clockExpr + `)\b`)
	endMarkerPattern   = regexp.MustCompile(`(?i)\b(?:until|till|ending(?:\s+at)?|ended(?:\s+at)?)\s+(` + clockExpr + `)\b`)
)

// durationPattern captures an amount and unit, plus an optional trailing
// minutes part ("2 hours 30 minutes", "1h and 15m").
var durationPattern = regexp.MustCompile(`(?i)(?:\bfor\s+)?\b(\d+(?:\.\d+)?)\s*(` + hourUnitExpr + `|` + minuteUnitExpr + `)\b` +
	`(?:\s*(?:and\s+)?(\d+)\s*(` + minuteUnitExpr + `)\b)?`)

// timePhrasePatterns returns every pattern the resolver consumes, in the
// order the extractor removes them.
func timePhrasePatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(rangePatterns)+3)
	for _, rp := range rangePatterns {
		patterns = append(patterns, rp.re)
	}
	return append(patterns, startMarkerPattern, endMarkerPattern, durationPattern)
}

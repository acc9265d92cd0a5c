package logparse

import "regexp"

// rule is one row of an ordered decision table. Rows are evaluated top to
// bottom and the first row whose apply reports true decides the outcome.
type rule[In, Out any] struct {
	name  string
	apply func(In) (Out, bool)
}

// firstMatch evaluates rules in order and returns the first hit together
// with the name of the row that produced it.
func firstMatch[In, Out any](rules []rule[In, Out], in In) (Out, string, bool) {
	for _, r := range rules {
		if out, ok := r.apply(in); ok {
			return out, r.name, true
		}
	}
	var zero Out
	return zero, "", false
}

// anyPattern reports whether s matches at least one of the patterns.
func anyPattern(s string, patterns ...*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(s) {
			return true
		}
	}
	return false
}

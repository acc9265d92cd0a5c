package logparse

import (
	"regexp"
	"slices"
	"strings"
)

// Rule names reported by MatchRequestRule.
const (
	RequestRuleReject         = "reject_question"
	RequestRuleStrongAction   = "strong_action"
	RequestRulePrimaryKeyword = "primary_keyword"
	RequestRulePrefixForm     = "prefix_form"
)

// primaryKeywords are the explicit logging verbs.
var primaryKeywords = []string{"log", "record", "track", "add", "note"}

// Reject patterns. Any hit means the message is a question or a query.
var (
	interrogativeOpenerPattern = regexp.MustCompile(`^(?:how|what|when|where|why|who|which|show|get|display|tell|give|find)\b`)
	trailingQuestionPattern    = regexp.MustCompile(`\?\s*$`)
	politeQuestionPattern      = regexp.MustCompile(`^(?:can|could|would|should|is|are|was|were|do|does|did)\s+(?:you|i|it|this|that|the|my)\b`)
	personalDataPattern        = regexp.MustCompile(`\bmy\s+(?:day|time|stats|data|history|events|activities)\b`)
)

// Strong action patterns.
var (
	logVerbPattern    = regexp.MustCompile(`^(?:log|record|track|add|note)\b`)
	finishedPattern   = regexp.MustCompile(`^i\s+(?:just\s+)?(?:finished|completed|did)\s+\S`)
	workedOnPattern   = regexp.MustCompile(`^i\s+(?:just\s+)?(?:worked\s+on|started)\s+\S`)
	spentPattern      = regexp.MustCompile(`^(?:i\s+)?(?:just\s+)?spent\s+\S`)
	prefixFormPattern = regexp.MustCompile(`^(?:i\s+(?:did|finished|completed|started|worked|spent)|just\s+(?:did|finished|completed|started))\b`)
)

// trailingPunctPattern trims "log:" or "note," down to the bare keyword.
var trailingPunctPattern = regexp.MustCompile(`[^\p{L}\p{N}]+$`)

// requestRules is the intent decision table. Rejection comes first so that
// "log my mood?" is never read as a command.
var requestRules = []rule[string, bool]{
	{
		name: RequestRuleReject,
		apply: func(s string) (bool, bool) {
			return false, anyPattern(s, interrogativeOpenerPattern, trailingQuestionPattern, politeQuestionPattern, personalDataPattern)
		},
	},
	{
		name: RequestRuleStrongAction,
		apply: func(s string) (bool, bool) {
			return true, anyPattern(s, logVerbPattern, finishedPattern, workedOnPattern, spentPattern)
		},
	},
	{
		name: RequestRulePrimaryKeyword,
		apply: func(s string) (bool, bool) {
			fields := strings.Fields(s)
			if len(fields) == 0 {
				return true, false
			}
			first := trailingPunctPattern.ReplaceAllString(fields[0], "")
			return true, slices.Contains(primaryKeywords, first)
		},
	},
	{
		name: RequestRulePrefixForm,
		apply: func(s string) (bool, bool) {
			return true, prefixFormPattern.MatchString(s)
		},
	},
}

// IsLogRequest reports whether message is a logging command rather than a
// question or query.
func IsLogRequest(message string) bool {
	_, verdict := MatchRequestRule(message)
	return verdict
}

// MatchRequestRule returns the name of the rule that decided message and
// its verdict. An empty name means no rule matched and the verdict is false.
func MatchRequestRule(message string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(message))
	verdict, name, ok := firstMatch(requestRules, normalized)
	if !ok {
		return "", false
	}
	return name, verdict
}

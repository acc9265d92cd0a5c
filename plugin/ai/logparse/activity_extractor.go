package logparse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// actionPrefixes are tried in order; only the first hit is stripped.
var actionPrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(?:log|record|track|add|note)\b(?:\s+that\b)?[\s:,-]*`),
	regexp.MustCompile(`(?i)^i\s+(?:just\s+)?(?:did|finished|completed|started|worked\s+on)\b\s*`),
	regexp.MustCompile(`(?i)^(?:i\s+)?(?:just\s+)?spent\s+(?:(?:some\s+)?time|` + durationSpanExpr + `)\s+(?:on|doing)\b\s*`),
	regexp.MustCompile(`(?i)^(?:i\s+)?was\s+doing\b\s*`),
	regexp.MustCompile(`(?i)^(?:i\s+)?(?:just\s+)?spent\b\s*`),
	regexp.MustCompile(`(?i)^just\s+(?:did|finished|completed|started)\b\s*`),
	regexp.MustCompile(`(?i)^i\s+(?:just\s+)?worked\b\s*`),
}

var prefixRules = buildPrefixRules()

func buildPrefixRules() []rule[string, string] {
	rules := make([]rule[string, string], 0, len(actionPrefixes))
	for _, re := range actionPrefixes {
		re := re // per-iteration copy; module targets go 1.21 loop semantics
		rules = append(rules, rule[string, string]{
			name: re.String(),
			apply: func(s string) (string, bool) {
				loc := re.FindStringIndex(s)
				if loc == nil {
					return s, false
				}
				return s[loc[1]:], true
			},
		})
	}
	return rules
}

// ExtractActivity returns a clean activity title for message, with the
// action prefix and every time or duration phrase removed. It returns false
// when nothing is left.
func ExtractActivity(message string) (string, bool) {
	text := strings.TrimSpace(message)
	if stripped, _, ok := firstMatch(prefixRules, text); ok {
		text = stripped
	}

	for _, re := range timePhrasePatterns() {
		text = re.ReplaceAllString(text, " ")
	}

	text = strings.Join(strings.Fields(text), " ")
	text = strings.TrimLeftFunc(text, isTitleSeparator)
	text = strings.TrimRightFunc(text, func(r rune) bool {
		return isTitleSeparator(r) && !closesBracket(text, r)
	})
	if text == "" {
		return "", false
	}
	return capitalize(text), true
}

func isTitleSeparator(r rune) bool {
	return unicode.IsSpace(r) || unicode.IsPunct(r) || r == '-'
}

// closingBrackets maps a closing bracket to its opener.
var closingBrackets = map[rune]rune{')': '(', ']': '[', '}': '{'}

// closesBracket reports whether r closes a bracket opened in text.
func closesBracket(text string, r rune) bool {
	open, ok := closingBrackets[r]
	return ok && strings.ContainsRune(text, open)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

package logparse

import "strings"

// Confidence thresholds on the winning score.
const (
	highScoreThreshold   = 10
	highMarginThreshold  = 5
	mediumScoreThreshold = 5
)

// categoryKeywords are the fixed vocabularies. Every keyword found in a
// title adds its length to the category score, so longer and more specific
// terms weigh more.
var categoryKeywords = map[Category][]string{
	CategoryProd: {
		"work", "working", "coding", "code", "programming", "debugging",
		"meeting", "interview", "email", "report", "presentation", "project",
		"planning", "design", "review", "research", "study", "studying",
		"homework", "class", "lecture", "learning", "reading", "writing",
		"practice", "gym", "workout", "exercise", "running",
	},
	CategoryNonProd: {
		"netflix", "youtube", "tv", "watching", "movie", "binge",
		"gaming", "games", "video games", "social media", "scrolling",
		"browsing", "instagram", "tiktok", "twitter", "reddit", "facebook",
		"procrastinating",
	},
	CategoryAdmin: {
		"sleep", "sleeping", "nap", "rest", "resting", "relaxing",
		"meditation", "break", "breakfast", "lunch", "dinner", "eating",
		"cooking", "shower", "commute", "commuting", "chores", "cleaning",
		"laundry", "groceries", "errands", "doctor",
	},
}

// InferCategory scores title against the keyword vocabularies. A title
// with no matches defaults to prod with low confidence.
func InferCategory(title string) CategoryScore {
	lower := strings.ToLower(title)

	scores := make(map[Category]int, len(Categories))
	for _, category := range Categories {
		score := 0
		for _, keyword := range categoryKeywords[category] {
			if strings.Contains(lower, keyword) {
				score += len(keyword)
			}
		}
		scores[category] = score
	}

	winner, runnerUp := rankScores(scores)
	top := scores[winner]

	var confidence Confidence
	switch {
	case top == 0:
		return CategoryScore{Category: CategoryProd, Confidence: ConfidenceLow, Scores: scores}
	case top >= highScoreThreshold && top-runnerUp >= highMarginThreshold:
		confidence = ConfidenceHigh
	case top >= mediumScoreThreshold:
		confidence = ConfidenceMedium
	default:
		confidence = ConfidenceLow
	}
	return CategoryScore{Category: winner, Confidence: confidence, Scores: scores}
}

// rankScores returns the winning category and the runner-up score. Ties go
// to the category listed first in Categories.
func rankScores(scores map[Category]int) (Category, int) {
	winner := Categories[0]
	for _, c := range Categories[1:] {
		if scores[c] > scores[winner] {
			winner = c
		}
	}
	runnerUp := 0
	for _, c := range Categories {
		if c != winner && scores[c] > runnerUp {
			runnerUp = scores[c]
		}
	}
	return winner, runnerUp
}

// Package logparse provides the deterministic layer of the activity-logging
// router. It turns free-text messages such as "log coding from 9am to 11am"
// into structured log entries, and decides when a message has to be handed to
// the LLM interpreter instead.
//
// Every function in this package is pure: the current time is passed in by
// the caller and no state is kept between calls.
package logparse

import "time"

// Category is the productivity category of a logged activity.
type Category string

const (
	CategoryProd    Category = "prod"
	CategoryNonProd Category = "nonprod"
	CategoryAdmin   Category = "admin"
)

// Categories lists every category in tie-break order.
var Categories = []Category{CategoryProd, CategoryNonProd, CategoryAdmin}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryProd, CategoryNonProd, CategoryAdmin:
		return true
	}
	return false
}

// Confidence is the certainty band attached to a category inference.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// TimeSource names the time-resolution rule that produced a start/end pair.
type TimeSource string

const (
	SourceExplicitRange         TimeSource = "explicit_range"
	SourceStartPlusDuration     TimeSource = "start_plus_duration"
	SourceEndMinusDuration      TimeSource = "end_minus_duration"
	SourceLastEventPlusDuration TimeSource = "last_event_plus_duration"
	SourceCurrentMinusDuration  TimeSource = "current_minus_duration"
	SourceStartToNow            TimeSource = "start_to_now"
	SourceLastEventToEnd        TimeSource = "last_event_to_end"
	SourceUnknownToEnd          TimeSource = "unknown_to_end"
	SourceLastEventToNow        TimeSource = "last_event_to_now"
	SourceEndOnly               TimeSource = "end_only"
)

// FallbackReason explains why a message was handed to the LLM tier.
// The empty value means no fallback.
type FallbackReason string

const (
	ReasonNotLogRequest   FallbackReason = "not_log_request"
	ReasonNoActivityFound FallbackReason = "no_activity_found"
)

// LogRequest is the input of a single parse.
type LogRequest struct {
	Message          string
	LastEventEndTime *time.Time
	CurrentTime      time.Time
	// UTCOffsetMinutes is added to UTC to get the user's wall clock.
	// Nil means UTC.
	UTCOffsetMinutes *int
}

// LogData is a fully structured log entry.
type LogData struct {
	Title              string     `json:"title"`
	Category           Category   `json:"category"`
	CategoryConfidence Confidence `json:"categoryConfidence"`
	StartTime          *time.Time `json:"startTime"`
	EndTime            *time.Time `json:"endTime"`
	TimeSource         TimeSource `json:"timeSource"`
}

// Duration returns the length of the entry, or zero when either end is unresolved.
func (d *LogData) Duration() time.Duration {
	if d == nil || d.StartTime == nil || d.EndTime == nil {
		return 0
	}
	return d.EndTime.Sub(*d.StartTime)
}

// ParseOutcome is the result of the pattern tier.
type ParseOutcome struct {
	Success  bool
	NeedsLLM bool
	Reason   FallbackReason
	Data     *LogData
}

// CategoryScore is the result of keyword-based category inference.
type CategoryScore struct {
	Category   Category
	Confidence Confidence
	Scores     map[Category]int
}

// TimeContext carries what the time resolver needs besides the message.
type TimeContext struct {
	LastEventEndTime *time.Time
	CurrentTime      time.Time
	UTCOffsetMinutes int
}

// TimeInfo is a resolved start/end pair. Either end may be nil when the
// message does not carry enough information; callers must treat nil as
// unresolved rather than guess.
type TimeInfo struct {
	StartTime *time.Time
	EndTime   *time.Time
	Source    TimeSource
}

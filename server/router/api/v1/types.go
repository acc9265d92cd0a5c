package v1

import (
	"time"

	"github.com/hrygo/chronolog/plugin/ai/logparse"
	"github.com/hrygo/chronolog/plugin/ai/router"
	"github.com/hrygo/chronolog/server/service/timelog"
	"github.com/hrygo/chronolog/store"
)

// LogEntry is the wire form of a stored entry.
type LogEntry struct {
	UID             string     `json:"uid"`
	Title           string     `json:"title"`
	Category        string     `json:"category"`
	Calendar        string     `json:"calendar"`
	Confidence      string     `json:"confidence"`
	StartTime       *time.Time `json:"startTime"`
	EndTime         time.Time  `json:"endTime"`
	DurationMinutes int64      `json:"durationMinutes"`
	TimeSource      string     `json:"timeSource"`
	Tier            int        `json:"tier"`
	Message         string     `json:"message,omitempty"`
	CreateTime      time.Time  `json:"createTime"`
}

func convertLogEntryFromStore(e *store.LogEntry) *LogEntry {
	return &LogEntry{
		UID:             e.UID,
		Title:           e.Title,
		Category:        e.Category,
		Calendar:        e.Calendar,
		Confidence:      e.Confidence,
		StartTime:       e.StartTime(),
		EndTime:         e.EndTime(),
		DurationMinutes: int64(e.Duration() / time.Minute),
		TimeSource:      e.TimeSource,
		Tier:            e.Tier,
		Message:         e.Message,
		CreateTime:      time.Unix(e.CreatedTs, 0).UTC(),
	}
}

// ParseLogRequest is the body of POST /api/v1/logs/parse.
type ParseLogRequest struct {
	Message string `json:"message"`
	// UTCOffsetMinutes wins over Timezone.
	UTCOffsetMinutes *int       `json:"utcOffsetMinutes"`
	Timezone         string     `json:"timezone"`
	CurrentTime      *time.Time `json:"currentTime"`
	LastEventEndTime *time.Time `json:"lastEventEndTime"`
	DryRun           bool       `json:"dryRun"`
}

// Interpretation is the wire form of an LLM interpretation.
type Interpretation struct {
	IsLogRequest bool              `json:"isLogRequest"`
	Reasoning    string            `json:"reasoning,omitempty"`
	Data         *logparse.LogData `json:"data,omitempty"`
}

// ParseLogResponse is the response of POST /api/v1/logs/parse.
type ParseLogResponse struct {
	Status           timelog.Status       `json:"status"`
	Route            logparse.RouteResult `json:"route"`
	Interpretation   *Interpretation      `json:"interpretation,omitempty"`
	Data             *logparse.LogData    `json:"data,omitempty"`
	Entry            *LogEntry            `json:"entry,omitempty"`
	Choices          []logparse.Category  `json:"choices,omitempty"`
	UTCOffsetMinutes int                  `json:"utcOffsetMinutes"`
	LastEventEndTime *time.Time           `json:"lastEventEndTime"`
}

func convertParseResponse(resp *timelog.ParseResponse) *ParseLogResponse {
	out := &ParseLogResponse{
		Status:           resp.Status,
		Route:            resp.Route,
		Data:             resp.Data,
		Choices:          resp.Choices,
		UTCOffsetMinutes: resp.UTCOffsetMinutes,
		LastEventEndTime: resp.LastEventEndTime,
	}
	if resp.Interpretation != nil {
		out.Interpretation = convertInterpretation(resp.Interpretation)
	}
	if resp.Entry != nil {
		out.Entry = convertLogEntryFromStore(resp.Entry)
	}
	return out
}

func convertInterpretation(i *router.Interpretation) *Interpretation {
	return &Interpretation{
		IsLogRequest: i.IsLogRequest,
		Reasoning:    i.Reasoning,
		Data:         i.Data,
	}
}

// CreateLogRequest is the body of POST /api/v1/logs.
type CreateLogRequest struct {
	Title      string              `json:"title"`
	Category   logparse.Category   `json:"category"`
	StartTime  *time.Time          `json:"startTime"`
	EndTime    *time.Time          `json:"endTime"`
	TimeSource logparse.TimeSource `json:"timeSource"`
	Tier       int                 `json:"tier"`
	Message    string              `json:"message"`
}

// ListLogsResponse is the response of GET /api/v1/logs.
type ListLogsResponse struct {
	Entries []*LogEntry `json:"entries"`
}

// SummaryResponse is the JSON response of GET /api/v1/logs/summary.
type SummaryResponse struct {
	Date         string            `json:"date"`
	Minutes      map[string]int64  `json:"minutes"`
	Calendars    map[string]string `json:"calendars"`
	TotalMinutes int64             `json:"totalMinutes"`
	Entries      int               `json:"entries"`
	Unresolved   int               `json:"unresolved"`
	StreakDays   int               `json:"streakDays"`
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

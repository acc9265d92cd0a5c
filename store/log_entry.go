package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"
)

// LogEntry is a persisted activity log entry. Timestamps are unix seconds.
type LogEntry struct {
	ID        int32
	UID       string
	CreatorID int32
	CreatedTs int64

	Calendar   string
	Title      string
	Category   string
	Confidence string
	// StartTs is nil when the start could not be resolved.
	StartTs    *int64
	EndTs      int64
	TimeSource string
	// Tier is 1 for pattern-parsed entries and 2 for LLM-interpreted ones.
	Tier    int
	Message string
}

// FindLogEntry is the find condition for log entries.
type FindLogEntry struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	Category  *string
	Calendars []string

	// EndTs range, both bounds inclusive.
	EndTsAfter  *int64
	EndTsBefore *int64

	// OrderByEndDesc returns the latest entries first.
	OrderByEndDesc bool

	// Pagination
	Limit  *int
	Offset *int
}

// DeleteLogEntry is the delete request for log entry.
type DeleteLogEntry struct {
	ID int32
}

// ErrLogEntryNotFound is returned when a delete matches nothing.
var ErrLogEntryNotFound = errors.New("log entry not found")

// StartTime returns the entry start, or nil when unresolved.
func (e *LogEntry) StartTime() *time.Time {
	if e.StartTs == nil {
		return nil
	}
	t := time.Unix(*e.StartTs, 0).UTC()
	return &t
}

// EndTime returns the entry end.
func (e *LogEntry) EndTime() time.Time {
	return time.Unix(e.EndTs, 0).UTC()
}

// Duration returns the entry length, or zero when the start is unresolved.
func (e *LogEntry) Duration() time.Duration {
	if e.StartTs == nil {
		return 0
	}
	return time.Duration(e.EndTs-*e.StartTs) * time.Second
}

// CreateLogEntry assigns a UID when missing and persists the entry.
func (s *Store) CreateLogEntry(ctx context.Context, create *LogEntry) (*LogEntry, error) {
	if create.UID == "" {
		create.UID = shortuuid.New()
	}
	if create.CreatedTs == 0 {
		create.CreatedTs = time.Now().Unix()
	}
	return s.driver.CreateLogEntry(ctx, create)
}

// ListLogEntries lists log entries with filter.
func (s *Store) ListLogEntries(ctx context.Context, find *FindLogEntry) ([]*LogEntry, error) {
	return s.driver.ListLogEntries(ctx, find)
}

// GetLogEntry returns the first matching entry, or nil.
func (s *Store) GetLogEntry(ctx context.Context, find *FindLogEntry) (*LogEntry, error) {
	list, err := s.driver.ListLogEntries(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// DeleteLogEntry deletes a log entry.
func (s *Store) DeleteLogEntry(ctx context.Context, delete *DeleteLogEntry) error {
	return s.driver.DeleteLogEntry(ctx, delete)
}

// LastEventEndTime returns the latest end time among the creator's entries
// in calendars that ended today (in the offset's local day) and not after now.
// It returns nil when there is no such entry.
func (s *Store) LastEventEndTime(ctx context.Context, creatorID int32, calendars []string, now time.Time, offsetMinutes int) (*time.Time, error) {
	local := now.UTC().Add(time.Duration(offsetMinutes) * time.Minute)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC).
		Add(-time.Duration(offsetMinutes) * time.Minute)

	after, before, limit := midnight.Unix(), now.Unix(), 1
	entry, err := s.GetLogEntry(ctx, &FindLogEntry{
		CreatorID:      &creatorID,
		Calendars:      calendars,
		EndTsAfter:     &after,
		EndTsBefore:    &before,
		OrderByEndDesc: true,
		Limit:          &limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to find last event")
	}
	if entry == nil {
		return nil, nil
	}
	end := entry.EndTime()
	return &end, nil
}

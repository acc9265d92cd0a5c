// Package timelog is the activity-logging service: it resolves the request
// clock and timezone, looks up the last logged event, routes the message and
// persists what it can.
package timelog

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/hrygo/chronolog/internal/profile"
	"github.com/hrygo/chronolog/plugin/ai/cache"
	"github.com/hrygo/chronolog/plugin/ai/logparse"
	"github.com/hrygo/chronolog/plugin/ai/router"
	"github.com/hrygo/chronolog/plugin/filter"
	apperrors "github.com/hrygo/chronolog/server/internal/errors"
	"github.com/hrygo/chronolog/server/internal/observability"
	"github.com/hrygo/chronolog/server/stats"
	"github.com/hrygo/chronolog/server/timezone"
	"github.com/hrygo/chronolog/store"
)

// MaxMessageLength bounds an incoming message.
const MaxMessageLength = 1000

// Status is the outcome of a parse request.
type Status string

const (
	// StatusLogged means the entry was stored.
	StatusLogged Status = "logged"
	// StatusParsed means the entry was parsed but not stored (dry run).
	StatusParsed Status = "parsed"
	// StatusNeedsConfirmation means the category is uncertain; the caller
	// should pick one of Choices and create the entry explicitly.
	StatusNeedsConfirmation Status = "needs_confirmation"
	// StatusNeedsLLM means the message needs tier 2 and no LLM is configured.
	StatusNeedsLLM Status = "needs_llm"
	// StatusNotLogRequest means the LLM decided the message is not a log request.
	StatusNotLogRequest Status = "not_log_request"
)

// ParseRequest is a natural-language log request.
type ParseRequest struct {
	CreatorID int32
	Message   string

	// UTCOffsetMinutes wins over Timezone; both default to the configured zone.
	UTCOffsetMinutes *int
	Timezone         string

	// CurrentTime defaults to the wall clock.
	CurrentTime *time.Time
	// LastEventEndTime overrides the store lookup.
	LastEventEndTime *time.Time

	DryRun bool
}

// ParseResponse is the outcome of a parse request.
type ParseResponse struct {
	Status           Status
	Route            logparse.RouteResult
	Interpretation   *router.Interpretation
	Entry            *store.LogEntry
	Data             *logparse.LogData
	Choices          []logparse.Category
	UTCOffsetMinutes int
	LastEventEndTime *time.Time
}

// Service implements the activity-logging operations.
type Service struct {
	store     *store.Store
	router    router.RouterService
	profile   *profile.Profile
	collector *stats.Collector
	metrics   *observability.Metrics
	now       func() time.Time
}

// NewService creates a new timelog service.
func NewService(st *store.Store, rt router.RouterService, p *profile.Profile, metrics *observability.Metrics) *Service {
	if metrics == nil {
		metrics = observability.GlobalMetrics()
	}
	return &Service{
		store:     st,
		router:    rt,
		profile:   p,
		collector: stats.NewCollector(st, p.Calendars()),
		metrics:   metrics,
		now:       time.Now,
	}
}

// Metrics returns the service's metrics collector.
func (s *Service) Metrics() *observability.Metrics {
	return s.metrics
}

// cacheReporter is implemented by routers that cache interpretations.
type cacheReporter interface {
	CacheStats() (cache.Stats, bool)
}

// CacheStats reports the router's interpretation cache usage, if it has one.
func (s *Service) CacheStats() (cache.Stats, bool) {
	if r, ok := s.router.(cacheReporter); ok {
		return r.CacheStats()
	}
	return cache.Stats{}, false
}

// calendars returns the configured calendar names in category order.
func (s *Service) calendars() []string {
	byCategory := s.profile.Calendars()
	names := make([]string, 0, len(logparse.Categories))
	for _, c := range logparse.Categories {
		names = append(names, byCategory[string(c)])
	}
	return names
}

// CalendarFor maps a category to its configured calendar.
func (s *Service) CalendarFor(c logparse.Category) string {
	return s.profile.Calendars()[string(c)]
}

// ParseLog routes a message and persists the result when it is certain enough.
func (s *Service) ParseLog(ctx context.Context, req *ParseRequest) (*ParseResponse, error) {
	start := time.Now()
	logger := observability.LoggerFromContext(ctx)

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, apperrors.InvalidArgument("message is required")
	}
	if len(message) > MaxMessageLength {
		return nil, apperrors.InvalidArgumentf("message longer than %d bytes", MaxMessageLength)
	}

	now := s.now().UTC()
	if req.CurrentTime != nil {
		now = req.CurrentTime.UTC()
	}
	offset, err := timezone.ResolveOffset(req.UTCOffsetMinutes, req.Timezone, s.profile.DefaultTimezone, now)
	if err != nil {
		return nil, apperrors.InvalidArgument(err.Error())
	}

	lastEnd := req.LastEventEndTime
	if lastEnd == nil {
		lastEnd, err = s.store.LastEventEndTime(ctx, req.CreatorID, s.calendars(), now, offset)
		if err != nil {
			s.metrics.RecordFailure()
			return nil, apperrors.Internal("failed to look up last event", err)
		}
	}

	decision, routeErr := s.router.Route(ctx, message, logparse.RouteContext{
		LastEventEndTime: lastEnd,
		CurrentTime:      &now,
		UTCOffsetMinutes: &offset,
	})
	result := decision.Result
	s.metrics.RecordRoute(result.Tier, string(result.Reason), time.Since(start))
	var appErr *apperrors.AppError
	if routeErr != nil {
		appErr = apperrors.Wrap(routeErr, apperrors.ErrCodeLLMUnavailable, "failed to interpret message")
	}
	// A caller that went away says nothing about the LLM.
	if result.IsFallback() && (decision.Interpretation != nil || (appErr != nil && !apperrors.IsCode(appErr, apperrors.ErrCodeContextCanceled))) {
		s.metrics.RecordLLMCall(decision.Cached, routeErr)
	}
	if appErr != nil {
		s.metrics.RecordFailure()
		return nil, appErr
	}

	resp := &ParseResponse{
		Route:            result,
		Interpretation:   decision.Interpretation,
		UTCOffsetMinutes: offset,
		LastEventEndTime: lastEnd,
	}

	tier := logparse.TierPattern
	switch {
	case !result.IsFallback():
		resp.Data = result.Outcome.Data
	case decision.Interpretation == nil:
		resp.Status = StatusNeedsLLM
		logger.Debug("log request needs tier 2", "reason", result.Reason)
		return resp, nil
	case !decision.Interpretation.IsLogRequest:
		resp.Status = StatusNotLogRequest
		return resp, nil
	default:
		tier = logparse.TierLLM
		resp.Data = decision.Interpretation.Data
	}

	if resp.Data.CategoryConfidence == logparse.ConfidenceLow {
		resp.Status = StatusNeedsConfirmation
		resp.Choices = logparse.Categories
		return resp, nil
	}
	if req.DryRun {
		resp.Status = StatusParsed
		return resp, nil
	}

	entry, err := s.store.CreateLogEntry(ctx, s.entryFromData(req.CreatorID, message, tier, resp.Data, now))
	if err != nil {
		s.metrics.RecordFailure()
		return nil, apperrors.Internal("failed to store log entry", err)
	}
	s.metrics.RecordPersisted()
	resp.Status = StatusLogged
	resp.Entry = entry

	logger.Info("activity logged",
		slog.String("uid", entry.UID),
		slog.Int(observability.LogFieldTier, tier),
		slog.String("category", entry.Category),
		slog.String("time_source", entry.TimeSource),
		slog.Int64(observability.LogFieldDuration, time.Since(start).Milliseconds()))
	return resp, nil
}

func (s *Service) entryFromData(creatorID int32, message string, tier int, data *logparse.LogData, now time.Time) *store.LogEntry {
	end := now
	if data.EndTime != nil {
		end = *data.EndTime
	}
	entry := &store.LogEntry{
		CreatorID:  creatorID,
		Calendar:   s.CalendarFor(data.Category),
		Title:      data.Title,
		Category:   string(data.Category),
		Confidence: string(data.CategoryConfidence),
		EndTs:      end.Unix(),
		TimeSource: string(data.TimeSource),
		Tier:       tier,
		Message:    message,
	}
	if data.StartTime != nil {
		startTs := data.StartTime.Unix()
		entry.StartTs = &startTs
	}
	return entry
}

// CreateRequest is an explicit entry, typically a confirmed category choice.
type CreateRequest struct {
	CreatorID  int32
	Title      string
	Category   logparse.Category
	StartTime  *time.Time
	EndTime    *time.Time
	TimeSource logparse.TimeSource
	Tier       int
	Message    string
}

// CreateEntry stores an explicit entry. The category is user-confirmed, so
// its confidence is high.
func (s *Service) CreateEntry(ctx context.Context, req *CreateRequest) (*store.LogEntry, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperrors.InvalidArgument("title is required")
	}
	if !req.Category.Valid() {
		return nil, apperrors.InvalidArgumentf("unknown category %q", req.Category)
	}
	if req.Tier != logparse.TierPattern && req.Tier != logparse.TierLLM {
		req.Tier = logparse.TierPattern
	}
	source := req.TimeSource
	if source == "" {
		source = logparse.SourceEndOnly
	}

	data := &logparse.LogData{
		Title:              title,
		Category:           req.Category,
		CategoryConfidence: logparse.ConfidenceHigh,
		StartTime:          req.StartTime,
		EndTime:            req.EndTime,
		TimeSource:         source,
	}
	entry, err := s.store.CreateLogEntry(ctx, s.entryFromData(req.CreatorID, req.Message, req.Tier, data, s.now().UTC()))
	if err != nil {
		return nil, apperrors.Internal("failed to store log entry", err)
	}
	s.metrics.RecordPersisted()
	return entry, nil
}

// ListRequest selects entries of one creator.
type ListRequest struct {
	CreatorID int32
	Category  string
	// Filter is an optional CEL expression, see package filter.
	Filter string
	// EndTs bounds, inclusive.
	From, To *time.Time
	Limit    int
	Offset   int
}

// ListEntries returns the creator's entries, newest first.
func (s *Service) ListEntries(ctx context.Context, req *ListRequest) ([]*store.LogEntry, error) {
	var f *filter.Filter
	if req.Filter != "" {
		var err error
		if f, err = filter.Compile(req.Filter); err != nil {
			return nil, apperrors.InvalidArgument(err.Error())
		}
	}
	if req.Category != "" && !logparse.Category(req.Category).Valid() {
		return nil, apperrors.InvalidArgumentf("unknown category %q", req.Category)
	}

	find := &store.FindLogEntry{
		CreatorID:      &req.CreatorID,
		OrderByEndDesc: true,
	}
	if req.Category != "" {
		find.Category = &req.Category
	}
	if req.From != nil {
		from := req.From.Unix()
		find.EndTsAfter = &from
	}
	if req.To != nil {
		to := req.To.Unix()
		find.EndTsBefore = &to
	}
	// The CEL filter runs after the query, so pagination must too.
	if f == nil {
		if req.Limit > 0 {
			find.Limit = &req.Limit
		}
		if req.Offset > 0 {
			find.Offset = &req.Offset
		}
	}

	entries, err := s.store.ListLogEntries(ctx, find)
	if err != nil {
		return nil, apperrors.Internal("failed to list log entries", err)
	}
	if f == nil {
		return entries, nil
	}

	entries, err = f.Apply(entries)
	if err != nil {
		return nil, apperrors.InvalidArgument(err.Error())
	}
	return paginate(entries, req.Offset, req.Limit), nil
}

func paginate(entries []*store.LogEntry, offset, limit int) []*store.LogEntry {
	if offset >= len(entries) {
		return []*store.LogEntry{}
	}
	if offset > 0 {
		entries = entries[offset:]
	}
	if limit > 0 && limit < len(entries) {
		entries = entries[:limit]
	}
	return entries
}

// GetEntry returns the creator's entry with uid.
func (s *Service) GetEntry(ctx context.Context, creatorID int32, uid string) (*store.LogEntry, error) {
	entry, err := s.store.GetLogEntry(ctx, &store.FindLogEntry{UID: &uid, CreatorID: &creatorID})
	if err != nil {
		return nil, apperrors.Internal("failed to get log entry", err)
	}
	if entry == nil {
		return nil, apperrors.NotFound("log entry not found").WithContext("uid", uid)
	}
	return entry, nil
}

// DeleteEntry deletes the creator's entry with uid.
func (s *Service) DeleteEntry(ctx context.Context, creatorID int32, uid string) error {
	entry, err := s.GetEntry(ctx, creatorID, uid)
	if err != nil {
		return err
	}
	if err := s.store.DeleteLogEntry(ctx, &store.DeleteLogEntry{ID: entry.ID}); err != nil {
		return apperrors.Internal("failed to delete log entry", err)
	}
	return nil
}

// Summary returns the per-category summary of a local date (2006-01-02) in
// tz. An empty date means today.
func (s *Service) Summary(ctx context.Context, creatorID int32, date string, tz string) (*stats.Summary, error) {
	if tz == "" {
		tz = s.profile.DefaultTimezone
	}
	loc, err := timezone.ParseTimezone(tz)
	if err != nil {
		return nil, apperrors.InvalidArgument(err.Error())
	}

	day := s.now().In(loc)
	if date != "" {
		d, err := time.ParseInLocation("2006-01-02", date, loc)
		if err != nil {
			return nil, apperrors.InvalidArgumentf("invalid date %q", date)
		}
		day = d
	}

	summary, err := s.collector.DailySummary(ctx, creatorID, day, loc)
	if err != nil {
		return nil, apperrors.Internal("failed to build summary", err)
	}
	return summary, nil
}

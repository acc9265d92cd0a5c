package v1

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/chronolog/server/internal/errors"
	"github.com/hrygo/chronolog/server/middleware"
	"github.com/hrygo/chronolog/server/service/timelog"
)

// maxPageSize bounds GET /api/v1/logs.
const maxPageSize = 500

func currentUserID(c echo.Context) (int32, error) {
	userID, ok := middleware.UserIDFromContext(c.Request().Context())
	if !ok {
		return 0, apperrors.Unauthorized("authentication required")
	}
	return userID, nil
}

// ParseLog parses a natural-language log request and stores the entry.
// POST /api/v1/logs/parse
func (s *APIV1Service) ParseLog(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req ParseLogRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.InvalidArgument("invalid request body")
	}

	resp, err := s.TimeLog.ParseLog(c.Request().Context(), &timelog.ParseRequest{
		CreatorID:        userID,
		Message:          req.Message,
		UTCOffsetMinutes: req.UTCOffsetMinutes,
		Timezone:         req.Timezone,
		CurrentTime:      req.CurrentTime,
		LastEventEndTime: req.LastEventEndTime,
		DryRun:           req.DryRun,
	})
	if err != nil {
		return err
	}

	status := http.StatusOK
	if resp.Status == timelog.StatusLogged {
		status = http.StatusCreated
	}
	return c.JSON(status, convertParseResponse(resp))
}

// CreateLog stores an explicit entry, e.g. after the user picked a category.
// POST /api/v1/logs
func (s *APIV1Service) CreateLog(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req CreateLogRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.InvalidArgument("invalid request body")
	}

	entry, err := s.TimeLog.CreateEntry(c.Request().Context(), &timelog.CreateRequest{
		CreatorID:  userID,
		Title:      req.Title,
		Category:   req.Category,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		TimeSource: req.TimeSource,
		Tier:       req.Tier,
		Message:    req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, convertLogEntryFromStore(entry))
}

// ListLogs lists the caller's entries, newest first.
// GET /api/v1/logs?category=prod&filter=minutes>30&from=...&to=...&limit=50&offset=0
func (s *APIV1Service) ListLogs(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	req := &timelog.ListRequest{
		CreatorID: userID,
		Category:  c.QueryParam("category"),
		Filter:    c.QueryParam("filter"),
	}
	if req.From, err = parseTimeParam(c, "from"); err != nil {
		return err
	}
	if req.To, err = parseTimeParam(c, "to"); err != nil {
		return err
	}
	if req.Limit, err = parseIntParam(c, "limit", 50); err != nil {
		return err
	}
	if req.Limit <= 0 || req.Limit > maxPageSize {
		return apperrors.InvalidArgumentf("limit must be between 1 and %d", maxPageSize)
	}
	if req.Offset, err = parseIntParam(c, "offset", 0); err != nil {
		return err
	}

	entries, err := s.TimeLog.ListEntries(c.Request().Context(), req)
	if err != nil {
		return err
	}
	resp := &ListLogsResponse{Entries: make([]*LogEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, convertLogEntryFromStore(e))
	}
	return c.JSON(http.StatusOK, resp)
}

// GetLog returns one entry.
// GET /api/v1/logs/:uid
func (s *APIV1Service) GetLog(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	entry, err := s.TimeLog.GetEntry(c.Request().Context(), userID, c.Param("uid"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convertLogEntryFromStore(entry))
}

// DeleteLog deletes one entry.
// DELETE /api/v1/logs/:uid
func (s *APIV1Service) DeleteLog(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := s.TimeLog.DeleteEntry(c.Request().Context(), userID, c.Param("uid")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// GetLogSummary returns the per-category summary of a local day.
// GET /api/v1/logs/summary?date=2024-03-15&timezone=Asia/Shanghai&format=json|markdown|html
func (s *APIV1Service) GetLogSummary(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	summary, err := s.TimeLog.Summary(c.Request().Context(), userID, c.QueryParam("date"), c.QueryParam("timezone"))
	if err != nil {
		return err
	}

	switch c.QueryParam("format") {
	case "markdown":
		return c.Blob(http.StatusOK, "text/markdown; charset=utf-8", []byte(summary.Markdown()))
	case "html":
		html, err := summary.HTML()
		if err != nil {
			return apperrors.Internal("failed to render summary", err)
		}
		return c.HTML(http.StatusOK, html)
	case "", "json":
	default:
		return apperrors.InvalidArgumentf("unknown format %q", c.QueryParam("format"))
	}

	resp := &SummaryResponse{
		Date:         summary.Date,
		Minutes:      make(map[string]int64, len(summary.Minutes)),
		Calendars:    summary.Calendars,
		TotalMinutes: summary.TotalMinutes(),
		Entries:      summary.Entries,
		Unresolved:   summary.Unresolved,
		StreakDays:   summary.StreakDays,
	}
	for category, minutes := range summary.Minutes {
		resp.Minutes[string(category)] = minutes
	}
	return c.JSON(http.StatusOK, resp)
}

func parseTimeParam(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, apperrors.InvalidArgumentf("invalid %s %q, want RFC 3339", name, v)
	}
	return &t, nil
}

func parseIntParam(c echo.Context, name string, defaultValue int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, apperrors.InvalidArgumentf("invalid %s %q", name, v)
	}
	return n, nil
}

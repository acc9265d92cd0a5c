package v1

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/labstack/echo/v4"

	apperrors "github.com/hrygo/chronolog/server/internal/errors"
	"github.com/hrygo/chronolog/server/service/timelog"
	"github.com/hrygo/chronolog/server/timezone"
	"github.com/hrygo/chronolog/store"
)

const maxFeedItems = 100

// GetLogFeed returns the caller's recent entries as an Atom feed.
// GET /api/v1/logs/feed?limit=20
func (s *APIV1Service) GetLogFeed(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	limit, err := parseIntParam(c, "limit", 20)
	if err != nil {
		return err
	}
	if limit <= 0 || limit > maxFeedItems {
		limit = maxFeedItems
	}

	entries, err := s.TimeLog.ListEntries(c.Request().Context(), &timelog.ListRequest{CreatorID: userID, Limit: limit})
	if err != nil {
		return err
	}

	atom, err := s.generateAtomFeed(entries, time.Now())
	if err != nil {
		return apperrors.Internal("failed to generate feed", err)
	}
	return c.Blob(http.StatusOK, "application/atom+xml; charset=utf-8", []byte(atom))
}

func (s *APIV1Service) generateAtomFeed(entries []*store.LogEntry, now time.Time) (string, error) {
	baseURL := strings.TrimSuffix(s.Profile.InstanceURL, "/")
	feed := &feeds.Feed{
		Title:       "chronolog",
		Link:        &feeds.Link{Href: baseURL + "/"},
		Description: "Recently logged activities",
		Created:     now,
	}
	if len(entries) > 0 {
		feed.Updated = time.Unix(entries[0].CreatedTs, 0)
	}

	loc, err := timezone.ParseTimezone(s.Profile.DefaultTimezone)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          e.UID,
			Title:       fmt.Sprintf("%s (%s)", e.Title, e.Category),
			Link:        &feeds.Link{Href: fmt.Sprintf("%s/api/v1/logs/%s", baseURL, e.UID)},
			Description: fmt.Sprintf("%s in %s, %d minutes", timezone.FormatEntryTime(e.StartTs, e.EndTs, loc), e.Calendar, int64(e.Duration()/time.Minute)),
			Created:     time.Unix(e.CreatedTs, 0),
			Updated:     e.EndTime(),
		})
	}
	return feed.ToAtom()
}

// Package stats summarises logged time per category for a user's day.
package stats

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/hrygo/chronolog/plugin/ai/logparse"
	"github.com/hrygo/chronolog/server/timezone"
	"github.com/hrygo/chronolog/store"
)

// Summary is the per-category total for one local day.
type Summary struct {
	Date     string // local date, 2006-01-02
	Location *time.Location

	// Minutes per category. Entries without a start are counted in
	// Unresolved and contribute no minutes.
	Minutes    map[logparse.Category]int64
	Entries    int
	Unresolved int
	StreakDays int

	// Calendars maps category to the configured calendar name.
	Calendars map[string]string
	Items     []*store.LogEntry
}

// TotalMinutes returns the minutes logged across all categories.
func (s *Summary) TotalMinutes() int64 {
	var total int64
	for _, m := range s.Minutes {
		total += m
	}
	return total
}

// Collector builds summaries from the store.
type Collector struct {
	store     *store.Store
	calendars map[string]string
}

// NewCollector creates a new statistics collector.
func NewCollector(st *store.Store, calendars map[string]string) *Collector {
	return &Collector{store: st, calendars: calendars}
}

// DailySummary summarises the entries of creatorID that end on day's local date.
func (c *Collector) DailySummary(ctx context.Context, creatorID int32, day time.Time, loc *time.Location) (*Summary, error) {
	if loc == nil {
		loc = timezone.UTC
	}
	from := timezone.StartOfDay(day, loc).Unix()
	to := timezone.EndOfDay(day, loc).Unix()

	entries, err := c.store.ListLogEntries(ctx, &store.FindLogEntry{
		CreatorID:   &creatorID,
		EndTsAfter:  &from,
		EndTsBefore: &to,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list log entries")
	}

	summary := &Summary{
		Date:      day.In(loc).Format("2006-01-02"),
		Location:  loc,
		Minutes:   make(map[logparse.Category]int64, len(logparse.Categories)),
		Entries:   len(entries),
		Calendars: c.calendars,
		Items:     entries,
	}
	for _, category := range logparse.Categories {
		summary.Minutes[category] = 0
	}
	for _, e := range entries {
		if e.StartTs == nil {
			summary.Unresolved++
			continue
		}
		// Inverted ranges are stored as given; they count for nothing here.
		if d := e.Duration(); d > 0 {
			summary.Minutes[logparse.Category(e.Category)] += int64(d / time.Minute)
		}
	}

	streak, err := c.StreakDays(ctx, creatorID, day, loc)
	if err != nil {
		return nil, err
	}
	summary.StreakDays = streak
	return summary, nil
}

// StreakDays counts consecutive local days, ending on day, with at least one entry.
func (c *Collector) StreakDays(ctx context.Context, creatorID int32, day time.Time, loc *time.Location) (int, error) {
	if loc == nil {
		loc = timezone.UTC
	}
	to := timezone.EndOfDay(day, loc)
	// Check up to a year.
	from := timezone.StartOfDay(to.AddDate(0, 0, -365), loc)
	fromTs, toTs := from.Unix(), to.Unix()

	entries, err := c.store.ListLogEntries(ctx, &store.FindLogEntry{
		CreatorID:   &creatorID,
		EndTsAfter:  &fromTs,
		EndTsBefore: &toTs,
	})
	if err != nil {
		return 0, errors.Wrap(err, "failed to list log entries")
	}

	active := make(map[string]bool, len(entries))
	for _, e := range entries {
		active[e.EndTime().In(loc).Format("2006-01-02")] = true
	}

	streak := 0
	for d := to; active[d.Format("2006-01-02")]; d = d.AddDate(0, 0, -1) {
		streak++
	}
	return streak, nil
}

// Markdown renders the summary as a Markdown document.
func (s *Summary) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Time log for %s\n\n", s.Date)

	b.WriteString("| Category | Calendar | Time |\n")
	b.WriteString("|---|---|---:|\n")
	for _, category := range logparse.Categories {
		fmt.Fprintf(&b, "| %s | %s | %s |\n", category, s.Calendars[string(category)], formatMinutes(s.Minutes[category]))
	}
	fmt.Fprintf(&b, "| **total** | | **%s** |\n\n", formatMinutes(s.TotalMinutes()))

	fmt.Fprintf(&b, "%d entries", s.Entries)
	if s.Unresolved > 0 {
		fmt.Fprintf(&b, ", %d without a start time", s.Unresolved)
	}
	fmt.Fprintf(&b, ". Streak: %d days.\n", s.StreakDays)

	if len(s.Items) == 0 {
		return b.String()
	}

	b.WriteString("\n## Entries\n\n")
	items := append([]*store.LogEntry(nil), s.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].EndTs < items[j].EndTs })
	for _, e := range items {
		fmt.Fprintf(&b, "- %s **%s** (%s)\n", timezone.FormatEntryTime(e.StartTs, e.EndTs, s.Location), escapeMarkdown(e.Title), e.Category)
	}
	return b.String()
}

// HTML renders the summary Markdown to HTML.
func (s *Summary) HTML() (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	var buf bytes.Buffer
	if err := md.Convert([]byte(s.Markdown()), &buf); err != nil {
		return "", errors.Wrap(err, "failed to render summary")
	}
	return buf.String(), nil
}

func formatMinutes(m int64) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %02dm", m/60, m%60)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`", `|`, `\|`, `[`, `\[`, `]`, `\]`, `<`, `&lt;`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

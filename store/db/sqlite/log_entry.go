package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/chronolog/store"
)

func (d *DB) CreateLogEntry(ctx context.Context, create *store.LogEntry) (*store.LogEntry, error) {
	fields := []string{
		"uid", "creator_id", "created_ts", "calendar", "title", "category", "confidence",
		"start_ts", "end_ts", "time_source", "tier", "message",
	}
	args := []any{
		create.UID, create.CreatorID, create.CreatedTs, create.Calendar, create.Title, create.Category, create.Confidence,
		create.StartTs, create.EndTs, create.TimeSource, create.Tier, create.Message,
	}

	stmt := `INSERT INTO log_entry (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&create.ID); err != nil {
		return nil, fmt.Errorf("failed to create log entry: %w", err)
	}

	return create, nil
}

func (d *DB) ListLogEntries(ctx context.Context, find *store.FindLogEntry) ([]*store.LogEntry, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "log_entry.id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "log_entry.uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "log_entry.creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Category; v != nil {
		where, args = append(where, "log_entry.category = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(find.Calendars) > 0 {
		holders := make([]string, 0, len(find.Calendars))
		for _, calendar := range find.Calendars {
			holders, args = append(holders, placeholder(len(args)+1)), append(args, calendar)
		}
		where = append(where, "log_entry.calendar IN ("+strings.Join(holders, ", ")+")")
	}
	if v := find.EndTsAfter; v != nil {
		where, args = append(where, "log_entry.end_ts >= "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.EndTsBefore; v != nil {
		where, args = append(where, "log_entry.end_ts <= "+placeholder(len(args)+1)), append(args, *v)
	}

	orderBy := "ORDER BY log_entry.end_ts ASC, log_entry.id ASC"
	if find.OrderByEndDesc {
		orderBy = "ORDER BY log_entry.end_ts DESC, log_entry.id DESC"
	}

	query := `
		SELECT
			id, uid, creator_id, created_ts, calendar, title, category, confidence,
			start_ts, end_ts, time_source, tier, message
		FROM log_entry
		WHERE ` + strings.Join(where, " AND ") + ` ` + orderBy

	if find.Limit != nil {
		query = fmt.Sprintf("%s LIMIT %d", query, *find.Limit)
		if find.Offset != nil {
			query = fmt.Sprintf("%s OFFSET %d", query, *find.Offset)
		}
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()

	list := make([]*store.LogEntry, 0)
	for rows.Next() {
		var entry store.LogEntry
		var startTs sql.NullInt64
		if err := rows.Scan(
			&entry.ID,
			&entry.UID,
			&entry.CreatorID,
			&entry.CreatedTs,
			&entry.Calendar,
			&entry.Title,
			&entry.Category,
			&entry.Confidence,
			&startTs,
			&entry.EndTs,
			&entry.TimeSource,
			&entry.Tier,
			&entry.Message,
		); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		if startTs.Valid {
			entry.StartTs = &startTs.Int64
		}
		list = append(list, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate log entries: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteLogEntry(ctx context.Context, delete *store.DeleteLogEntry) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM log_entry WHERE id = `+placeholder(1), delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete log entry: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return store.ErrLogEntryNotFound
	}

	return nil
}

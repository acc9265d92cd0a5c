package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/chronolog/store"
)

func (d *DB) UpsertSystemSetting(ctx context.Context, upsert *store.SystemSetting) (*store.SystemSetting, error) {
	stmt := `
		INSERT INTO system_setting (name, value) VALUES (` + placeholders(2) + `)
		ON CONFLICT(name) DO UPDATE SET value = EXCLUDED.value`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.Name, upsert.Value); err != nil {
		return nil, fmt.Errorf("failed to upsert system setting: %w", err)
	}
	return upsert, nil
}

func (d *DB) ListSystemSettings(ctx context.Context, find *store.FindSystemSetting) ([]*store.SystemSetting, error) {
	where, args := []string{"1 = 1"}, []any{}
	if find.Name != "" {
		where, args = append(where, "name = "+placeholder(len(args)+1)), append(args, find.Name)
	}

	rows, err := d.db.QueryContext(ctx, `SELECT name, value FROM system_setting WHERE `+strings.Join(where, " AND ")+` ORDER BY name`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list system settings: %w", err)
	}
	defer rows.Close()

	list := make([]*store.SystemSetting, 0)
	for rows.Next() {
		setting := &store.SystemSetting{}
		if err := rows.Scan(&setting.Name, &setting.Value); err != nil {
			return nil, fmt.Errorf("failed to scan system setting: %w", err)
		}
		list = append(list, setting)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate system settings: %w", err)
	}
	return list, nil
}

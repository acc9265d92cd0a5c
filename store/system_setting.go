package store

import "context"

// SystemSetting is a key/value row of instance-wide settings.
type SystemSetting struct {
	Name  string
	Value string
}

// FindSystemSetting is the find condition for system settings.
type FindSystemSetting struct {
	Name string
}

const systemSettingSchemaVersion = "schema_version"

func (s *Store) UpsertSystemSetting(ctx context.Context, upsert *SystemSetting) (*SystemSetting, error) {
	return s.driver.UpsertSystemSetting(ctx, upsert)
}

func (s *Store) ListSystemSettings(ctx context.Context, find *FindSystemSetting) ([]*SystemSetting, error) {
	return s.driver.ListSystemSettings(ctx, find)
}

// GetSchemaVersion returns the schema version recorded in the database, or "".
func (s *Store) GetSchemaVersion(ctx context.Context) (string, error) {
	list, err := s.driver.ListSystemSettings(ctx, &FindSystemSetting{Name: systemSettingSchemaVersion})
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "", nil
	}
	return list[0].Value, nil
}

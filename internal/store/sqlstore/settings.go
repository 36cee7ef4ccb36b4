package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"mrchooks/backend/internal/store"
)

func (s *Store) ListSettings(ctx context.Context) (map[string]string, error) {
	var rows []struct {
		Key   string `db:"key"`
		Value string `db:"value"`
	}
	if err := s.db.SelectContext(ctx, &rows, `SELECT key, value FROM settings ORDER BY key`); err != nil {
		return nil, store.Wrap("list settings", err)
	}
	settings := make(map[string]string, len(rows))
	for _, row := range rows {
		settings[row.Key] = row.Value
	}
	return settings, nil
}

func (s *Store) GetSetting(ctx context.Context, key string) (string, time.Time, error) {
	var row struct {
		Value     string    `db:"value"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err := s.db.GetContext(ctx, &row, s.rebind(`SELECT value, updated_at FROM settings WHERE key = ?`), key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", time.Time{}, store.ErrNotFound
		}
		return "", time.Time{}, store.Wrap("get setting", err)
	}
	return row.Value, row.UpdatedAt.UTC(), nil
}

func (s *Store) PutSetting(ctx context.Context, key string, value string, at time.Time) error {
	if strings.TrimSpace(key) == "" {
		return store.ErrInvalidInput
	}
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?,?,?)
		ON CONFLICT (key)
		DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`), key, value, at.UTC())
	return store.Wrap("put setting", err)
}

package flags

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	out "ridecover/internal/coverage/application/ports/out"
)

// SQLiteStore — локальное хранилище флагов для запуска без Redis и Postgres
type SQLiteStore struct {
	db *sql.DB
}

var _ out.FlagStore = (*SQLiteStore)(nil)

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// modernc sqlite не любит параллельную запись в один файл
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS coverage_flags (
			driver_id              TEXT PRIMARY KEY,
			retry_setup            INTEGER NOT NULL DEFAULT 0,
			settings_error_found   INTEGER NOT NULL DEFAULT 0,
			settings_warning_found INTEGER NOT NULL DEFAULT 0,
			updated_at             TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create coverage_flags: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) get(ctx context.Context, col, driverID string) (bool, error) {
	var v bool
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM coverage_flags WHERE driver_id = ?", col),
		driverID,
	).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", col, err)
	}
	return v, nil
}

func (s *SQLiteStore) set(ctx context.Context, col, driverID string, v bool) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO coverage_flags (driver_id, %[1]s, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (driver_id) DO UPDATE
		SET %[1]s = excluded.%[1]s, updated_at = CURRENT_TIMESTAMP
	`, col), driverID, v)
	if err != nil {
		return fmt.Errorf("write %s: %w", col, err)
	}
	return nil
}

func (s *SQLiteStore) RetrySetup(ctx context.Context, driverID string) (bool, error) {
	return s.get(ctx, fieldRetrySetup, driverID)
}

func (s *SQLiteStore) SetRetrySetup(ctx context.Context, driverID string, v bool) error {
	return s.set(ctx, fieldRetrySetup, driverID, v)
}

func (s *SQLiteStore) SettingsErrorFound(ctx context.Context, driverID string) (bool, error) {
	return s.get(ctx, fieldSettingsError, driverID)
}

func (s *SQLiteStore) SetSettingsErrorFound(ctx context.Context, driverID string, v bool) error {
	return s.set(ctx, fieldSettingsError, driverID, v)
}

func (s *SQLiteStore) SettingsWarningFound(ctx context.Context, driverID string) (bool, error) {
	return s.get(ctx, fieldSettingsWarned, driverID)
}

func (s *SQLiteStore) SetSettingsWarningFound(ctx context.Context, driverID string, v bool) error {
	return s.set(ctx, fieldSettingsWarned, driverID, v)
}

func (s *SQLiteStore) DriversPendingRetry(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT driver_id FROM coverage_flags WHERE retry_setup = 1 ORDER BY driver_id")
	if err != nil {
		return nil, fmt.Errorf("query pending retry: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

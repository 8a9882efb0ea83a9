package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	out "ridecover/internal/coverage/application/ports/out"
)

// Колонки coverage_flags. Имена подставляются в SQL, поэтому только константы.
const (
	colRetrySetup     = "retry_setup"
	colSettingsError  = "settings_error_found"
	colSettingsWarned = "settings_warning_found"
)

type flagPgStore struct {
	db Querier
}

// NewFlagPgStore хранит флаги в таблице coverage_flags (миграция 0001)
func NewFlagPgStore(db Querier) out.FlagStore {
	return &flagPgStore{db: db}
}

func (s *flagPgStore) get(ctx context.Context, col, driverID string) (bool, error) {
	var v bool
	err := s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM coverage_flags WHERE driver_id = $1`, col),
		driverID,
	).Scan(&v)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", col, err)
	}
	return v, nil
}

func (s *flagPgStore) set(ctx context.Context, col, driverID string, v bool) error {
	_, err := s.db.Exec(ctx, fmt.Sprintf(`
		INSERT INTO coverage_flags (driver_id, %[1]s, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (driver_id) DO UPDATE
		SET %[1]s = EXCLUDED.%[1]s, updated_at = NOW()
	`, col), driverID, v)
	if err != nil {
		return fmt.Errorf("write %s: %w", col, err)
	}
	return nil
}

func (s *flagPgStore) RetrySetup(ctx context.Context, driverID string) (bool, error) {
	return s.get(ctx, colRetrySetup, driverID)
}

func (s *flagPgStore) SetRetrySetup(ctx context.Context, driverID string, v bool) error {
	return s.set(ctx, colRetrySetup, driverID, v)
}

func (s *flagPgStore) SettingsErrorFound(ctx context.Context, driverID string) (bool, error) {
	return s.get(ctx, colSettingsError, driverID)
}

func (s *flagPgStore) SetSettingsErrorFound(ctx context.Context, driverID string, v bool) error {
	return s.set(ctx, colSettingsError, driverID, v)
}

func (s *flagPgStore) SettingsWarningFound(ctx context.Context, driverID string) (bool, error) {
	return s.get(ctx, colSettingsWarned, driverID)
}

func (s *flagPgStore) SetSettingsWarningFound(ctx context.Context, driverID string, v bool) error {
	return s.set(ctx, colSettingsWarned, driverID, v)
}

func (s *flagPgStore) DriversPendingRetry(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `
		SELECT driver_id
		FROM coverage_flags
		WHERE retry_setup
		ORDER BY driver_id
	`)
	if err != nil {
		return nil, fmt.Errorf("query pending retry: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

package persistence

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execRecorder struct {
	fakeQuerier
	sql  []string
	args [][]any
}

func (e *execRecorder) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	e.sql = append(e.sql, sql)
	e.args = append(e.args, args)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func TestFlagPgStoreMissingRowIsFalse(t *testing.T) {
	s := NewFlagPgStore(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})

	v, err := s.RetrySetup(context.Background(), "d-1")
	require.NoError(t, err)
	assert.False(t, v)
}

func TestFlagPgStoreReadsColumn(t *testing.T) {
	s := NewFlagPgStore(&fakeQuerier{row: fakeRow{values: []any{true}}})

	v, err := s.SettingsWarningFound(context.Background(), "d-1")
	require.NoError(t, err)
	assert.True(t, v)
}

func TestFlagPgStoreUpsertsColumn(t *testing.T) {
	rec := &execRecorder{}
	s := NewFlagPgStore(rec)

	require.NoError(t, s.SetSettingsErrorFound(context.Background(), "d-1", true))

	require.Len(t, rec.sql, 1)
	assert.Contains(t, rec.sql[0], "settings_error_found = EXCLUDED.settings_error_found")
	assert.Equal(t, []any{"d-1", true}, rec.args[0])
}

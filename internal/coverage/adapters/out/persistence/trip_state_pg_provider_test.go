package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridecover/internal/coverage/domain"
	"ridecover/internal/model"
)

const driverUUID = "550e8400-e29b-41d4-a716-446655440000"

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *bool:
			*p = r.values[i].(bool)
		case *int:
			*p = r.values[i].(int)
		case *string:
			*p = r.values[i].(string)
		}
	}
	return nil
}

type fakeQuerier struct {
	row      fakeRow
	lastArgs []any
}

func (q *fakeQuerier) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	q.lastArgs = args
	return q.row
}

func (q *fakeQuerier) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (q *fakeQuerier) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func TestTripStateScansRow(t *testing.T) {
	q := &fakeQuerier{row: fakeRow{values: []any{true, 1, 0, "ride-1"}}}
	p := NewTripStatePgProvider(q)

	s, err := p.TripState(context.Background(), driverUUID)
	require.NoError(t, err)

	assert.Equal(t, domain.TripState{IsOnDuty: true, PassengersInCar: 1, TrackingID: "ride-1"}, s)
	assert.Equal(t, driverUUID, q.lastArgs[0])
	assert.Equal(t, model.OnDutyDriverStatuses, q.lastArgs[1])
	assert.Equal(t, model.RideStatusInProgress, q.lastArgs[2])
}

func TestTripStateUnknownDriver(t *testing.T) {
	p := NewTripStatePgProvider(&fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}})

	_, err := p.TripState(context.Background(), driverUUID)
	require.ErrorIs(t, err, domain.ErrUnknownDriver)
}

func TestTripStateRejectsNonUUIDWithoutQuery(t *testing.T) {
	q := &fakeQuerier{}
	p := NewTripStatePgProvider(q)

	_, err := p.TripState(context.Background(), "d-1")
	require.ErrorIs(t, err, domain.ErrUnknownDriver)
	assert.Nil(t, q.lastArgs)
}

func TestTripStateQueryError(t *testing.T) {
	boom := errors.New("conn reset")
	p := NewTripStatePgProvider(&fakeQuerier{row: fakeRow{err: boom}})

	_, err := p.TripState(context.Background(), driverUUID)
	require.ErrorIs(t, err, boom)
}

func TestOnDutyDriversQueryError(t *testing.T) {
	p := NewTripStatePgProvider(&fakeQuerier{})
	_, err := p.OnDutyDrivers(context.Background())
	require.Error(t, err)
}

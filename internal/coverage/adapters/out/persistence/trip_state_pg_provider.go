package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/model"
	"ridecover/internal/shared/utils"
)

// Querier — подмножество pgxpool.Pool, нужное провайдеру
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type tripStatePgProvider struct {
	db Querier
}

// NewTripStatePgProvider читает состояние поездки из таблиц drivers и rides
func NewTripStatePgProvider(db Querier) out.TripStateProvider {
	return &tripStatePgProvider{db: db}
}

// Пассажиры в машине считаются по поездкам $3, ожидающие по $4 (model.*RideStatuses).
// tracking_id — активная поездка, в приоритете та, что уже идёт.
const tripStateQuery = `
	SELECT d.status::text = ANY($2),
	       (COUNT(r.id) FILTER (WHERE r.status::text = $3))::int,
	       (COUNT(r.id) FILTER (WHERE r.status::text = ANY($4)))::int,
	       COALESCE((
	           SELECT a.id::text
	           FROM rides a
	           WHERE a.driver_id = d.id
	             AND a.status::text = ANY($5)
	           ORDER BY (a.status::text = $3) DESC, a.matched_at DESC NULLS LAST
	           LIMIT 1
	       ), '')
	FROM drivers d
	LEFT JOIN rides r
	       ON r.driver_id = d.id
	      AND r.status::text = ANY($5)
	WHERE d.id = $1
	GROUP BY d.id, d.status
`

func (p *tripStatePgProvider) TripState(ctx context.Context, driverID string) (domain.TripState, error) {
	// drivers.id — UUID; иначе Postgres вернёт ошибку приведения типа, а не пустой результат
	if !utils.IsUUID(driverID) {
		return domain.TripState{}, domain.ErrUnknownDriver
	}

	var s domain.TripState
	err := p.db.QueryRow(ctx, tripStateQuery,
		driverID,
		model.OnDutyDriverStatuses,
		model.RideStatusInProgress,
		model.WaitingRideStatuses,
		model.ActiveRideStatuses,
	).Scan(
		&s.IsOnDuty,
		&s.PassengersInCar,
		&s.PassengersWaiting,
		&s.TrackingID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.TripState{}, domain.ErrUnknownDriver
		}
		return domain.TripState{}, fmt.Errorf("query trip state: %w", err)
	}
	return s, nil
}

func (p *tripStatePgProvider) OnDutyDrivers(ctx context.Context) ([]string, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id::text
		FROM drivers
		WHERE status::text = ANY($1)
		ORDER BY id
	`, model.OnDutyDriverStatuses)
	if err != nil {
		return nil, fmt.Errorf("query on-duty drivers: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan on-duty drivers: %w", err)
	}
	return ids, nil
}

package out

import (
	"context"

	"ridecover/internal/coverage/domain"
)

// TripStateProvider — источник текущего состояния поездки водителя
type TripStateProvider interface {
	// TripState возвращает состояние на текущий момент
	TripState(ctx context.Context, driverID string) (domain.TripState, error)

	// OnDutyDrivers возвращает водителей на смене (для периодического пересчёта)
	OnDutyDrivers(ctx context.Context) ([]string, error)
}

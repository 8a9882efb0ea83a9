package in

import (
	"context"

	"ridecover/internal/coverage/domain"
)

// UpdatePeriodInput — входные данные для пересчёта страхового периода
type UpdatePeriodInput struct {
	DriverID string `json:"driver_id"`
	Reason   string `json:"reason,omitempty"` // setup | event | interval | manual
}

// UpdatePeriodOutput — результат пересчёта. Completion доставляет ответ SDK.
type UpdatePeriodOutput struct {
	DriverID   string                        `json:"driver_id"`
	State      domain.TripState              `json:"trip_state"`
	Decision   domain.PeriodDecision         `json:"decision"`
	Completion <-chan domain.OperationResult `json:"-"`
}

// UpdatePeriodUseCase — классификация состояния поездки и вызов нужной операции SDK
type UpdatePeriodUseCase interface {
	Execute(ctx context.Context, input UpdatePeriodInput) (*UpdatePeriodOutput, error)
}

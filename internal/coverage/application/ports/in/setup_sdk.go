package in

import (
	"context"

	"ridecover/internal/coverage/domain"
)

// SetupInput — входные данные для инициализации SDK
type SetupInput struct {
	DriverID string `json:"driver_id"`
}

// SetupOutput — состояние после вызова. Done закрывается, когда setup завершён
// (сразу, если вызов ничего не запускал).
type SetupOutput struct {
	DriverID string            `json:"driver_id"`
	State    domain.SetupState `json:"state"`
	Started  bool              `json:"started"`
	Done     <-chan struct{}   `json:"-"`
}

// SetupUseCase — однократная инициализация SDK для водителя
type SetupUseCase interface {
	Setup(ctx context.Context, input SetupInput) (*SetupOutput, error)
	State(driverID string) domain.SetupState
	// RetryPending повторяет setup для водителей с флагом повтора
	RetryPending(ctx context.Context) (int, error)
}

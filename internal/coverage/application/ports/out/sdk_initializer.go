package out

import (
	"context"

	"ridecover/internal/coverage/domain"
)

// SetupRequest — параметры инициализации SDK
type SetupRequest struct {
	DriverID      string `json:"driver_id"`
	SDKKey        string `json:"sdk_key"`
	DetectionMode string `json:"detection_mode"`
}

// SDKInitializer — однократная инициализация SDK для водителя
type SDKInitializer interface {
	// IsSetup сообщает, что SDK уже инициализирован вне этого процесса
	IsSetup(ctx context.Context, driverID string) bool

	// Setup запускает инициализацию; результат приходит один раз
	Setup(ctx context.Context, req SetupRequest) <-chan domain.OperationResult
}

package transport

import "ridecover/internal/coverage/domain"

// SetupResponse — ответ на запуск инициализации SDK
type SetupResponse struct {
	DriverID string            `json:"driver_id"`
	State    domain.SetupState `json:"state"`
	Started  bool              `json:"started"`
}

// RefreshResponse — ответ на ручной пересчёт периода. Result есть только при wait=true.
type RefreshResponse struct {
	DriverID  string                  `json:"driver_id"`
	TripState domain.TripState        `json:"trip_state"`
	Decision  domain.PeriodDecision   `json:"decision"`
	Result    *domain.OperationResult `json:"result,omitempty"`
}

// ErrorResponse — стандартный ответ об ошибке
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

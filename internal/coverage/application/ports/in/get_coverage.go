package in

import (
	"context"

	"ridecover/internal/coverage/domain"
)

// CoverageFlags — сохранённые флаги водителя
type CoverageFlags struct {
	RetrySetup           bool `json:"retry_setup"`
	SettingsErrorFound   bool `json:"settings_error_found"`
	SettingsWarningFound bool `json:"settings_warning_found"`
}

// CoverageView — текущее покрытие водителя без вызова SDK
type CoverageView struct {
	DriverID   string                `json:"driver_id"`
	SetupState domain.SetupState     `json:"setup_state"`
	State      domain.TripState      `json:"trip_state"`
	Decision   domain.PeriodDecision `json:"decision"`
	Flags      CoverageFlags         `json:"flags"`
}

// GetCoverageUseCase — чтение текущего периода без побочных эффектов
type GetCoverageUseCase interface {
	Get(ctx context.Context, driverID string) (*CoverageView, error)
}

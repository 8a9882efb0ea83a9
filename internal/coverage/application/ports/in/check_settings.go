package in

import (
	"context"

	"ridecover/internal/coverage/domain"
)

// CheckSettingsInput — входные данные для проверки настроек устройства
type CheckSettingsInput struct {
	DriverID string `json:"driver_id"`
}

// CheckSettingsOutput — выполненные действия с уведомлениями
type CheckSettingsOutput struct {
	DriverID  string                      `json:"driver_id"`
	Available bool                        `json:"available"`
	Skipped   bool                        `json:"skipped"`
	Actions   []domain.NotificationAction `json:"actions"`
}

// CheckSettingsUseCase — диагностика настроек и синхронизация уведомлений
type CheckSettingsUseCase interface {
	// Check всегда запрашивает отчёт и применяет действия
	Check(ctx context.Context, input CheckSettingsInput) (*CheckSettingsOutput, error)

	// MaybeCheck выполняет Check, только если прошлый отчёт содержал ошибки или предупреждения
	MaybeCheck(ctx context.Context, input CheckSettingsInput) (*CheckSettingsOutput, error)
}

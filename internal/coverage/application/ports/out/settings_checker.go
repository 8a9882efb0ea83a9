package out

import (
	"context"

	"ridecover/internal/coverage/domain"
)

// SettingsChecker — проверка настроек устройства через SDK.
// nil в канале означает, что SDK не инициализирован и отчёта нет.
type SettingsChecker interface {
	Settings(ctx context.Context, driverID string) <-chan *domain.SettingsReport
}

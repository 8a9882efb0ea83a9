package out

import "context"

// FlagStore — персистентные флаги водителя. Последняя запись выигрывает.
type FlagStore interface {
	RetrySetup(ctx context.Context, driverID string) (bool, error)
	SetRetrySetup(ctx context.Context, driverID string, v bool) error

	SettingsErrorFound(ctx context.Context, driverID string) (bool, error)
	SetSettingsErrorFound(ctx context.Context, driverID string, v bool) error

	SettingsWarningFound(ctx context.Context, driverID string) (bool, error)
	SetSettingsWarningFound(ctx context.Context, driverID string, v bool) error

	// DriversPendingRetry возвращает водителей с выставленным флагом повтора setup
	DriversPendingRetry(ctx context.Context) ([]string, error)
}

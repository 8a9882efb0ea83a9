package out

import (
	"context"

	"ridecover/internal/coverage/domain"
)

// NotificationPresenter — показ уведомлений на устройстве водителя.
// Show заменяет ранее показанное уведомление с тем же id, Hide без показа ничего не делает.
type NotificationPresenter interface {
	Present(ctx context.Context, driverID string, action domain.NotificationAction) error
}

package out

import (
	"context"

	"ridecover/internal/coverage/domain"
)

// EventPublisher — публикация событий покрытия для других сервисов
type EventPublisher interface {
	// PublishPeriodChanged — Exchange: coverage_topic, RoutingKey: coverage.period.{driver_id}
	PublishPeriodChanged(ctx context.Context, driverID string, decision domain.PeriodDecision, result domain.OperationResult) error

	// PublishSetupCompleted — RoutingKey: coverage.setup.{driver_id}
	PublishSetupCompleted(ctx context.Context, driverID string, result domain.OperationResult) error

	// PublishDiagnostics — RoutingKey: coverage.diagnostics.{driver_id}
	PublishDiagnostics(ctx context.Context, driverID string, actions []domain.NotificationAction) error
}

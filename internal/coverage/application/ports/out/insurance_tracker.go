package out

import (
	"context"

	"ridecover/internal/coverage/domain"
)

// InsuranceTracker — страховые операции внешнего SDK.
// Каждый вызов асинхронный: канал доставляет ровно один результат и закрывается.
type InsuranceTracker interface {
	StopPeriod(ctx context.Context, driverID string) <-chan domain.OperationResult
	StartPeriod1(ctx context.Context, driverID string) <-chan domain.OperationResult
	StartDriveWithPeriod2(ctx context.Context, driverID, trackingID string) <-chan domain.OperationResult
	StartDriveWithPeriod3(ctx context.Context, driverID, trackingID string) <-chan domain.OperationResult
}

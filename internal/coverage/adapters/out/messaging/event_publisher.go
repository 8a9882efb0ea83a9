package messaging

import (
	"context"
	"fmt"
	"time"

	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
	"ridecover/internal/shared/mq"
)

// Типы событий в поле "type"
const (
	EventPeriodChanged       = "coverage.period_changed"
	EventSetupCompleted      = "coverage.setup_completed"
	EventDiagnosticsReported = "coverage.diagnostics_reported"
)

type PeriodChangedEvent struct {
	Type       string                 `json:"type"`
	DriverID   string                 `json:"driver_id"`
	Decision   domain.PeriodDecision  `json:"decision"`
	Result     domain.OperationResult `json:"result"`
	OccurredAt string                 `json:"timestamp"`
}

type SetupCompletedEvent struct {
	Type       string                 `json:"type"`
	DriverID   string                 `json:"driver_id"`
	Result     domain.OperationResult `json:"result"`
	OccurredAt string                 `json:"timestamp"`
}

type DiagnosticsReportedEvent struct {
	Type       string                      `json:"type"`
	DriverID   string                      `json:"driver_id"`
	Actions    []domain.NotificationAction `json:"actions"`
	OccurredAt string                      `json:"timestamp"`
}

type eventPublisher struct {
	mq  mq.Publisher
	log *logger.Logger
	now func() time.Time
}

func NewEventPublisher(p mq.Publisher, log *logger.Logger) out.EventPublisher {
	return &eventPublisher{mq: p, log: log, now: time.Now}
}

func (p *eventPublisher) timestamp() string {
	return p.now().UTC().Format(time.RFC3339)
}

func (p *eventPublisher) publish(ctx context.Context, driverID, routingKey string, event any) error {
	if err := mq.PublishJSON(ctx, p.mq, mq.ExchangeCoverage, routingKey, event); err != nil {
		p.log.Error(logger.Entry{
			Action:   "publish_coverage_event_failed",
			Message:  err.Error(),
			DriverID: driverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"routing_key": routingKey,
			},
		})
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}

	p.log.Debug(logger.Entry{
		Action:   "coverage_event_published",
		Message:  routingKey,
		DriverID: driverID,
	})
	return nil
}

func (p *eventPublisher) PublishPeriodChanged(ctx context.Context, driverID string, decision domain.PeriodDecision, result domain.OperationResult) error {
	return p.publish(ctx, driverID, "coverage.period."+driverID, PeriodChangedEvent{
		Type:       EventPeriodChanged,
		DriverID:   driverID,
		Decision:   decision,
		Result:     result,
		OccurredAt: p.timestamp(),
	})
}

func (p *eventPublisher) PublishSetupCompleted(ctx context.Context, driverID string, result domain.OperationResult) error {
	return p.publish(ctx, driverID, "coverage.setup."+driverID, SetupCompletedEvent{
		Type:       EventSetupCompleted,
		DriverID:   driverID,
		Result:     result,
		OccurredAt: p.timestamp(),
	})
}

func (p *eventPublisher) PublishDiagnostics(ctx context.Context, driverID string, actions []domain.NotificationAction) error {
	return p.publish(ctx, driverID, "coverage.diagnostics."+driverID, DiagnosticsReportedEvent{
		Type:       EventDiagnosticsReported,
		DriverID:   driverID,
		Actions:    actions,
		OccurredAt: p.timestamp(),
	})
}

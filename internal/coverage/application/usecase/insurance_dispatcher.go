package usecase

import (
	"context"

	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
)

// InsuranceDispatcher вызывает страховую операцию SDK, соответствующую решению.
// Ошибки только логируются: следующее изменение состояния пересчитает период заново.
type InsuranceDispatcher struct {
	tracker out.InsuranceTracker
	events  out.EventPublisher
	metrics out.MetricsRecorder
	log     *logger.Logger
}

func NewInsuranceDispatcher(
	tracker out.InsuranceTracker,
	events out.EventPublisher,
	metrics out.MetricsRecorder,
	log *logger.Logger,
) *InsuranceDispatcher {
	if metrics == nil {
		metrics = out.NoopRecorder{}
	}
	return &InsuranceDispatcher{
		tracker: tracker,
		events:  events,
		metrics: metrics,
		log:     log,
	}
}

// Dispatch issues exactly one tracker call chosen by the decision. The returned
// channel receives the single completion and is then closed.
// The call outlives ctx: only the tracker's own timeout bounds it.
func (d *InsuranceDispatcher) Dispatch(ctx context.Context, driverID string, decision domain.PeriodDecision) <-chan domain.OperationResult {
	// Отмена не поддерживается: ответ HTTP 202 или конец WS запроса не должны обрывать вызов SDK
	ctx = context.WithoutCancel(ctx)
	trackingID, _ := decision.TrackingID()

	d.log.Debug(logger.Entry{
		Action:     "insurance_period_dispatch",
		Message:    "updating insurance period to " + decision.Period().String(),
		DriverID:   driverID,
		TrackingID: trackingID,
	})

	var pending <-chan domain.OperationResult
	switch decision.Period() {
	case domain.Period3:
		pending = d.tracker.StartDriveWithPeriod3(ctx, driverID, trackingID)
	case domain.Period2:
		pending = d.tracker.StartDriveWithPeriod2(ctx, driverID, trackingID)
	case domain.Period1:
		pending = d.tracker.StartPeriod1(ctx, driverID)
	default:
		pending = d.tracker.StopPeriod(ctx, driverID)
	}

	done := make(chan domain.OperationResult, 1)
	go func() {
		defer close(done)
		res, ok := <-pending
		if !ok {
			res = domain.Failed(domain.ErrorCodeSDKUnavailable)
		}
		d.complete(ctx, driverID, decision, res)
		done <- res
	}()
	return done
}

func (d *InsuranceDispatcher) complete(ctx context.Context, driverID string, decision domain.PeriodDecision, res domain.OperationResult) {
	trackingID, _ := decision.TrackingID()
	d.metrics.IncPeriodDispatch(decision.Period(), res.Success)

	if !res.Success {
		d.log.Warn(logger.Entry{
			Action:     "insurance_period_switch_failed",
			Message:    "insurance period switch failed, error: " + res.ErrorCode,
			DriverID:   driverID,
			TrackingID: trackingID,
			Error:      &logger.ErrObj{Msg: "insurance period switch failed", Code: res.ErrorCode},
			Additional: map[string]any{
				"period": decision.Period().String(),
			},
		})
	} else {
		d.log.Info(logger.Entry{
			Action:     "insurance_period_updated",
			Message:    "insurance period is now " + decision.Period().String(),
			DriverID:   driverID,
			TrackingID: trackingID,
		})
	}

	if d.events == nil {
		return
	}
	if err := d.events.PublishPeriodChanged(ctx, driverID, decision, res); err != nil {
		d.log.Error(logger.Entry{
			Action:   "insurance_period_publish_failed",
			Message:  err.Error(),
			DriverID: driverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
		})
	}
}

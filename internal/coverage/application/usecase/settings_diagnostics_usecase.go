package usecase

import (
	"context"

	in "ridecover/internal/coverage/application/ports/in"
	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
)

type settingsDiagnosticsUseCase struct {
	checker   out.SettingsChecker
	presenter out.NotificationPresenter
	flags     out.FlagStore
	events    out.EventPublisher
	metrics   out.MetricsRecorder
	log       *logger.Logger
}

func NewSettingsDiagnosticsUseCase(
	checker out.SettingsChecker,
	presenter out.NotificationPresenter,
	flags out.FlagStore,
	events out.EventPublisher,
	metrics out.MetricsRecorder,
	log *logger.Logger,
) in.CheckSettingsUseCase {
	if metrics == nil {
		metrics = out.NoopRecorder{}
	}
	return &settingsDiagnosticsUseCase{
		checker:   checker,
		presenter: presenter,
		flags:     flags,
		events:    events,
		metrics:   metrics,
		log:       log,
	}
}

func (uc *settingsDiagnosticsUseCase) MaybeCheck(ctx context.Context, input in.CheckSettingsInput) (*in.CheckSettingsOutput, error) {
	if input.DriverID == "" {
		return nil, domain.ErrEmptyDriverID
	}

	errFound, err := uc.flags.SettingsErrorFound(ctx, input.DriverID)
	if err != nil {
		uc.log.Warn(logger.Entry{
			Action:   "settings_flag_read_failed",
			Message:  err.Error(),
			DriverID: input.DriverID,
		})
		// не знаем прошлый результат, проверяем
		return uc.Check(ctx, input)
	}
	warnFound, err := uc.flags.SettingsWarningFound(ctx, input.DriverID)
	if err != nil {
		uc.log.Warn(logger.Entry{
			Action:   "settings_flag_read_failed",
			Message:  err.Error(),
			DriverID: input.DriverID,
		})
		return uc.Check(ctx, input)
	}

	if !errFound && !warnFound {
		uc.log.Debug(logger.Entry{
			Action:   "settings_check_skipped",
			Message:  "previous report was clean",
			DriverID: input.DriverID,
		})
		return &in.CheckSettingsOutput{DriverID: input.DriverID, Skipped: true}, nil
	}
	return uc.Check(ctx, input)
}

func (uc *settingsDiagnosticsUseCase) Check(ctx context.Context, input in.CheckSettingsInput) (*in.CheckSettingsOutput, error) {
	if input.DriverID == "" {
		return nil, domain.ErrEmptyDriverID
	}

	var report *domain.SettingsReport
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case report = <-uc.checker.Settings(ctx, input.DriverID):
	}

	uc.metrics.IncSettingsCheck(report != nil)
	if report == nil {
		// SDK не инициализирован: показывать нечего
		uc.log.Info(logger.Entry{
			Action:   "settings_unavailable",
			Message:  "settings report not available",
			DriverID: input.DriverID,
		})
		return &in.CheckSettingsOutput{DriverID: input.DriverID}, nil
	}

	actions := domain.Reconcile(report)
	for _, a := range actions {
		uc.metrics.IncNotificationAction(a.ID, a.Kind)
		if err := uc.presenter.Present(ctx, input.DriverID, a); err != nil {
			uc.log.Warn(logger.Entry{
				Action:   "settings_notification_failed",
				Message:  err.Error(),
				DriverID: input.DriverID,
				Additional: map[string]any{
					"notification_id": a.ID,
					"kind":            a.Kind,
				},
			})
		}
	}

	uc.persistFlags(ctx, input.DriverID, report)

	if uc.events != nil {
		if err := uc.events.PublishDiagnostics(ctx, input.DriverID, actions); err != nil {
			uc.log.Error(logger.Entry{
				Action:   "settings_publish_failed",
				Message:  err.Error(),
				DriverID: input.DriverID,
				Error:    &logger.ErrObj{Msg: err.Error()},
			})
		}
	}

	uc.log.Info(logger.Entry{
		Action:   "settings_reconciled",
		Message:  "device settings diagnostics applied",
		DriverID: input.DriverID,
		Additional: map[string]any{
			"errors":   len(report.Errors),
			"warnings": len(report.Warnings),
			"actions":  len(actions),
		},
	})

	return &in.CheckSettingsOutput{
		DriverID:  input.DriverID,
		Available: true,
		Actions:   actions,
	}, nil
}

func (uc *settingsDiagnosticsUseCase) persistFlags(ctx context.Context, driverID string, report *domain.SettingsReport) {
	if err := uc.flags.SetSettingsErrorFound(ctx, driverID, report.HasErrors()); err != nil {
		uc.log.Error(logger.Entry{
			Action:   "settings_flag_write_failed",
			Message:  err.Error(),
			DriverID: driverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
		})
	}
	if err := uc.flags.SetSettingsWarningFound(ctx, driverID, report.HasWarnings()); err != nil {
		uc.log.Error(logger.Entry{
			Action:   "settings_flag_write_failed",
			Message:  err.Error(),
			DriverID: driverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
		})
	}
}

package out

import "ridecover/internal/coverage/domain"

// MetricsRecorder — хуки наблюдаемости. NoopRecorder используется по умолчанию.
type MetricsRecorder interface {
	IncPeriodDispatch(period domain.Period, success bool)
	IncNotificationAction(id domain.NotificationID, kind domain.ActionKind)
	IncSetupOutcome(success bool)
	IncSettingsCheck(available bool)
}

type NoopRecorder struct{}

func (NoopRecorder) IncPeriodDispatch(domain.Period, bool)                           {}
func (NoopRecorder) IncNotificationAction(domain.NotificationID, domain.ActionKind) {}
func (NoopRecorder) IncSetupOutcome(bool)                                            {}
func (NoopRecorder) IncSettingsCheck(bool)                                           {}

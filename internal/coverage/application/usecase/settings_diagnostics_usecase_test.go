package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	in "ridecover/internal/coverage/application/ports/in"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
)

func hideAll() []domain.NotificationAction {
	var res []domain.NotificationAction
	for _, id := range domain.SettingsNotificationIDs() {
		res = append(res, domain.Hide(id))
	}
	return res
}

func TestCheckPresentsReconciledActions(t *testing.T) {
	checker := &fakeChecker{report: &domain.SettingsReport{
		Errors:   []domain.SettingsError{domain.LocationSettingsError{}},
		Warnings: []domain.SettingsWarning{domain.PowerSaverModeWarning{}},
	}}
	presenter := &fakePresenter{}
	flags := newFakeFlags()
	events := &fakeEvents{}
	uc := NewSettingsDiagnosticsUseCase(checker, presenter, flags, events, nil, logger.Nop())

	res, err := uc.Check(context.Background(), in.CheckSettingsInput{DriverID: "d-1"})
	require.NoError(t, err)

	want := append(hideAll(),
		domain.Show(domain.NotificationLocationDisabled, nil),
		domain.Show(domain.NotificationPSM, domain.PSMPayload{IsError: false}),
	)
	if diff := cmp.Diff(want, presenter.Actions()); diff != "" {
		t.Errorf("presented actions mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, res.Available)
	assert.Equal(t, want, res.Actions)
	assert.True(t, flags.errFound["d-1"])
	assert.True(t, flags.warnFnd["d-1"])
	assert.Equal(t, 1, events.diagRuns)
}

func TestCheckUnavailableReportTouchesNothing(t *testing.T) {
	presenter := &fakePresenter{}
	flags := newFakeFlags()
	flags.errFound["d-1"] = true
	uc := NewSettingsDiagnosticsUseCase(&fakeChecker{}, presenter, flags, nil, nil, logger.Nop())

	res, err := uc.Check(context.Background(), in.CheckSettingsInput{DriverID: "d-1"})
	require.NoError(t, err)

	assert.False(t, res.Available)
	assert.Empty(t, res.Actions)
	assert.Empty(t, presenter.Actions())
	assert.True(t, flags.errFound["d-1"])
}

func TestCheckContinuesWhenPresenterFails(t *testing.T) {
	checker := &fakeChecker{report: &domain.SettingsReport{}}
	presenter := &fakePresenter{err: errors.New("device offline")}
	uc := NewSettingsDiagnosticsUseCase(checker, presenter, newFakeFlags(), nil, nil, logger.Nop())

	res, err := uc.Check(context.Background(), in.CheckSettingsInput{DriverID: "d-1"})
	require.NoError(t, err)

	assert.Len(t, presenter.Actions(), len(domain.SettingsNotificationIDs()))
	assert.Equal(t, hideAll(), res.Actions)
}

func TestMaybeCheckSkipsCleanDriver(t *testing.T) {
	checker := &fakeChecker{report: &domain.SettingsReport{}}
	uc := NewSettingsDiagnosticsUseCase(checker, &fakePresenter{}, newFakeFlags(), nil, nil, logger.Nop())

	res, err := uc.MaybeCheck(context.Background(), in.CheckSettingsInput{DriverID: "d-1"})
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Zero(t, checker.calls)
}

func TestMaybeCheckRunsAfterPreviousWarning(t *testing.T) {
	checker := &fakeChecker{report: &domain.SettingsReport{}}
	flags := newFakeFlags()
	flags.warnFnd["d-1"] = true
	uc := NewSettingsDiagnosticsUseCase(checker, &fakePresenter{}, flags, nil, nil, logger.Nop())

	res, err := uc.MaybeCheck(context.Background(), in.CheckSettingsInput{DriverID: "d-1"})
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Equal(t, 1, checker.calls)
	// чистый отчёт сбрасывает флаги
	assert.False(t, flags.warnFnd["d-1"])
	assert.False(t, flags.errFound["d-1"])
}

func TestMaybeCheckRunsWhenFlagsUnreadable(t *testing.T) {
	checker := &fakeChecker{report: &domain.SettingsReport{}}
	flags := newFakeFlags()
	flags.readErr = errors.New("redis down")
	uc := NewSettingsDiagnosticsUseCase(checker, &fakePresenter{}, flags, nil, nil, logger.Nop())

	_, err := uc.MaybeCheck(context.Background(), in.CheckSettingsInput{DriverID: "d-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, checker.calls)
}

func TestCheckHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	blocking := &blockingChecker{}
	uc := NewSettingsDiagnosticsUseCase(blocking, &fakePresenter{}, newFakeFlags(), nil, nil, logger.Nop())

	_, err := uc.Check(ctx, in.CheckSettingsInput{DriverID: "d-1"})
	require.ErrorIs(t, err, context.Canceled)
}

type blockingChecker struct{}

func (blockingChecker) Settings(context.Context, string) <-chan *domain.SettingsReport {
	return make(chan *domain.SettingsReport)
}

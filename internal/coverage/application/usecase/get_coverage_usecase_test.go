package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridecover/internal/coverage/domain"
)

type stateOf domain.SetupState

func (s stateOf) State(string) domain.SetupState { return domain.SetupState(s) }

func TestGetCoverageClassifiesWithoutDispatch(t *testing.T) {
	trips := &fakeTrips{states: map[string]domain.TripState{
		"d-1": {IsOnDuty: true, PassengersWaiting: 1, TrackingID: "ride-9"},
	}}
	flags := newFakeFlags()
	flags.warnFnd["d-1"] = true
	uc := NewGetCoverageUseCase(trips, stateOf(domain.SetupReady), flags)

	view, err := uc.Get(context.Background(), "d-1")
	require.NoError(t, err)

	assert.Equal(t, domain.SetupReady, view.SetupState)
	assert.Equal(t, domain.StartPeriod2("ride-9"), view.Decision)
	assert.True(t, view.Flags.SettingsWarningFound)
	assert.False(t, view.Flags.RetrySetup)
}

func TestGetCoverageErrors(t *testing.T) {
	uc := NewGetCoverageUseCase(&fakeTrips{}, stateOf(domain.SetupUninitialized), newFakeFlags())

	_, err := uc.Get(context.Background(), "")
	require.ErrorIs(t, err, domain.ErrEmptyDriverID)

	_, err = uc.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, domain.ErrTripStateUnavailable)
	require.ErrorIs(t, err, domain.ErrUnknownDriver)

	flags := newFakeFlags()
	flags.readErr = errors.New("redis down")
	trips := &fakeTrips{states: map[string]domain.TripState{"d-1": {}}}
	_, err = NewGetCoverageUseCase(trips, stateOf(domain.SetupReady), flags).Get(context.Background(), "d-1")
	require.Error(t, err)
}

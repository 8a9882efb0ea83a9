package usecase

import (
	"context"
	"fmt"

	in "ridecover/internal/coverage/application/ports/in"
	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
)

type setupStateReader interface {
	State(driverID string) domain.SetupState
}

type getCoverageUseCase struct {
	trips out.TripStateProvider
	setup setupStateReader
	flags out.FlagStore
}

func NewGetCoverageUseCase(trips out.TripStateProvider, setup setupStateReader, flags out.FlagStore) in.GetCoverageUseCase {
	return &getCoverageUseCase{trips: trips, setup: setup, flags: flags}
}

func (uc *getCoverageUseCase) Get(ctx context.Context, driverID string) (*in.CoverageView, error) {
	if driverID == "" {
		return nil, domain.ErrEmptyDriverID
	}

	state, err := uc.trips.TripState(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrTripStateUnavailable, err)
	}

	view := &in.CoverageView{
		DriverID:   driverID,
		SetupState: uc.setup.State(driverID),
		State:      state,
		Decision:   domain.Classify(state),
	}

	if view.Flags.RetrySetup, err = uc.flags.RetrySetup(ctx, driverID); err != nil {
		return nil, fmt.Errorf("read retry_setup: %w", err)
	}
	if view.Flags.SettingsErrorFound, err = uc.flags.SettingsErrorFound(ctx, driverID); err != nil {
		return nil, fmt.Errorf("read settings_error_found: %w", err)
	}
	if view.Flags.SettingsWarningFound, err = uc.flags.SettingsWarningFound(ctx, driverID); err != nil {
		return nil, fmt.Errorf("read settings_warning_found: %w", err)
	}
	return view, nil
}

package usecase

import (
	"context"
	"fmt"

	in "ridecover/internal/coverage/application/ports/in"
	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
)

type updatePeriodUseCase struct {
	trips      out.TripStateProvider
	dispatcher *InsuranceDispatcher
	log        *logger.Logger
}

func NewUpdatePeriodUseCase(
	trips out.TripStateProvider,
	dispatcher *InsuranceDispatcher,
	log *logger.Logger,
) in.UpdatePeriodUseCase {
	return &updatePeriodUseCase{
		trips:      trips,
		dispatcher: dispatcher,
		log:        log,
	}
}

func (uc *updatePeriodUseCase) Execute(ctx context.Context, input in.UpdatePeriodInput) (*in.UpdatePeriodOutput, error) {
	if input.DriverID == "" {
		return nil, domain.ErrEmptyDriverID
	}

	// Состояние всегда читается заново: решение не накапливается между вызовами
	state, err := uc.trips.TripState(ctx, input.DriverID)
	if err != nil {
		uc.log.Error(logger.Entry{
			Action:   "update_period_trip_state_failed",
			Message:  err.Error(),
			DriverID: input.DriverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
			Additional: map[string]any{
				"reason": input.Reason,
			},
		})
		return nil, fmt.Errorf("%w: %w", domain.ErrTripStateUnavailable, err)
	}

	decision := domain.Classify(state)

	uc.log.Info(logger.Entry{
		Action:   "update_period_classified",
		Message:  decision.String(),
		DriverID: input.DriverID,
		Additional: map[string]any{
			"reason":             input.Reason,
			"on_duty":            state.IsOnDuty,
			"passengers_in_car":  state.PassengersInCar,
			"passengers_waiting": state.PassengersWaiting,
		},
	})

	return &in.UpdatePeriodOutput{
		DriverID:   input.DriverID,
		State:      state,
		Decision:   decision,
		Completion: uc.dispatcher.Dispatch(ctx, input.DriverID, decision),
	}, nil
}

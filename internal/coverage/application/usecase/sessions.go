package usecase

import (
	"context"
	"sort"
	"sync"

	in "ridecover/internal/coverage/application/ports/in"
	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
)

// Sessions хранит по одному SetupCoordinator на водителя
type Sessions struct {
	cfg          SetupConfig
	sdk          out.SDKInitializer
	updatePeriod in.UpdatePeriodUseCase
	presenter    out.NotificationPresenter
	flags        out.FlagStore
	events       out.EventPublisher
	metrics      out.MetricsRecorder
	log          *logger.Logger

	mu           sync.Mutex
	coordinators map[string]*SetupCoordinator
}

var _ in.SetupUseCase = (*Sessions)(nil)

func NewSessions(
	cfg SetupConfig,
	sdk out.SDKInitializer,
	updatePeriod in.UpdatePeriodUseCase,
	presenter out.NotificationPresenter,
	flags out.FlagStore,
	events out.EventPublisher,
	metrics out.MetricsRecorder,
	log *logger.Logger,
) *Sessions {
	if metrics == nil {
		metrics = out.NoopRecorder{}
	}
	return &Sessions{
		cfg:          cfg,
		sdk:          sdk,
		updatePeriod: updatePeriod,
		presenter:    presenter,
		flags:        flags,
		events:       events,
		metrics:      metrics,
		log:          log,
		coordinators: make(map[string]*SetupCoordinator),
	}
}

func (s *Sessions) coordinator(driverID string) *SetupCoordinator {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.coordinators[driverID]
	if !ok {
		c = &SetupCoordinator{
			driverID:     driverID,
			cfg:          s.cfg,
			sdk:          s.sdk,
			updatePeriod: s.updatePeriod,
			presenter:    s.presenter,
			flags:        s.flags,
			events:       s.events,
			metrics:      s.metrics,
			log:          s.log,
			state:        domain.SetupUninitialized,
		}
		s.coordinators[driverID] = c
	}
	return c
}

func (s *Sessions) Setup(ctx context.Context, input in.SetupInput) (*in.SetupOutput, error) {
	if input.DriverID == "" {
		return nil, domain.ErrEmptyDriverID
	}
	state, started, done := s.coordinator(input.DriverID).Setup(ctx)
	return &in.SetupOutput{
		DriverID: input.DriverID,
		State:    state,
		Started:  started,
		Done:     done,
	}, nil
}

func (s *Sessions) State(driverID string) domain.SetupState {
	s.mu.Lock()
	c, ok := s.coordinators[driverID]
	s.mu.Unlock()
	if !ok {
		return domain.SetupUninitialized
	}
	return c.State()
}

// ReadyDrivers returns the sorted ids of drivers whose SDK is ready.
func (s *Sessions) ReadyDrivers() []string {
	s.mu.Lock()
	list := make([]*SetupCoordinator, 0, len(s.coordinators))
	for _, c := range s.coordinators {
		list = append(list, c)
	}
	s.mu.Unlock()

	var ids []string
	for _, c := range list {
		if c.State() == domain.SetupReady {
			ids = append(ids, c.driverID)
		}
	}
	sort.Strings(ids)
	return ids
}

func (s *Sessions) RetryPending(ctx context.Context) (int, error) {
	ids, err := s.flags.DriversPendingRetry(ctx)
	if err != nil {
		return 0, err
	}

	started := 0
	for _, id := range ids {
		_, ok, _ := s.coordinator(id).Setup(ctx)
		if ok {
			started++
		}
	}

	if started > 0 {
		s.log.Info(logger.Entry{
			Action:  "sdk_setup_retry_started",
			Message: "retrying failed sdk setups",
			Additional: map[string]any{
				"pending": len(ids),
				"started": started,
			},
		})
	}
	return started, nil
}

package in_schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"

	in "ridecover/internal/coverage/application/ports/in"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
)

// ReadyDrivers — водители с инициализированным SDK
type ReadyDrivers interface {
	ReadyDrivers() []string
}

// OnDutyDrivers — водители на смене по данным платформы
type OnDutyDrivers interface {
	OnDutyDrivers(ctx context.Context) ([]string, error)
}

// Intervals — периодичность задач; нулевое значение отключает задачу
type Intervals struct {
	RefreshPeriod time.Duration
	CheckSettings time.Duration
	RetrySetup    time.Duration
	// SetupOnDuty запускается сразу после старта: события о выходе на смену до рестарта потеряны
	SetupOnDuty time.Duration
}

// Scheduler — периодические триггеры поверх gocron
type Scheduler struct {
	scheduler    gocron.Scheduler
	updatePeriod in.UpdatePeriodUseCase
	settings     in.CheckSettingsUseCase
	setup        in.SetupUseCase
	ready        ReadyDrivers
	onDuty       OnDutyDrivers
	log          *logger.Logger
	jobs         []string
}

func NewScheduler(
	updatePeriod in.UpdatePeriodUseCase,
	settings in.CheckSettingsUseCase,
	setup in.SetupUseCase,
	ready ReadyDrivers,
	onDuty OnDutyDrivers,
	log *logger.Logger,
) (*Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &Scheduler{
		scheduler:    s,
		updatePeriod: updatePeriod,
		settings:     settings,
		setup:        setup,
		ready:        ready,
		onDuty:       onDuty,
		log:          log,
	}, nil
}

// Register добавляет задачи. Одна и та же задача не запускается параллельно сама с собой.
func (s *Scheduler) Register(ctx context.Context, iv Intervals) error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func(context.Context)
		atStart  bool
	}{
		{"refresh-insurance-period", iv.RefreshPeriod, s.RefreshPeriods, false},
		{"maybe-check-settings", iv.CheckSettings, s.MaybeCheckSettings, false},
		{"retry-pending-setup", iv.RetrySetup, s.RetryPendingSetup, false},
		{"setup-on-duty-drivers", iv.SetupOnDuty, s.SetupOnDutyDrivers, true},
	}

	for _, j := range jobs {
		if j.interval <= 0 {
			continue
		}
		if j.name == "setup-on-duty-drivers" && s.onDuty == nil {
			continue
		}
		opts := []gocron.JobOption{
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		}
		if j.atStart {
			opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
		}
		job, err := s.scheduler.NewJob(
			gocron.DurationJob(j.interval),
			gocron.NewTask(j.run, ctx),
			opts...,
		)
		if err != nil {
			return fmt.Errorf("failed to create %s job: %w", j.name, err)
		}
		s.jobs = append(s.jobs, j.name)
		s.log.Info(logger.Entry{
			Action:  "schedule_job_registered",
			Message: j.name,
			Additional: map[string]any{
				"job_id":   job.ID().String(),
				"interval": j.interval.String(),
			},
		})
	}
	return nil
}

// Jobs returns names of registered jobs.
func (s *Scheduler) Jobs() []string {
	return append([]string(nil), s.jobs...)
}

func (s *Scheduler) Start() {
	s.log.Info(logger.Entry{Action: "scheduler_starting", Message: "starting coverage scheduler"})
	s.scheduler.Start()
}

func (s *Scheduler) Stop() error {
	s.log.Info(logger.Entry{Action: "scheduler_stopping", Message: "stopping coverage scheduler"})
	return s.scheduler.Shutdown()
}

// RefreshPeriods пересчитывает период каждому водителю с готовым SDK
func (s *Scheduler) RefreshPeriods(ctx context.Context) {
	for _, id := range s.ready.ReadyDrivers() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.updatePeriod.Execute(ctx, in.UpdatePeriodInput{DriverID: id, Reason: "interval"}); err != nil {
			s.log.Warn(logger.Entry{
				Action:   "scheduled_refresh_failed",
				Message:  err.Error(),
				DriverID: id,
			})
		}
	}
}

func (s *Scheduler) MaybeCheckSettings(ctx context.Context) {
	for _, id := range s.ready.ReadyDrivers() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.settings.MaybeCheck(ctx, in.CheckSettingsInput{DriverID: id}); err != nil {
			s.log.Warn(logger.Entry{
				Action:   "scheduled_settings_check_failed",
				Message:  err.Error(),
				DriverID: id,
			})
		}
	}
}

func (s *Scheduler) RetryPendingSetup(ctx context.Context) {
	if _, err := s.setup.RetryPending(ctx); err != nil {
		s.log.Error(logger.Entry{
			Action:  "scheduled_setup_retry_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
	}
}

// SetupOnDutyDrivers запускает setup водителям на смене, у которых ещё нет сессии SDK.
// FAILED сессии остаются на retry-pending-setup.
func (s *Scheduler) SetupOnDutyDrivers(ctx context.Context) {
	ids, err := s.onDuty.OnDutyDrivers(ctx)
	if err != nil {
		s.log.Error(logger.Entry{
			Action:  "scheduled_on_duty_lookup_failed",
			Message: err.Error(),
			Error:   &logger.ErrObj{Msg: err.Error()},
		})
		return
	}

	started := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			return
		}
		if s.setup.State(id) != domain.SetupUninitialized {
			continue
		}
		out, err := s.setup.Setup(ctx, in.SetupInput{DriverID: id})
		if err != nil {
			s.log.Warn(logger.Entry{
				Action:   "scheduled_setup_failed",
				Message:  err.Error(),
				DriverID: id,
			})
			continue
		}
		if out.Started {
			started++
		}
	}
	if started > 0 {
		s.log.Info(logger.Entry{
			Action:  "scheduled_setup_started",
			Message: "started sdk setup for on-duty drivers",
			Additional: map[string]any{
				"started": started,
				"on_duty": len(ids),
			},
		})
	}
}

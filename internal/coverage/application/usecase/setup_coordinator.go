package usecase

import (
	"context"
	"sync"

	in "ridecover/internal/coverage/application/ports/in"
	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
)

// SetupConfig — параметры, передаваемые SDK при инициализации
type SetupConfig struct {
	SDKKey        string
	DetectionMode string
}

// SetupCoordinator ведёт инициализацию SDK одного водителя:
// UNINITIALIZED -> INITIALIZING -> READY | FAILED. FAILED не конечное состояние.
type SetupCoordinator struct {
	driverID string
	cfg      SetupConfig

	sdk          out.SDKInitializer
	updatePeriod in.UpdatePeriodUseCase
	presenter    out.NotificationPresenter
	flags        out.FlagStore
	events       out.EventPublisher
	metrics      out.MetricsRecorder
	log          *logger.Logger

	mu    sync.Mutex
	state domain.SetupState
	done  chan struct{}
}

func closedChan() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

// State returns the current setup state.
func (c *SetupCoordinator) State() domain.SetupState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Setup starts SDK initialization unless it is already running or done.
// The returned channel is closed once the outcome has been applied.
func (c *SetupCoordinator) Setup(ctx context.Context) (domain.SetupState, bool, <-chan struct{}) {
	// Отмена не поддерживается: исход setup применяется даже после ухода вызывающего
	ctx = context.WithoutCancel(ctx)

	c.mu.Lock()
	switch c.state {
	case domain.SetupReady:
		c.mu.Unlock()
		return domain.SetupReady, false, closedChan()
	case domain.SetupInitializing:
		done := c.done
		c.mu.Unlock()
		return domain.SetupInitializing, false, done
	}

	if c.state == domain.SetupUninitialized && c.sdk.IsSetup(ctx, c.driverID) {
		c.state = domain.SetupReady
		c.mu.Unlock()
		c.log.Debug(logger.Entry{
			Action:   "sdk_already_setup",
			Message:  "sdk was initialized earlier",
			DriverID: c.driverID,
		})
		// Флаг повтора мог остаться от неудачи до рестарта
		if retry, err := c.flags.RetrySetup(ctx, c.driverID); err != nil || retry {
			c.clearFailure(ctx)
		}
		return domain.SetupReady, false, closedChan()
	}

	c.state = domain.SetupInitializing
	done := make(chan struct{})
	c.done = done
	c.mu.Unlock()

	c.log.Debug(logger.Entry{
		Action:   "sdk_setup_started",
		Message:  "initialize sdk called",
		DriverID: c.driverID,
	})

	pending := c.sdk.Setup(ctx, out.SetupRequest{
		DriverID:      c.driverID,
		SDKKey:        c.cfg.SDKKey,
		DetectionMode: c.cfg.DetectionMode,
	})

	go func() {
		defer close(done)
		res, ok := <-pending
		if !ok {
			res = domain.Failed(domain.ErrorCodeSDKUnavailable)
		}
		if res.Success {
			c.onSuccess(ctx)
		} else {
			c.onFailure(ctx, res.ErrorCode)
		}
		c.metrics.IncSetupOutcome(res.Success)
		if c.events != nil {
			if err := c.events.PublishSetupCompleted(ctx, c.driverID, res); err != nil {
				c.log.Error(logger.Entry{
					Action:   "sdk_setup_publish_failed",
					Message:  err.Error(),
					DriverID: c.driverID,
					Error:    &logger.ErrObj{Msg: err.Error()},
				})
			}
		}
	}()

	return domain.SetupInitializing, true, done
}

func (c *SetupCoordinator) onSuccess(ctx context.Context) {
	c.mu.Lock()
	c.state = domain.SetupReady
	c.mu.Unlock()

	c.log.Info(logger.Entry{
		Action:   "sdk_setup_succeeded",
		Message:  "sdk setup success",
		DriverID: c.driverID,
	})

	// Начальное назначение периода
	if _, err := c.updatePeriod.Execute(ctx, in.UpdatePeriodInput{DriverID: c.driverID, Reason: "setup"}); err != nil {
		c.log.Error(logger.Entry{
			Action:   "sdk_setup_initial_period_failed",
			Message:  err.Error(),
			DriverID: c.driverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
		})
	}

	c.clearFailure(ctx)
}

// clearFailure снимает уведомление о неудачном setup и флаг повтора
func (c *SetupCoordinator) clearFailure(ctx context.Context) {
	if err := c.presenter.Present(ctx, c.driverID, domain.Hide(domain.NotificationSetupFailure)); err != nil {
		c.log.Warn(logger.Entry{
			Action:   "sdk_setup_hide_failure_notification_failed",
			Message:  err.Error(),
			DriverID: c.driverID,
		})
	}

	if err := c.flags.SetRetrySetup(ctx, c.driverID, false); err != nil {
		c.log.Error(logger.Entry{
			Action:   "sdk_setup_retry_flag_failed",
			Message:  err.Error(),
			DriverID: c.driverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
		})
	}
}

func (c *SetupCoordinator) onFailure(ctx context.Context, code string) {
	c.mu.Lock()
	c.state = domain.SetupFailed
	c.mu.Unlock()

	c.log.Warn(logger.Entry{
		Action:   "sdk_setup_failed",
		Message:  "sdk setup failed " + code,
		DriverID: c.driverID,
		Error:    &logger.ErrObj{Msg: "sdk setup failed", Code: code},
	})

	show := domain.Show(domain.NotificationSetupFailure, domain.SetupFailurePayload{ErrorCode: code})
	if err := c.presenter.Present(ctx, c.driverID, show); err != nil {
		c.log.Warn(logger.Entry{
			Action:   "sdk_setup_show_failure_notification_failed",
			Message:  err.Error(),
			DriverID: c.driverID,
		})
	}

	if err := c.flags.SetRetrySetup(ctx, c.driverID, true); err != nil {
		c.log.Error(logger.Entry{
			Action:   "sdk_setup_retry_flag_failed",
			Message:  err.Error(),
			DriverID: c.driverID,
			Error:    &logger.ErrObj{Msg: err.Error()},
		})
	}
}

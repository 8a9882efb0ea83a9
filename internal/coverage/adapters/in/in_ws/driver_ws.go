package in_ws

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	in "ridecover/internal/coverage/application/ports/in"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/auth"
	"ridecover/internal/shared/logger"
	"ridecover/internal/shared/ws"
)

const (
	MessageRefresh       = "coverage.refresh"
	MessageCheckSettings = "coverage.check_settings"
	MessageSetup         = "coverage.setup"

	MessageRefreshResult  = "coverage.refresh_result"
	MessageSettingsResult = "coverage.settings_result"
	MessageSetupState     = "coverage.setup_state"
	MessageError          = "coverage.error"
)

const requestTimeout = 30 * time.Second

// Sender — отправка типизированных сообщений в соединения водителя
type Sender interface {
	SendTypedMessage(userID, msgType string, data any) error
}

// Router разбирает входящие сообщения водителя по типу
type Router struct {
	ctx      context.Context
	sender   Sender
	setup    in.SetupUseCase
	update   in.UpdatePeriodUseCase
	settings in.CheckSettingsUseCase
	fallback ws.MessageHandler
	log      *logger.Logger
}

// NewRouter — fallback получает все неизвестные типы (например coverage.sync для presenter)
func NewRouter(
	ctx context.Context,
	sender Sender,
	setup in.SetupUseCase,
	update in.UpdatePeriodUseCase,
	settings in.CheckSettingsUseCase,
	fallback ws.MessageHandler,
	log *logger.Logger,
) *Router {
	return &Router{
		ctx:      ctx,
		sender:   sender,
		setup:    setup,
		update:   update,
		settings: settings,
		fallback: fallback,
		log:      log,
	}
}

// HandleMessage реализует ws.MessageHandler
func (r *Router) HandleMessage(client *ws.Client, messageType string, data json.RawMessage) error {
	if client.Role != auth.RoleDriver {
		if r.fallback != nil {
			return r.fallback(client, messageType, data)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(r.ctx, requestTimeout)
	defer cancel()

	switch messageType {
	case MessageSetup:
		out, err := r.setup.Setup(ctx, in.SetupInput{DriverID: client.UserID})
		if err != nil {
			return r.replyError(client, messageType, err)
		}
		return r.sender.SendTypedMessage(client.UserID, MessageSetupState, map[string]any{
			"state":   out.State,
			"started": out.Started,
		})

	case MessageRefresh:
		if state := r.setup.State(client.UserID); state != domain.SetupReady {
			return r.replyError(client, messageType, fmt.Errorf("driving sdk is not ready: %s", state))
		}
		out, err := r.update.Execute(ctx, in.UpdatePeriodInput{DriverID: client.UserID, Reason: "manual"})
		if err != nil {
			return r.replyError(client, messageType, err)
		}
		return r.sender.SendTypedMessage(client.UserID, MessageRefreshResult, map[string]any{
			"trip_state": out.State,
			"decision":   out.Decision,
		})

	case MessageCheckSettings:
		out, err := r.settings.Check(ctx, in.CheckSettingsInput{DriverID: client.UserID})
		if err != nil {
			return r.replyError(client, messageType, err)
		}
		return r.sender.SendTypedMessage(client.UserID, MessageSettingsResult, out)

	default:
		if r.fallback != nil {
			return r.fallback(client, messageType, data)
		}
		r.log.Debug(logger.Entry{
			Action:   "driver_ws_unknown_message_type",
			Message:  "unknown message type: " + messageType,
			DriverID: client.UserID,
		})
		return nil
	}
}

func (r *Router) replyError(client *ws.Client, messageType string, err error) error {
	r.log.Warn(logger.Entry{
		Action:   "driver_ws_request_failed",
		Message:  err.Error(),
		DriverID: client.UserID,
		Additional: map[string]any{
			"msg_type": messageType,
		},
	})
	return r.sender.SendTypedMessage(client.UserID, MessageError, map[string]string{
		"request": messageType,
		"message": err.Error(),
	})
}

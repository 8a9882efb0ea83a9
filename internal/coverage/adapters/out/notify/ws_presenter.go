package notify

import (
	"context"
	"encoding/json"
	"errors"

	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
	"ridecover/internal/shared/ws"
)

const (
	MessageNotification = "coverage.notification"
	MessageSync         = "coverage.sync"
)

// TypedSender — часть ws.Hub, через которую уходят сообщения
type TypedSender interface {
	SendTypedMessage(userID, msgType string, data any) error
}

// WSPresenter доставляет уведомления в WebSocket соединения водителя.
// Офлайн водитель не ошибка: при подключении он запросит coverage.sync.
type WSPresenter struct {
	hub   TypedSender
	board *Board
	log   *logger.Logger
}

var _ out.NotificationPresenter = (*WSPresenter)(nil)

func NewWSPresenter(hub TypedSender, board *Board, log *logger.Logger) *WSPresenter {
	return &WSPresenter{hub: hub, board: board, log: log}
}

func (p *WSPresenter) Present(_ context.Context, driverID string, a domain.NotificationAction) error {
	if !p.board.Apply(driverID, a) {
		return nil
	}

	err := p.hub.SendTypedMessage(driverID, MessageNotification, a)
	if errors.Is(err, ws.ErrNotConnected) {
		p.log.Debug(logger.Entry{
			Action:   "notification_deferred",
			Message:  string(a.Kind) + " " + string(a.ID),
			DriverID: driverID,
		})
		return nil
	}
	return err
}

// HandleMessage отвечает на coverage.sync полным списком показанных уведомлений
func (p *WSPresenter) HandleMessage(client *ws.Client, messageType string, _ json.RawMessage) error {
	if messageType != MessageSync {
		return nil
	}
	return p.hub.SendTypedMessage(client.UserID, MessageSync, p.board.Shown(client.UserID))
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	firebase "firebase.google.com/go"
	"firebase.google.com/go/messaging"
	"google.golang.org/api/option"

	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
)

// MessagingClient — часть *messaging.Client
type MessagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// FCMPresenter отправляет data-сообщения в топик driver-{id}; приложение
// водителя подписано на свой топик и само рисует или убирает уведомление.
type FCMPresenter struct {
	client MessagingClient
	board  *Board
	log    *logger.Logger
}

var _ out.NotificationPresenter = (*FCMPresenter)(nil)

func NewFCMClient(ctx context.Context, credentialsFile string) (*messaging.Client, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}
	return client, nil
}

func NewFCMPresenter(client MessagingClient, board *Board, log *logger.Logger) *FCMPresenter {
	return &FCMPresenter{client: client, board: board, log: log}
}

func DriverTopic(driverID string) string {
	return "driver-" + driverID
}

func (p *FCMPresenter) Present(ctx context.Context, driverID string, a domain.NotificationAction) error {
	if !p.board.Apply(driverID, a) {
		return nil
	}

	data := map[string]string{
		"type":            MessageNotification,
		"notification_id": string(a.ID),
		"kind":            string(a.Kind),
	}
	if a.Payload != nil {
		b, err := json.Marshal(a.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		data["payload"] = string(b)
	}

	msg := &messaging.Message{
		Topic: DriverTopic(driverID),
		Data:  data,
		Android: &messaging.AndroidConfig{
			Priority:    "high",
			CollapseKey: string(a.ID),
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":    "5",
				"apns-collapse-id": string(a.ID),
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{ContentAvailable: true},
			},
		},
	}

	id, err := p.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("fcm send %s: %w", a.ID, err)
	}

	p.log.Debug(logger.Entry{
		Action:   "fcm_notification_sent",
		Message:  id,
		DriverID: driverID,
		Additional: map[string]any{
			"notification_id": a.ID,
			"kind":            a.Kind,
		},
	})
	return nil
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"firebase.google.com/go/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
	"ridecover/internal/shared/ws"
)

type sentMessage struct {
	UserID string
	Type   string
	Data   any
}

type fakeHub struct {
	sent      []sentMessage
	connected bool
}

func (h *fakeHub) SendTypedMessage(userID, msgType string, data any) error {
	if !h.connected {
		return ws.ErrNotConnected
	}
	h.sent = append(h.sent, sentMessage{UserID: userID, Type: msgType, Data: data})
	return nil
}

func TestBoardShowReplacesAndHideIsNoopWhenHidden(t *testing.T) {
	b := NewBoard()

	assert.False(t, b.Apply("d-1", domain.Hide(domain.NotificationPSM)))
	assert.True(t, b.Apply("d-1", domain.Show(domain.NotificationPSM, domain.PSMPayload{IsError: true})))
	assert.True(t, b.Apply("d-1", domain.Show(domain.NotificationPSM, domain.PSMPayload{IsError: false})))

	shown := b.Shown("d-1")
	require.Len(t, shown, 1)
	assert.Equal(t, domain.PSMPayload{IsError: false}, shown[0].Payload)

	assert.True(t, b.Apply("d-1", domain.Hide(domain.NotificationPSM)))
	assert.Empty(t, b.Shown("d-1"))
}

func TestWSPresenterSkipsRedundantHides(t *testing.T) {
	hub := &fakeHub{connected: true}
	p := NewWSPresenter(hub, NewBoard(), logger.Nop())
	ctx := context.Background()

	for _, id := range domain.SettingsNotificationIDs() {
		require.NoError(t, p.Present(ctx, "d-1", domain.Hide(id)))
	}
	require.NoError(t, p.Present(ctx, "d-1", domain.Show(domain.NotificationLocationDisabled, nil)))

	require.Len(t, hub.sent, 1)
	assert.Equal(t, MessageNotification, hub.sent[0].Type)
	assert.Equal(t, domain.Show(domain.NotificationLocationDisabled, nil), hub.sent[0].Data)
}

func TestWSPresenterOfflineDriverThenSync(t *testing.T) {
	hub := &fakeHub{}
	p := NewWSPresenter(hub, NewBoard(), logger.Nop())

	require.NoError(t, p.Present(context.Background(), "d-1", domain.Show(domain.NotificationSetupFailure, domain.SetupFailurePayload{ErrorCode: "NETWORK"})))
	assert.Empty(t, hub.sent)

	hub.connected = true
	require.NoError(t, p.HandleMessage(&ws.Client{UserID: "d-1"}, MessageSync, nil))

	require.Len(t, hub.sent, 1)
	assert.Equal(t, MessageSync, hub.sent[0].Type)
	assert.Equal(t, []domain.NotificationAction{
		domain.Show(domain.NotificationSetupFailure, domain.SetupFailurePayload{ErrorCode: "NETWORK"}),
	}, hub.sent[0].Data)
}

type fakeMessaging struct {
	msgs []*messaging.Message
	err  error
}

func (f *fakeMessaging) Send(_ context.Context, m *messaging.Message) (string, error) {
	f.msgs = append(f.msgs, m)
	return "projects/x/messages/1", f.err
}

func TestFCMPresenterBuildsTopicDataMessage(t *testing.T) {
	fm := &fakeMessaging{}
	p := NewFCMPresenter(fm, NewBoard(), logger.Nop())

	err := p.Present(context.Background(), "d-1", domain.Show(domain.NotificationPSM, domain.PSMPayload{IsError: true}))
	require.NoError(t, err)

	require.Len(t, fm.msgs, 1)
	m := fm.msgs[0]
	assert.Equal(t, "driver-d-1", m.Topic)
	assert.Equal(t, "PSM", m.Data["notification_id"])
	assert.Equal(t, "SHOW", m.Data["kind"])
	assert.Equal(t, "PSM", m.Android.CollapseKey)

	var payload domain.PSMPayload
	require.NoError(t, json.Unmarshal([]byte(m.Data["payload"]), &payload))
	assert.True(t, payload.IsError)
}

func TestFCMPresenterWrapsSendError(t *testing.T) {
	boom := errors.New("quota exceeded")
	p := NewFCMPresenter(&fakeMessaging{err: boom}, NewBoard(), logger.Nop())

	err := p.Present(context.Background(), "d-1", domain.Show(domain.NotificationWifiScanningDisabled, nil))
	require.ErrorIs(t, err, boom)
}

package in_ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridecover/internal/coverage/adapters/out/sdk"
	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/application/usecase"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/config"
	"ridecover/internal/shared/logger"
)

type waitingPassenger struct{}

func (waitingPassenger) TripState(context.Context, string) (domain.TripState, error) {
	return domain.TripState{IsOnDuty: true, PassengersWaiting: 1, TrackingID: "ride-3"}, nil
}

func (waitingPassenger) OnDutyDrivers(context.Context) ([]string, error) { return nil, nil }

type periodOutcomes struct {
	out.NoopRecorder
	mu  sync.Mutex
	got []domain.Period
	ok  []bool
}

func (p *periodOutcomes) IncPeriodDispatch(period domain.Period, success bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, period)
	p.ok = append(p.ok, success)
}

func (p *periodOutcomes) snapshot() ([]domain.Period, []bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Period(nil), p.got...), append([]bool(nil), p.ok...)
}

func TestRefreshOutlivesMessageHandling(t *testing.T) {
	bridge := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(bridge.Close)
	client := sdk.NewClient(config.SDKConfig{BaseURL: bridge.URL, Timeout: 2 * time.Second}, logger.Nop())

	outcomes := &periodOutcomes{}
	update := usecase.NewUpdatePeriodUseCase(
		waitingPassenger{},
		usecase.NewInsuranceDispatcher(client, nil, outcomes, logger.Nop()),
		logger.Nop(),
	)
	sender := &fakeSender{}
	r := NewRouter(context.Background(), sender, &fakeSetup{state: domain.SetupReady}, update, &fakeSettings{}, nil, logger.Nop())

	require.NoError(t, r.HandleMessage(driver, MessageRefresh, nil))
	require.Len(t, sender.sent, 1)
	assert.Equal(t, MessageRefreshResult, sender.sent[0].Type)

	require.Eventually(t, func() bool {
		periods, _ := outcomes.snapshot()
		return len(periods) == 1
	}, 2*time.Second, 10*time.Millisecond)
	periods, ok := outcomes.snapshot()
	assert.Equal(t, []domain.Period{domain.Period2}, periods)
	assert.Equal(t, []bool{true}, ok)
}

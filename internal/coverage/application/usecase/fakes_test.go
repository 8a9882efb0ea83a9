package usecase

import (
	"context"
	"sync"

	in "ridecover/internal/coverage/application/ports/in"
	out "ridecover/internal/coverage/application/ports/out"
	"ridecover/internal/coverage/domain"
)

func resultChan(r domain.OperationResult) <-chan domain.OperationResult {
	ch := make(chan domain.OperationResult, 1)
	ch <- r
	close(ch)
	return ch
}

type trackerCall struct {
	Op         string
	DriverID   string
	TrackingID string
}

type fakeTracker struct {
	mu     sync.Mutex
	calls  []trackerCall
	result domain.OperationResult
	// pending, если задан, возвращается вместо готового результата
	pending chan domain.OperationResult
}

// record ведёт себя как HTTP клиент SDK: вызов с отменённым ctx завершается CANCELED
func (f *fakeTracker) record(ctx context.Context, op, driverID, trackingID string) <-chan domain.OperationResult {
	f.mu.Lock()
	f.calls = append(f.calls, trackerCall{Op: op, DriverID: driverID, TrackingID: trackingID})
	f.mu.Unlock()
	if f.pending == nil {
		if ctx.Err() != nil {
			return resultChan(domain.Failed(domain.ErrorCodeCanceled))
		}
		return resultChan(f.result)
	}

	ch := make(chan domain.OperationResult, 1)
	go func() {
		defer close(ch)
		var (
			res domain.OperationResult
			ok  bool
		)
		select {
		case res, ok = <-f.pending:
		case <-ctx.Done():
			ch <- domain.Failed(domain.ErrorCodeCanceled)
			return
		}
		if !ok {
			return
		}
		if ctx.Err() != nil {
			res = domain.Failed(domain.ErrorCodeCanceled)
		}
		ch <- res
	}()
	return ch
}

func (f *fakeTracker) StopPeriod(ctx context.Context, driverID string) <-chan domain.OperationResult {
	return f.record(ctx, "stop", driverID, "")
}

func (f *fakeTracker) StartPeriod1(ctx context.Context, driverID string) <-chan domain.OperationResult {
	return f.record(ctx, "period1", driverID, "")
}

func (f *fakeTracker) StartDriveWithPeriod2(ctx context.Context, driverID, trackingID string) <-chan domain.OperationResult {
	return f.record(ctx, "period2", driverID, trackingID)
}

func (f *fakeTracker) StartDriveWithPeriod3(ctx context.Context, driverID, trackingID string) <-chan domain.OperationResult {
	return f.record(ctx, "period3", driverID, trackingID)
}

func (f *fakeTracker) Calls() []trackerCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]trackerCall(nil), f.calls...)
}

type fakeTrips struct {
	states map[string]domain.TripState
	err    error
}

func (f *fakeTrips) TripState(_ context.Context, driverID string) (domain.TripState, error) {
	if f.err != nil {
		return domain.TripState{}, f.err
	}
	s, ok := f.states[driverID]
	if !ok {
		return domain.TripState{}, domain.ErrUnknownDriver
	}
	return s, nil
}

func (f *fakeTrips) OnDutyDrivers(context.Context) ([]string, error) {
	var ids []string
	for id, s := range f.states {
		if s.IsOnDuty {
			ids = append(ids, id)
		}
	}
	return ids, f.err
}

type presented struct {
	DriverID string
	Action   domain.NotificationAction
}

type fakePresenter struct {
	mu      sync.Mutex
	actions []presented
	err     error
}

func (f *fakePresenter) Present(_ context.Context, driverID string, a domain.NotificationAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, presented{DriverID: driverID, Action: a})
	return f.err
}

func (f *fakePresenter) Actions() []domain.NotificationAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	res := make([]domain.NotificationAction, 0, len(f.actions))
	for _, p := range f.actions {
		res = append(res, p.Action)
	}
	return res
}

type fakeFlags struct {
	mu       sync.Mutex
	retry    map[string]bool
	errFound map[string]bool
	warnFnd  map[string]bool
	readErr  error
}

func newFakeFlags() *fakeFlags {
	return &fakeFlags{
		retry:    map[string]bool{},
		errFound: map[string]bool{},
		warnFnd:  map[string]bool{},
	}
}

func (f *fakeFlags) get(m map[string]bool, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return false, f.readErr
	}
	return m[id], nil
}

func (f *fakeFlags) set(m map[string]bool, id string, v bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m[id] = v
	return nil
}

func (f *fakeFlags) RetrySetup(_ context.Context, id string) (bool, error) { return f.get(f.retry, id) }
func (f *fakeFlags) SetRetrySetup(_ context.Context, id string, v bool) error {
	return f.set(f.retry, id, v)
}
func (f *fakeFlags) SettingsErrorFound(_ context.Context, id string) (bool, error) {
	return f.get(f.errFound, id)
}
func (f *fakeFlags) SetSettingsErrorFound(_ context.Context, id string, v bool) error {
	return f.set(f.errFound, id, v)
}
func (f *fakeFlags) SettingsWarningFound(_ context.Context, id string) (bool, error) {
	return f.get(f.warnFnd, id)
}
func (f *fakeFlags) SetSettingsWarningFound(_ context.Context, id string, v bool) error {
	return f.set(f.warnFnd, id, v)
}

func (f *fakeFlags) DriversPendingRetry(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	for id, v := range f.retry {
		if v {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

type fakeChecker struct {
	mu     sync.Mutex
	report *domain.SettingsReport
	calls  int
}

func (f *fakeChecker) Settings(context.Context, string) <-chan *domain.SettingsReport {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	ch := make(chan *domain.SettingsReport, 1)
	ch <- f.report
	close(ch)
	return ch
}

type fakeSDK struct {
	mu        sync.Mutex
	setup     bool
	calls     []out.SetupRequest
	result    domain.OperationResult
	pending   chan domain.OperationResult
	isSetupCt int
}

func (f *fakeSDK) IsSetup(context.Context, string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isSetupCt++
	return f.setup
}

func (f *fakeSDK) Setup(_ context.Context, req out.SetupRequest) <-chan domain.OperationResult {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.pending != nil {
		return f.pending
	}
	return resultChan(f.result)
}

func (f *fakeSDK) SetupCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeUpdatePeriod struct {
	mu    sync.Mutex
	calls []in.UpdatePeriodInput
	err   error
}

func (f *fakeUpdatePeriod) Execute(_ context.Context, input in.UpdatePeriodInput) (*in.UpdatePeriodOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, input)
	if f.err != nil {
		return nil, f.err
	}
	return &in.UpdatePeriodOutput{DriverID: input.DriverID, Completion: resultChan(domain.Succeeded())}, nil
}

func (f *fakeUpdatePeriod) Calls() []in.UpdatePeriodInput {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]in.UpdatePeriodInput(nil), f.calls...)
}

type periodEvent struct {
	DriverID string
	Period   domain.Period
	Result   domain.OperationResult
}

type fakeEvents struct {
	mu       sync.Mutex
	periods  []periodEvent
	setups   []domain.OperationResult
	diagRuns int
}

func (f *fakeEvents) PublishPeriodChanged(_ context.Context, driverID string, d domain.PeriodDecision, r domain.OperationResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.periods = append(f.periods, periodEvent{DriverID: driverID, Period: d.Period(), Result: r})
	return nil
}

func (f *fakeEvents) PublishSetupCompleted(_ context.Context, _ string, r domain.OperationResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setups = append(f.setups, r)
	return nil
}

func (f *fakeEvents) PublishDiagnostics(context.Context, string, []domain.NotificationAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.diagRuns++
	return nil
}

type fakeMetrics struct {
	mu       sync.Mutex
	dispatch map[domain.Period]int
	failures int
	setupOK  int
	setupBad int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{dispatch: map[domain.Period]int{}}
}

func (m *fakeMetrics) IncPeriodDispatch(p domain.Period, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatch[p]++
	if !ok {
		m.failures++
	}
}

func (m *fakeMetrics) IncNotificationAction(domain.NotificationID, domain.ActionKind) {}

func (m *fakeMetrics) IncSetupOutcome(ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ok {
		m.setupOK++
	} else {
		m.setupBad++
	}
}

func (m *fakeMetrics) IncSettingsCheck(bool) {}

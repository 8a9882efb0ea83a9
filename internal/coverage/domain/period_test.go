package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyOffDutyIsAlwaysNone(t *testing.T) {
	for inCar := 0; inCar <= 3; inCar++ {
		for waiting := 0; waiting <= 3; waiting++ {
			got := Classify(TripState{IsOnDuty: false, PassengersInCar: inCar, PassengersWaiting: waiting, TrackingID: "ride-1"})
			assert.Equal(t, PeriodNone, got.Period(), "in_car=%d waiting=%d", inCar, waiting)
			_, ok := got.TrackingID()
			assert.False(t, ok)
		}
	}
}

func TestClassifyPriority(t *testing.T) {
	tests := []struct {
		name       string
		state      TripState
		wantPeriod Period
		wantID     string
		wantHasID  bool
	}{
		{"passenger in car", TripState{IsOnDuty: true, PassengersInCar: 1, TrackingID: "t-3"}, Period3, "t-3", true},
		{"in car outranks waiting", TripState{IsOnDuty: true, PassengersInCar: 2, PassengersWaiting: 5, TrackingID: "t-x"}, Period3, "t-x", true},
		{"passenger waiting", TripState{IsOnDuty: true, PassengersWaiting: 1, TrackingID: "t-2"}, Period2, "t-2", true},
		{"on duty idle", TripState{IsOnDuty: true, TrackingID: "stale"}, Period1, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.state)
			assert.Equal(t, tt.wantPeriod, got.Period())
			id, ok := got.TrackingID()
			assert.Equal(t, tt.wantHasID, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestPeriod1NeverCarriesTrackingID(t *testing.T) {
	_, ok := StartPeriod1().TrackingID()
	assert.False(t, ok)
	_, ok = NoPeriod().TrackingID()
	assert.False(t, ok)
}

func TestPeriodDecisionJSON(t *testing.T) {
	b, err := json.Marshal(StartPeriod2("ride-42"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"period":"PERIOD_2","level":2,"tracking_id":"ride-42"}`, string(b))

	b, err = json.Marshal(StartPeriod1())
	require.NoError(t, err)
	assert.JSONEq(t, `{"period":"PERIOD_1","level":1}`, string(b))
}

func TestPeriodDecisionString(t *testing.T) {
	assert.Equal(t, "PERIOD_3(abc)", StartPeriod3("abc").String())
	assert.Equal(t, "NONE", NoPeriod().String())
}

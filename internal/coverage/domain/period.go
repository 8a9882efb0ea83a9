package domain

import (
	"encoding/json"
	"fmt"
)

// Period — уровень страхового покрытия поездки (0–3).
type Period int

const (
	PeriodNone Period = iota
	Period1
	Period2
	Period3
)

func (p Period) String() string {
	switch p {
	case PeriodNone:
		return "NONE"
	case Period1:
		return "PERIOD_1"
	case Period2:
		return "PERIOD_2"
	case Period3:
		return "PERIOD_3"
	default:
		return fmt.Sprintf("PERIOD(%d)", int(p))
	}
}

// PeriodDecision — результат классификации. Tracking id есть только у периодов 2 и 3,
// это гарантируют конструкторы: поля не экспортируются.
type PeriodDecision struct {
	period     Period
	trackingID string
}

func NoPeriod() PeriodDecision { return PeriodDecision{period: PeriodNone} }

func StartPeriod1() PeriodDecision { return PeriodDecision{period: Period1} }

func StartPeriod2(trackingID string) PeriodDecision {
	return PeriodDecision{period: Period2, trackingID: trackingID}
}

func StartPeriod3(trackingID string) PeriodDecision {
	return PeriodDecision{period: Period3, trackingID: trackingID}
}

func (d PeriodDecision) Period() Period { return d.period }

// TrackingID returns the id carried by period 2 and 3 decisions.
func (d PeriodDecision) TrackingID() (string, bool) {
	if d.period == Period2 || d.period == Period3 {
		return d.trackingID, true
	}
	return "", false
}

func (d PeriodDecision) String() string {
	if id, ok := d.TrackingID(); ok {
		return fmt.Sprintf("%s(%s)", d.period, id)
	}
	return d.period.String()
}

func (d PeriodDecision) MarshalJSON() ([]byte, error) {
	v := struct {
		Period     string `json:"period"`
		Level      int    `json:"level"`
		TrackingID string `json:"tracking_id,omitempty"`
	}{Period: d.period.String(), Level: int(d.period)}
	v.TrackingID, _ = d.TrackingID()
	return json.Marshal(v)
}

// Classify определяет страховой период по состоянию поездки.
// Правила проверяются по приоритету, срабатывает первое:
// не на смене -> нет периода; пассажир в машине -> 3; пассажир ждёт -> 2; иначе 1.
func Classify(state TripState) PeriodDecision {
	switch {
	case !state.IsOnDuty:
		return NoPeriod()
	case state.PassengersInCar > 0:
		return StartPeriod3(state.TrackingID)
	case state.PassengersWaiting > 0:
		return StartPeriod2(state.TrackingID)
	default:
		return StartPeriod1()
	}
}

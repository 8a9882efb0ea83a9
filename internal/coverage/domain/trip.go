package domain

// TripState — текущее состояние поездки водителя. Только для чтения.
type TripState struct {
	IsOnDuty          bool   `json:"is_on_duty"`
	PassengersInCar   int    `json:"passengers_in_car"`
	PassengersWaiting int    `json:"passengers_waiting"`
	TrackingID        string `json:"tracking_id,omitempty"`
}

package model

// ==== Ride Status ====
const (
	RideStatusRequested  = "REQUESTED"
	RideStatusMatched    = "MATCHED"
	RideStatusEnRoute    = "EN_ROUTE"
	RideStatusArrived    = "ARRIVED"
	RideStatusInProgress = "IN_PROGRESS"
	RideStatusCompleted  = "COMPLETED"
	RideStatusCancelled  = "CANCELLED"
)

// ==== Driver Status ====
const (
	DriverStatusOffline   = "OFFLINE"
	DriverStatusAvailable = "AVAILABLE"
	DriverStatusEnRoute   = "EN_ROUTE"
	DriverStatusBusy      = "BUSY"
)

// OnDutyDriverStatuses — водитель на смене и может получать заказы или везти пассажира
var OnDutyDriverStatuses = []string{DriverStatusAvailable, DriverStatusEnRoute, DriverStatusBusy}

// WaitingRideStatuses — водитель назначен, пассажир ещё не в машине
var WaitingRideStatuses = []string{RideStatusMatched, RideStatusEnRoute, RideStatusArrived}

// ActiveRideStatuses — поездки, которые дают страховой период 2 или 3
var ActiveRideStatuses = []string{RideStatusMatched, RideStatusEnRoute, RideStatusArrived, RideStatusInProgress}

func IsOnDuty(driverStatus string) bool {
	for _, s := range OnDutyDriverStatuses {
		if s == driverStatus {
			return true
		}
	}
	return false
}

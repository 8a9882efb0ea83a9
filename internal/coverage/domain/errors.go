package domain

import "errors"

var (
	// ErrTripStateUnavailable возникает, когда состояние поездки нельзя получить
	ErrTripStateUnavailable = errors.New("trip state unavailable")

	// ErrUnknownDriver возникает, когда водитель не найден
	ErrUnknownDriver = errors.New("unknown driver")

	// ErrSDKUnavailable возникает, когда внешний SDK не отвечает
	ErrSDKUnavailable = errors.New("driving sdk unavailable")

	// ErrInvalidTrackingID возникает для периодов 2 и 3 без tracking id
	ErrInvalidTrackingID = errors.New("tracking id required for period 2 and 3")

	// ErrEmptyDriverID возникает при пустом driver id
	ErrEmptyDriverID = errors.New("driver id is required")
)

package domain

// NotificationID — стабильный идентификатор уведомления на устройстве водителя.
type NotificationID string

const (
	NotificationPSM                      NotificationID = "PSM"
	NotificationBackgroundRestricted     NotificationID = "BACKGROUND_RESTRICTED"
	NotificationGooglePlaySettings       NotificationID = "GOOGLE_PLAY_SETTINGS"
	NotificationLocationPermissionDenied NotificationID = "LOCATION_PERMISSION_DENIED"
	NotificationLocationDisabled         NotificationID = "LOCATION_DISABLED"
	NotificationWifiScanningDisabled     NotificationID = "WIFI_SCANNING_DISABLED"

	NotificationSetupFailure NotificationID = "SETUP_FAILURE"
)

// SettingsNotificationIDs lists every settings-related id in hide order.
func SettingsNotificationIDs() []NotificationID {
	return []NotificationID{
		NotificationPSM,
		NotificationBackgroundRestricted,
		NotificationGooglePlaySettings,
		NotificationLocationPermissionDenied,
		NotificationLocationDisabled,
		NotificationWifiScanningDisabled,
	}
}

type ActionKind string

const (
	ActionShow ActionKind = "SHOW"
	ActionHide ActionKind = "HIDE"
)

// NotificationAction — команда показать или скрыть уведомление.
// Payload: PSMPayload, GooglePlaySettingsResult, SetupFailurePayload или nil.
type NotificationAction struct {
	ID      NotificationID `json:"id"`
	Kind    ActionKind     `json:"kind"`
	Payload any            `json:"payload,omitempty"`
}

type PSMPayload struct {
	IsError bool `json:"is_error"`
}

type SetupFailurePayload struct {
	ErrorCode string `json:"error_code,omitempty"`
}

func Show(id NotificationID, payload any) NotificationAction {
	return NotificationAction{ID: id, Kind: ActionShow, Payload: payload}
}

func Hide(id NotificationID) NotificationAction {
	return NotificationAction{ID: id, Kind: ActionHide}
}

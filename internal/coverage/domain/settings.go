package domain

// Типы ошибок и предупреждений, которые сообщает SDK.
const (
	SettingPowerSaverModeEnabled       = "POWER_SAVER_MODE_ENABLED"
	SettingBackgroundRestrictionEnable = "BACKGROUND_RESTRICTION_ENABLED"
	SettingGooglePlaySettingsError     = "GOOGLE_PLAY_SETTINGS_ERROR"
	SettingLocationPermissionDenied    = "LOCATION_PERMISSION_DENIED"
	SettingLocationSettingsError       = "LOCATION_SETTINGS_ERROR"
	SettingWifiScanningDisabled        = "WIFI_SCANNING_DISABLED"
)

// GooglePlaySettingsResult — исходный объект результата проверки настроек Google Play.
type GooglePlaySettingsResult struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message,omitempty"`
	Resolvable    bool   `json:"resolvable"`
}

// SettingsError is a closed set of variants; isSettingsError keeps foreign types out.
type SettingsError interface {
	Type() string
	isSettingsError()
}

type PowerSaverModeError struct{}
type BackgroundRestrictionError struct{}
type GooglePlaySettingsError struct {
	Result GooglePlaySettingsResult
}
type LocationPermissionDeniedError struct{}
type LocationSettingsError struct{}
type WifiScanningDisabledError struct{}

// UnknownSettingsError — тип, который эта версия ещё не знает.
type UnknownSettingsError struct {
	Kind string
}

func (PowerSaverModeError) Type() string           { return SettingPowerSaverModeEnabled }
func (BackgroundRestrictionError) Type() string    { return SettingBackgroundRestrictionEnable }
func (GooglePlaySettingsError) Type() string       { return SettingGooglePlaySettingsError }
func (LocationPermissionDeniedError) Type() string { return SettingLocationPermissionDenied }
func (LocationSettingsError) Type() string         { return SettingLocationSettingsError }
func (WifiScanningDisabledError) Type() string     { return SettingWifiScanningDisabled }
func (e UnknownSettingsError) Type() string        { return e.Kind }

func (PowerSaverModeError) isSettingsError()           {}
func (BackgroundRestrictionError) isSettingsError()    {}
func (GooglePlaySettingsError) isSettingsError()       {}
func (LocationPermissionDeniedError) isSettingsError() {}
func (LocationSettingsError) isSettingsError()         {}
func (WifiScanningDisabledError) isSettingsError()     {}
func (UnknownSettingsError) isSettingsError()          {}

type SettingsWarning interface {
	Type() string
	isSettingsWarning()
}

type PowerSaverModeWarning struct{}

type UnknownSettingsWarning struct {
	Kind string
}

func (PowerSaverModeWarning) Type() string    { return SettingPowerSaverModeEnabled }
func (w UnknownSettingsWarning) Type() string { return w.Kind }

func (PowerSaverModeWarning) isSettingsWarning()  {}
func (UnknownSettingsWarning) isSettingsWarning() {}

// NewSettingsError maps an SDK type tag to its variant. gp is used only for
// GOOGLE_PLAY_SETTINGS_ERROR and may be nil.
func NewSettingsError(kind string, gp *GooglePlaySettingsResult) SettingsError {
	switch kind {
	case SettingPowerSaverModeEnabled:
		return PowerSaverModeError{}
	case SettingBackgroundRestrictionEnable:
		return BackgroundRestrictionError{}
	case SettingGooglePlaySettingsError:
		e := GooglePlaySettingsError{}
		if gp != nil {
			e.Result = *gp
		}
		return e
	case SettingLocationPermissionDenied:
		return LocationPermissionDeniedError{}
	case SettingLocationSettingsError:
		return LocationSettingsError{}
	case SettingWifiScanningDisabled:
		return WifiScanningDisabledError{}
	default:
		return UnknownSettingsError{Kind: kind}
	}
}

func NewSettingsWarning(kind string) SettingsWarning {
	if kind == SettingPowerSaverModeEnabled {
		return PowerSaverModeWarning{}
	}
	return UnknownSettingsWarning{Kind: kind}
}

// SettingsReport — результат одной проверки настроек устройства.
type SettingsReport struct {
	Errors   []SettingsError
	Warnings []SettingsWarning
}

func (r *SettingsReport) HasErrors() bool { return r != nil && len(r.Errors) > 0 }

func (r *SettingsReport) HasWarnings() bool { return r != nil && len(r.Warnings) > 0 }

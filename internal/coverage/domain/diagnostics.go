package domain

// Reconcile converts a settings report into notification actions.
// A nil report means settings are unavailable and yields nothing. Otherwise every
// settings notification is hidden first, then errors are shown in input order,
// then warnings. For a shared id the warning is therefore the final action.
func Reconcile(report *SettingsReport) []NotificationAction {
	if report == nil {
		return nil
	}

	ids := SettingsNotificationIDs()
	actions := make([]NotificationAction, 0, len(ids)+len(report.Errors)+len(report.Warnings))
	for _, id := range ids {
		actions = append(actions, Hide(id))
	}

	for _, e := range report.Errors {
		if a, ok := actionForError(e); ok {
			actions = append(actions, a)
		}
	}
	for _, w := range report.Warnings {
		if a, ok := actionForWarning(w); ok {
			actions = append(actions, a)
		}
	}
	return actions
}

func actionForError(e SettingsError) (NotificationAction, bool) {
	switch v := e.(type) {
	case PowerSaverModeError:
		return Show(NotificationPSM, PSMPayload{IsError: true}), true
	case BackgroundRestrictionError:
		return Show(NotificationBackgroundRestricted, nil), true
	case GooglePlaySettingsError:
		return Show(NotificationGooglePlaySettings, v.Result), true
	case LocationPermissionDeniedError:
		return Show(NotificationLocationPermissionDenied, nil), true
	case LocationSettingsError:
		return Show(NotificationLocationDisabled, nil), true
	case WifiScanningDisabledError:
		return Show(NotificationWifiScanningDisabled, nil), true
	case UnknownSettingsError:
		return NotificationAction{}, false
	default:
		return NotificationAction{}, false
	}
}

func actionForWarning(w SettingsWarning) (NotificationAction, bool) {
	switch w.(type) {
	case PowerSaverModeWarning:
		return Show(NotificationPSM, PSMPayload{IsError: false}), true
	default:
		return NotificationAction{}, false
	}
}

package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hideAll() []NotificationAction {
	var out []NotificationAction
	for _, id := range SettingsNotificationIDs() {
		out = append(out, Hide(id))
	}
	return out
}

func TestReconcileUnavailableProducesNothing(t *testing.T) {
	assert.Empty(t, Reconcile(nil))
}

func TestReconcileEmptyReportOnlyHides(t *testing.T) {
	got := Reconcile(&SettingsReport{})
	if diff := cmp.Diff(hideAll(), got); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileMapsEveryErrorInOrder(t *testing.T) {
	gp := GooglePlaySettingsResult{StatusCode: 6, StatusMessage: "RESOLUTION_REQUIRED", Resolvable: true}
	report := &SettingsReport{
		Errors: []SettingsError{
			WifiScanningDisabledError{},
			PowerSaverModeError{},
			UnknownSettingsError{Kind: "AIRPLANE_MODE"},
			BackgroundRestrictionError{},
			GooglePlaySettingsError{Result: gp},
			LocationPermissionDeniedError{},
			LocationSettingsError{},
		},
	}

	want := append(hideAll(),
		Show(NotificationWifiScanningDisabled, nil),
		Show(NotificationPSM, PSMPayload{IsError: true}),
		Show(NotificationBackgroundRestricted, nil),
		Show(NotificationGooglePlaySettings, gp),
		Show(NotificationLocationPermissionDenied, nil),
		Show(NotificationLocationDisabled, nil),
	)
	if diff := cmp.Diff(want, Reconcile(report)); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileHidesBeforeAnyShow(t *testing.T) {
	got := Reconcile(&SettingsReport{
		Errors:   []SettingsError{LocationSettingsError{}},
		Warnings: []SettingsWarning{PowerSaverModeWarning{}},
	})
	n := len(SettingsNotificationIDs())
	require.Greater(t, len(got), n)
	for i, a := range got {
		if i < n {
			assert.Equal(t, ActionHide, a.Kind, "action %d", i)
		} else {
			assert.Equal(t, ActionShow, a.Kind, "action %d", i)
		}
	}
}

func TestReconcileWarningWinsForPSM(t *testing.T) {
	got := Reconcile(&SettingsReport{
		Errors:   []SettingsError{PowerSaverModeError{}},
		Warnings: []SettingsWarning{PowerSaverModeWarning{}},
	})

	var last *NotificationAction
	for i := range got {
		if got[i].ID == NotificationPSM {
			last = &got[i]
		}
	}
	require.NotNil(t, last)
	assert.Equal(t, ActionShow, last.Kind)
	assert.Equal(t, PSMPayload{IsError: false}, last.Payload)
}

func TestReconcileIgnoresUnknownWarnings(t *testing.T) {
	got := Reconcile(&SettingsReport{Warnings: []SettingsWarning{UnknownSettingsWarning{Kind: "BATTERY_LOW"}}})
	assert.Equal(t, hideAll(), got)
}

func TestNewSettingsErrorCoversEveryKind(t *testing.T) {
	gp := &GooglePlaySettingsResult{StatusCode: 8}
	cases := map[string]SettingsError{
		SettingPowerSaverModeEnabled:       PowerSaverModeError{},
		SettingBackgroundRestrictionEnable: BackgroundRestrictionError{},
		SettingGooglePlaySettingsError:     GooglePlaySettingsError{Result: *gp},
		SettingLocationPermissionDenied:    LocationPermissionDeniedError{},
		SettingLocationSettingsError:       LocationSettingsError{},
		SettingWifiScanningDisabled:        WifiScanningDisabledError{},
		"SOMETHING_NEW":                    UnknownSettingsError{Kind: "SOMETHING_NEW"},
	}
	for kind, want := range cases {
		got := NewSettingsError(kind, gp)
		assert.Equal(t, want, got, kind)
		assert.Equal(t, kind, got.Type())
	}

	assert.Equal(t, PowerSaverModeWarning{}, NewSettingsWarning(SettingPowerSaverModeEnabled))
	assert.Equal(t, UnknownSettingsWarning{Kind: "X"}, NewSettingsWarning("X"))
}

func TestReportFlags(t *testing.T) {
	var nilReport *SettingsReport
	assert.False(t, nilReport.HasErrors())
	assert.False(t, nilReport.HasWarnings())

	r := &SettingsReport{Warnings: []SettingsWarning{PowerSaverModeWarning{}}}
	assert.False(t, r.HasErrors())
	assert.True(t, r.HasWarnings())
}

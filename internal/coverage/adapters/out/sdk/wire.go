package sdk

import (
	"encoding/json"

	"ridecover/internal/coverage/domain"
)

// operationResponse — ответ SDK моста на любую асинхронную операцию
type operationResponse struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code,omitempty"`
}

type setupStatusResponse struct {
	IsSetup bool `json:"is_setup"`
}

type trackingRequest struct {
	TrackingID string `json:"tracking_id"`
}

type setupRequestBody struct {
	SDKKey        string `json:"sdk_key"`
	DetectionMode string `json:"detection_mode"`
}

// wireSetting — элемент errors/warnings: {"type": "...", "google_play_settings_result": {...}}
type wireSetting struct {
	Type               string                           `json:"type"`
	GooglePlaySettings *domain.GooglePlaySettingsResult `json:"google_play_settings_result,omitempty"`
}

type settingsResponse struct {
	Errors   []wireSetting `json:"errors"`
	Warnings []wireSetting `json:"warnings"`
}

// decodeSettings разбирает отчёт. Неизвестные типы становятся Unknown* вариантами.
func decodeSettings(body []byte) (*domain.SettingsReport, error) {
	var resp settingsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, err
	}

	report := &domain.SettingsReport{
		Errors:   make([]domain.SettingsError, 0, len(resp.Errors)),
		Warnings: make([]domain.SettingsWarning, 0, len(resp.Warnings)),
	}
	for _, e := range resp.Errors {
		report.Errors = append(report.Errors, domain.NewSettingsError(e.Type, e.GooglePlaySettings))
	}
	for _, w := range resp.Warnings {
		report.Warnings = append(report.Warnings, domain.NewSettingsWarning(w.Type))
	}
	return report, nil
}

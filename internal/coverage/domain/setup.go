package domain

// OperationResult — итог одной асинхронной операции SDK.
type OperationResult struct {
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code,omitempty"`
}

func Succeeded() OperationResult { return OperationResult{Success: true} }

func Failed(code string) OperationResult { return OperationResult{ErrorCode: code} }

// SetupState — состояние инициализации SDK для водителя.
type SetupState string

const (
	SetupUninitialized SetupState = "UNINITIALIZED"
	SetupInitializing  SetupState = "INITIALIZING"
	SetupReady         SetupState = "READY"
	SetupFailed        SetupState = "FAILED"
)

// Error codes produced by this service rather than the SDK.
const (
	ErrorCodeSDKUnavailable = "SDK_UNAVAILABLE"
	ErrorCodeCanceled       = "CANCELED"
	ErrorCodeNetwork        = "NETWORK"
	ErrorCodeInvalidTrackID = "INVALID_TRACKING_ID"
)

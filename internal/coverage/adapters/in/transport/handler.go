package transport

import (
	"errors"
	"net/http"
	"strconv"

	in "ridecover/internal/coverage/application/ports/in"
	"ridecover/internal/coverage/domain"
	"ridecover/internal/shared/logger"
)

// Handler — HTTP вход в use cases покрытия
type Handler struct {
	setupUC    in.SetupUseCase
	updateUC   in.UpdatePeriodUseCase
	settingsUC in.CheckSettingsUseCase
	coverageUC in.GetCoverageUseCase
	log        *logger.Logger
}

func NewHandler(
	setupUC in.SetupUseCase,
	updateUC in.UpdatePeriodUseCase,
	settingsUC in.CheckSettingsUseCase,
	coverageUC in.GetCoverageUseCase,
	log *logger.Logger,
) *Handler {
	return &Handler{
		setupUC:    setupUC,
		updateUC:   updateUC,
		settingsUC: settingsUC,
		coverageUC: coverageUC,
		log:        log,
	}
}

// Health — liveness probe
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "coverage"})
}

// driverFromPath проверяет, что вызывающий может действовать от имени driver_id
func (h *Handler) driverFromPath(w http.ResponseWriter, r *http.Request) (string, bool) {
	driverID := r.PathValue("driver_id")
	claims, ok := GetClaimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "claims not found in context")
		return "", false
	}
	if err := claims.CanActFor(driverID); err != nil {
		h.log.Warn(logger.Entry{
			Action:    "coverage_forbidden_driver",
			Message:   err.Error(),
			RequestID: GetRequestID(r.Context()),
			DriverID:  driverID,
			Additional: map[string]any{
				"user_id": claims.UserID,
				"role":    claims.Role,
			},
		})
		respondError(w, http.StatusForbidden, "access denied for this driver")
		return "", false
	}
	return driverID, true
}

func wantsWait(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	return v
}

// Setup — POST /drivers/{driver_id}/setup[?wait=true]
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	driverID, ok := h.driverFromPath(w, r)
	if !ok {
		return
	}

	output, err := h.setupUC.Setup(r.Context(), in.SetupInput{DriverID: driverID})
	if err != nil {
		h.fail(w, r, "setup_failed", driverID, err)
		return
	}

	state := output.State
	if wantsWait(r) {
		select {
		case <-output.Done:
			state = h.setupUC.State(driverID)
		case <-r.Context().Done():
			return
		}
	}

	status := http.StatusOK
	if state == domain.SetupInitializing {
		status = http.StatusAccepted
	}
	respondJSON(w, status, SetupResponse{DriverID: driverID, State: state, Started: output.Started})
}

// RefreshPeriod — POST /drivers/{driver_id}/insurance/refresh[?wait=true]
func (h *Handler) RefreshPeriod(w http.ResponseWriter, r *http.Request) {
	driverID, ok := h.driverFromPath(w, r)
	if !ok {
		return
	}

	if state := h.setupUC.State(driverID); state != domain.SetupReady {
		respondError(w, http.StatusConflict, "driving sdk is not ready: "+string(state))
		return
	}

	output, err := h.updateUC.Execute(r.Context(), in.UpdatePeriodInput{DriverID: driverID, Reason: "manual"})
	if err != nil {
		h.fail(w, r, "refresh_period_failed", driverID, err)
		return
	}

	resp := RefreshResponse{DriverID: driverID, TripState: output.State, Decision: output.Decision}
	if !wantsWait(r) {
		respondJSON(w, http.StatusAccepted, resp)
		return
	}

	select {
	case res := <-output.Completion:
		resp.Result = &res
		respondJSON(w, http.StatusOK, resp)
	case <-r.Context().Done():
	}
}

// CheckSettings — POST /drivers/{driver_id}/settings/check
func (h *Handler) CheckSettings(w http.ResponseWriter, r *http.Request) {
	driverID, ok := h.driverFromPath(w, r)
	if !ok {
		return
	}

	output, err := h.settingsUC.Check(r.Context(), in.CheckSettingsInput{DriverID: driverID})
	if err != nil {
		h.fail(w, r, "check_settings_failed", driverID, err)
		return
	}
	respondJSON(w, http.StatusOK, output)
}

// Coverage — GET /drivers/{driver_id}/coverage
func (h *Handler) Coverage(w http.ResponseWriter, r *http.Request) {
	driverID, ok := h.driverFromPath(w, r)
	if !ok {
		return
	}

	view, err := h.coverageUC.Get(r.Context(), driverID)
	if err != nil {
		h.fail(w, r, "get_coverage_failed", driverID, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, action, driverID string, err error) {
	status := statusFor(err)
	entry := logger.Entry{
		Action:    action,
		Message:   err.Error(),
		RequestID: GetRequestID(r.Context()),
		DriverID:  driverID,
		Error:     &logger.ErrObj{Msg: err.Error()},
	}
	if status >= http.StatusInternalServerError {
		h.log.Error(entry)
	} else {
		h.log.Warn(entry)
	}
	respondError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEmptyDriverID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownDriver):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrTripStateUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

package transport

import (
	"net/http"

	"ridecover/internal/shared/auth"
	"ridecover/internal/shared/logger"
)

// Extras — обработчики вне use cases, подключаемые bootstrap
type Extras struct {
	Metrics   http.Handler
	WebSocket http.HandlerFunc
}

// Routes регистрирует защищённые endpoints покрытия
func Routes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("POST /drivers/{driver_id}/setup", h.Setup)
	mux.HandleFunc("POST /drivers/{driver_id}/insurance/refresh", h.RefreshPeriod)
	mux.HandleFunc("POST /drivers/{driver_id}/settings/check", h.CheckSettings)
	mux.HandleFunc("GET /drivers/{driver_id}/coverage", h.Coverage)
}

// NewRouter собирает итоговый handler: открытые /health, /metrics, /ws и защищённые /drivers/
func NewRouter(h *Handler, jwtService *auth.JWTService, extras Extras, log *logger.Logger) http.Handler {
	protectedMux := http.NewServeMux()
	Routes(protectedMux, h)
	protectedHandler := JWTMiddleware(jwtService, log)(protectedMux)

	finalMux := http.NewServeMux()
	finalMux.HandleFunc("GET /health", h.Health)
	if extras.Metrics != nil {
		finalMux.Handle("GET /metrics", extras.Metrics)
	}
	// WebSocket аутентифицируется первым сообщением, а не заголовком
	if extras.WebSocket != nil {
		finalMux.HandleFunc("GET /ws", extras.WebSocket)
	}
	finalMux.Handle("/drivers/", protectedHandler)

	return RequestIDMiddleware(LoggingMiddleware(log)(finalMux))
}

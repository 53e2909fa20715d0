package health

import (
	"log/slog"
	"net/http"

	apphealth "3tcapital/phonecheck/internal/application/health"
	corehealth "3tcapital/phonecheck/internal/core/health"
	httperrors "3tcapital/phonecheck/internal/infrastructure/http"
)

// Handler bridges HTTP traffic with the health application service.
type Handler struct {
	service *apphealth.Service
	log     *slog.Logger
}

func NewHandler(service *apphealth.Service, log *slog.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Status handles GET /health. A degraded dependency answers 503.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	response := h.service.Status(r.Context())

	code := http.StatusOK
	if response.Status != corehealth.StatusUp {
		code = http.StatusServiceUnavailable
	}
	httperrors.WriteJSON(w, code, response, h.log)
}

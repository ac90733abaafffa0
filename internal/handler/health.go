package handler

import "net/http"

// HealthHandler отвечает на /health: жив ли контроллер канала и сколько UI подключено.
type HealthHandler struct {
	view interface{ Alive() bool }
	hub  interface{ Len() int }
	push bool
}

func NewHealthHandler(view interface{ Alive() bool }, hub interface{ Len() int }, pushEnabled bool) *HealthHandler {
	return &HealthHandler{view: view, hub: hub, push: pushEnabled}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if !h.view.Alive() {
		status, code = "closed", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status":       status,
		"ws_clients":   h.hub.Len(),
		"push_enabled": h.push,
	})
}

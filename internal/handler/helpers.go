package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/linen/internal/channel"
	"github.com/linen/internal/logger"
)

const maxBodySize = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Errorf("writeJSON encode: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// readJSON декодирует тело запроса; при ошибке уже ответил 400.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeViewError переводит ошибку представления канала в HTTP-статус.
func writeViewError(w http.ResponseWriter, err error) {
	var nerr *channel.NetworkError
	switch {
	case errors.Is(err, channel.ErrNotSignedIn):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, channel.ErrNotPermitted):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, channel.ErrThreadClosed):
		writeError(w, http.StatusConflict, err.Error())
	case channel.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &nerr):
		writeError(w, http.StatusBadGateway, nerr.Message)
	case errors.Is(err, channel.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Errorf("handler: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

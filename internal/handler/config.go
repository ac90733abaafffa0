package handler

import (
	"net/http"

	"github.com/linen/internal/config"
)

// ConfigHandler отдаёт UI публичные параметры клиента.
type ConfigHandler struct {
	cfg *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{cfg: cfg}
}

// GetClientConfig: лимиты и режимы, которые UI проверяет у себя до отправки.
func (h *ConfigHandler) GetClientConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"channel_id":         h.cfg.ChannelID,
		"max_file_size":      h.cfg.MaxFileSize,
		"send_debounce_ms":   h.cfg.SendDebounce.Milliseconds(),
		"realtime_transport": h.cfg.RealtimeTransport,
		"push_enabled":       h.cfg.PushServiceURL != "",
	})
}

// Package startup собирает внешние подключения клиента канала при запуске.
package startup

import (
	"context"
	"time"

	"github.com/linen/internal/config"
	"github.com/linen/internal/logger"
	"github.com/linen/internal/realtime"
)

// NewSource выбирает транспорт realtime-событий по конфигурации.
// nil без ошибки: realtime отключён, состояние сходится только через HTTP.
func NewSource(ctx context.Context, cfg *config.Config) (realtime.Source, error) {
	switch cfg.RealtimeTransport {
	case config.TransportRedis:
		src, err := ConnectRedisWithRetry(ctx, cfg.RedisURL, 60*time.Second)
		if err != nil {
			return nil, err
		}
		logger.Infof("realtime: redis pub/sub")
		return src, nil
	case config.TransportNone:
		logger.Infof("realtime: disabled")
		return nil, nil
	default:
		logger.Infof("realtime: websocket %s", cfg.RealtimeURL)
		return realtime.NewWebSocketSource(cfg.RealtimeURL, cfg.Token), nil
	}
}

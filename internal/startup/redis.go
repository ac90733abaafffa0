package startup

import (
	"context"
	"fmt"
	"time"

	"github.com/linen/internal/logger"
	"github.com/linen/internal/realtime"
)

// ConnectRedisWithRetry подключается к Redis с повторами, пока не истечёт maxWait
// или не отменён ctx.
func ConnectRedisWithRetry(ctx context.Context, redisURL string, maxWait time.Duration) (*realtime.RedisSource, error) {
	deadline := time.Now().Add(maxWait)
	backoff := 2 * time.Second
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		src, err := realtime.NewRedisSource(pingCtx, redisURL)
		cancel()
		if err == nil {
			return src, nil
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("redis (gave up after %v): %w", maxWait, err)
		}
		logger.Errorf("redis connect failed, retry in %v: %v", backoff, err)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 30*time.Second {
			backoff *= 2
		}
	}
}

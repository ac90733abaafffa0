package realtime

import (
	"context"
	"time"
)

// Source: транспорт realtime-событий.
type Source interface {
	// Subscribe начинает доставку payload событий топика в deliver.
	// Доставка идёт из одной горутины на подписку, по порядку.
	Subscribe(ctx context.Context, t Topic, deliver func([]byte)) (Subscription, error)
	Close() error
}

type Subscription interface {
	Close() error
}

// Backoff: экспоненциальная пауза между переподключениями.
type Backoff struct {
	Initial time.Duration
	Max     time.Duration
}

var DefaultBackoff = Backoff{Initial: 2 * time.Second, Max: 30 * time.Second}

func (b Backoff) next(cur time.Duration) time.Duration {
	if cur <= 0 {
		if b.Initial <= 0 {
			return DefaultBackoff.Initial
		}
		return b.Initial
	}
	cur *= 2
	if b.Max > 0 && cur > b.Max {
		cur = b.Max
	}
	return cur
}

// sleep ждёт d или отмены ctx; false: контекст отменён.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}

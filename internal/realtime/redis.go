package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/linen/internal/logger"
)

// RedisSource читает события из Redis pub/sub. Имя канала Redis совпадает с
// именем комнаты, сообщение: payload события без обёртки.
type RedisSource struct {
	cli *redis.Client

	mu     sync.Mutex
	subs   map[*redisSubscription]struct{}
	closed bool
}

func NewRedisSource(ctx context.Context, url string) (*RedisSource, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis parse url: %w", err)
	}
	cli := redis.NewClient(opts)
	if err := cli.Ping(ctx).Err(); err != nil {
		if closeErr := cli.Close(); closeErr != nil {
			return nil, fmt.Errorf("redis ping: %w (close: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisSourceFromClient(cli), nil
}

func NewRedisSourceFromClient(cli *redis.Client) *RedisSource {
	return &RedisSource{cli: cli, subs: make(map[*redisSubscription]struct{})}
}

type redisSubscription struct {
	src    *RedisSource
	ps     *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		s.cancel()
		err = s.ps.Close()
		<-s.done
		s.src.mu.Lock()
		delete(s.src.subs, s)
		s.src.mu.Unlock()
	})
	return err
}

func (r *RedisSource) Subscribe(ctx context.Context, t Topic, deliver func([]byte)) (Subscription, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, errors.New("realtime: source closed")
	}
	ps := r.cli.Subscribe(ctx, t.Name())
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe %s: %w", t.Name(), err)
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &redisSubscription{src: r, ps: ps, cancel: cancel, done: make(chan struct{})}
	r.mu.Lock()
	r.subs[sub] = struct{}{}
	r.mu.Unlock()

	go func() {
		defer close(sub.done)
		ch := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				deliver([]byte(m.Payload))
			}
		}
	}()
	logger.Debugf("realtime subscribed redis %s", t.Name())
	return sub, nil
}

func (r *RedisSource) Close() error {
	r.mu.Lock()
	r.closed = true
	subs := make([]*redisSubscription, 0, len(r.subs))
	for s := range r.subs {
		subs = append(subs, s)
	}
	r.mu.Unlock()
	for _, s := range subs {
		_ = s.Close()
	}
	return r.cli.Close()
}

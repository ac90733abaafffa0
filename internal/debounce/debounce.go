// Package debounce склеивает повторные вызовы с одним ключом в окне тишины.
package debounce

import (
	"context"
	"sync"
	"time"
)

const DefaultWindow = 100 * time.Millisecond

type Func[T any] func(ctx context.Context) (T, error)

type call[T any] struct {
	timer *time.Timer
	ctx   context.Context
	fn    Func[T]
	done  chan struct{}
	val   T
	err   error
}

// Group выполняет fn один раз на ключ после того, как вызовы с этим ключом
// затихли на Window. Все ожидающие получают один и тот же результат.
// Вызовы с разными ключами независимы и не теряются.
type Group[T any] struct {
	Window time.Duration

	mu    sync.Mutex
	calls map[string]*call[T]
}

func New[T any](window time.Duration) *Group[T] {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Group[T]{Window: window}
}

// Do ставит fn в очередь под ключом key и ждёт результата. Выполняется
// последняя переданная fn. Отмена ctx прекращает только ожидание.
func (g *Group[T]) Do(ctx context.Context, key string, fn Func[T]) (T, error) {
	g.mu.Lock()
	if g.calls == nil {
		g.calls = make(map[string]*call[T])
	}
	c, ok := g.calls[key]
	if ok {
		c.ctx, c.fn = ctx, fn
		c.timer.Reset(g.window())
	} else {
		c = &call[T]{ctx: ctx, fn: fn, done: make(chan struct{})}
		g.calls[key] = c
		c.timer = time.AfterFunc(g.window(), func() { g.fire(key, c) })
	}
	g.mu.Unlock()

	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Pending: число ключей, ожидающих выполнения.
func (g *Group[T]) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.calls)
}

func (g *Group[T]) window() time.Duration {
	if g.Window <= 0 {
		return DefaultWindow
	}
	return g.Window
}

func (g *Group[T]) fire(key string, c *call[T]) {
	g.mu.Lock()
	if g.calls[key] != c {
		// Таймер сработал повторно после Reset, вызов уже выполнен.
		g.mu.Unlock()
		return
	}
	delete(g.calls, key)
	ctx, fn := c.ctx, c.fn
	g.mu.Unlock()

	c.val, c.err = fn(ctx)
	close(c.done)
}

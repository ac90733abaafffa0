// Package channel реализует контроллер открытого канала: оптимистичные действия
// пользователя, запросы к серверу и сверка с событиями из realtime-лент.
package channel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/linen/internal/api"
	"github.com/linen/internal/debounce"
	"github.com/linen/internal/directory"
	"github.com/linen/internal/imitation"
	"github.com/linen/internal/logger"
	"github.com/linen/internal/mention"
	"github.com/linen/internal/model"
	"github.com/linen/internal/push"
	"github.com/linen/internal/reaction"
	"github.com/linen/internal/realtime"
	"github.com/linen/internal/reconcile"
	"github.com/linen/internal/store"
)

// API: запросы к серверу, которые делает представление.
type API interface {
	SendChannelMessage(ctx context.Context, r api.ChannelMessageRequest) (api.ChannelMessageResponse, error)
	SendThreadMessage(ctx context.Context, r api.ThreadMessageRequest) (api.ThreadMessageResponse, error)
	PinThread(ctx context.Context, threadID string, pinned bool) error
	UpdateThread(ctx context.Context, threadID string, u api.ThreadUpdate) error
	PostReaction(ctx context.Context, messageID, reactionType string, action reaction.Action) error
	MergeThreads(ctx context.Context, from, to string) error
	MoveMessageToThread(ctx context.Context, messageID, threadID string) error
	MoveMessageToChannel(ctx context.Context, messageID, channelID string) (model.Thread, error)
	MoveThreadToChannel(ctx context.Context, threadID, channelID string) error
}

const DefaultMaxFileSize = 1 << 20

type Config struct {
	Channel     model.Channel
	Permissions model.Permissions
	Debounce    time.Duration
	MaxFileSize int64
	InboxSize   int
}

type Deps struct {
	API      API
	Source   realtime.Source
	Push     push.Dispatcher
	Notifier Notifier
	Users    *directory.Directory
	Builder  *imitation.Builder
}

type View struct {
	cfg      Config
	api      API
	source   realtime.Source
	push     push.Dispatcher
	notifier Notifier
	users    *directory.Directory
	builder  *imitation.Builder

	store   *store.Store
	inbox   *realtime.Inbox
	sends   *debounce.Group[api.ChannelMessageResponse]
	replies *debounce.Group[api.ThreadMessageResponse]

	alive  atomic.Bool
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	currentThread string
	channelSub    realtime.Subscription
	threadSub     realtime.Subscription
}

func New(d Deps, cfg Config) *View {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if d.Users == nil {
		d.Users = directory.New()
	}
	if d.Builder == nil {
		d.Builder = imitation.NewBuilder(d.Users)
	}
	if d.Notifier == nil {
		d.Notifier = logNotifier{}
	}
	if cfg.Permissions.User != nil {
		d.Users.Add(*cfg.Permissions.User)
	}
	ctx, cancel := context.WithCancel(context.Background())
	v := &View{
		cfg:      cfg,
		api:      d.API,
		source:   d.Source,
		push:     d.Push,
		notifier: d.Notifier,
		users:    d.Users,
		builder:  d.Builder,
		store:    store.New(store.Collection{Threads: []model.Thread{}, Pinned: []model.Thread{}}),
		inbox:    realtime.NewInbox(cfg.InboxSize),
		sends:    debounce.New[api.ChannelMessageResponse](cfg.Debounce),
		replies:  debounce.New[api.ThreadMessageResponse](cfg.Debounce),
		ctx:      ctx,
		cancel:   cancel,
	}
	v.alive.Store(true)
	return v
}

// Load подменяет коллекцию начальным состоянием канала.
func (v *View) Load(threads, pinned []model.Thread) {
	c := store.Collection{Threads: sortThreads(threads), Pinned: sortThreads(pinned)}
	if c.Threads == nil {
		c.Threads = []model.Thread{}
	}
	if c.Pinned == nil {
		c.Pinned = []model.Thread{}
	}
	v.users.AddFromThreads(c.Threads)
	v.users.AddFromThreads(c.Pinned)
	v.store.Reset(c)
}

func sortThreads(threads []model.Thread) []model.Thread {
	if threads == nil {
		return nil
	}
	out := make([]model.Thread, len(threads))
	for i, t := range threads {
		t.Messages = model.SortBySentAt(t.Messages)
		out[i] = t
	}
	return out
}

func (v *View) Snapshot() store.Collection { return v.store.Snapshot() }

// Subscribe: поток снимков коллекции для UI.
func (v *View) Subscribe(buffer int) (<-chan store.Collection, func()) {
	return v.store.Subscribe(buffer)
}

func (v *View) Channel() model.Channel { return v.cfg.Channel }

// RenderMessage разбивает тело сообщения на текст и упоминания. Имя ищется
// сначала среди упомянутых в самом сообщении, потом в справочнике.
func (v *View) RenderMessage(m model.Message) []mention.Segment {
	return mention.Render(m.Body, mention.Chain{mention.Users(m.Mentions), v.users})
}

func (v *View) CurrentThread() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentThread
}

func (v *View) Alive() bool { return v.alive.Load() }

// Start подписывает ленту канала. Без источника представление работает только
// на HTTP-подтверждениях.
func (v *View) Start(ctx context.Context) error {
	if !v.alive.Load() {
		return ErrClosed
	}
	if v.source == nil {
		return nil
	}
	t := realtime.ChannelTopic(v.cfg.Channel.ID)
	sub, err := v.source.Subscribe(v.ctx, t, v.inbox.Deliverer(v.ctx, t))
	if err != nil {
		return err
	}
	v.mu.Lock()
	v.channelSub = sub
	v.mu.Unlock()
	logger.Infof("channel %s: subscribed %s", v.cfg.Channel.ID, t.Name())
	return nil
}

// SelectThread переключает ленту открытого треда. Пустой id закрывает тред.
func (v *View) SelectThread(ctx context.Context, threadID string) error {
	if !v.alive.Load() {
		return ErrClosed
	}
	v.mu.Lock()
	prev := v.threadSub
	v.threadSub = nil
	v.currentThread = threadID
	v.mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	if threadID == "" || v.source == nil {
		return nil
	}
	t := realtime.ThreadTopic(threadID)
	sub, err := v.source.Subscribe(v.ctx, t, v.inbox.Deliverer(v.ctx, t))
	if err != nil {
		return err
	}
	v.mu.Lock()
	if v.currentThread != threadID || !v.alive.Load() {
		v.mu.Unlock()
		_ = sub.Close()
		return nil
	}
	v.threadSub = sub
	v.mu.Unlock()
	return nil
}

// Run разбирает очередь событий до отмены ctx или Close.
func (v *View) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.inbox.Done():
			return
		case e := <-v.inbox.C():
			v.HandleEvent(e)
		}
	}
}

// HandleEvent применяет одно событие realtime-ленты.
func (v *View) HandleEvent(e realtime.Envelope) {
	if !v.alive.Load() {
		return
	}
	var (
		change reconcile.Change
		err    error
	)
	switch e.Topic.Feed {
	case realtime.FeedThread:
		change, err = reconcile.ParseReply(e.Topic.ID, e.Payload)
	default:
		change, err = reconcile.Parse(e.Payload)
	}
	if err != nil {
		if errors.Is(err, reconcile.ErrMalformed) {
			logger.Debugf("channel %s: drop %s event: %v", v.cfg.Channel.ID, e.Topic.Feed, err)
		}
		return
	}
	next := v.store.Update(func(c store.Collection) store.Collection {
		c.Threads = change.Apply(c.Threads)
		c.Pinned = change.Mirror(c.Pinned)
		return c
	})
	v.users.AddFromThreads(next.Threads)
}

// Wait ждёт завершения фоновых запросов.
func (v *View) Wait() { v.wg.Wait() }

// Close отменяет подписки и запросы. Обработчики ответов после Close ничего не меняют.
func (v *View) Close() error {
	v.mu.Lock()
	if !v.alive.CompareAndSwap(true, false) {
		v.mu.Unlock()
		return nil
	}
	v.mu.Unlock()
	if n := v.sends.Pending() + v.replies.Pending(); n > 0 {
		logger.Warnf("channel %s: closing with %d unsent messages", v.cfg.Channel.ID, n)
	}
	v.cancel()
	v.inbox.Close()
	v.mu.Lock()
	subs := []realtime.Subscription{v.channelSub, v.threadSub}
	v.channelSub, v.threadSub = nil, nil
	v.mu.Unlock()
	for _, s := range subs {
		if s != nil {
			_ = s.Close()
		}
	}
	v.wg.Wait()
	return nil
}

// async запускает запрос в фоне; fn не вызывается после Close.
func (v *View) async(fn func(ctx context.Context)) {
	// Add под тем же локом, под которым Close снимает alive: Wait не начнётся раньше.
	v.mu.Lock()
	if !v.alive.Load() {
		v.mu.Unlock()
		return
	}
	v.wg.Add(1)
	v.mu.Unlock()
	go func() {
		defer v.wg.Done()
		fn(v.ctx)
	}()
}

// fail сообщает об ошибке запроса, если представление ещё живо.
func (v *View) fail(op, message string, err error) error {
	nerr := &NetworkError{Op: op, Message: message, Err: err}
	if v.alive.Load() && !errors.Is(err, context.Canceled) {
		logger.Errorf("channel %s: %s: %v", v.cfg.Channel.ID, op, err)
		v.notifier.Notify(nerr)
	}
	return nerr
}

func (v *View) currentUser() (model.User, bool) {
	if v.cfg.Permissions.User == nil {
		return model.User{}, false
	}
	return *v.cfg.Permissions.User, true
}

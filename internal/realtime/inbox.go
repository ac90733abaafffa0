// Package realtime доставляет события каналов и тредов из сокета или Redis
// в единую упорядоченную очередь.
package realtime

import (
	"context"
	"sync"
	"time"
)

type Feed uint8

const (
	FeedChannel Feed = iota + 1
	FeedThread
)

func (f Feed) String() string {
	switch f {
	case FeedChannel:
		return "channel"
	case FeedThread:
		return "thread"
	default:
		return "unknown"
	}
}

// Topic задаёт подписку: лента канала или лента одного треда.
type Topic struct {
	Feed Feed
	ID   string
}

func ChannelTopic(channelID string) Topic { return Topic{Feed: FeedChannel, ID: channelID} }
func ThreadTopic(threadID string) Topic   { return Topic{Feed: FeedThread, ID: threadID} }

// Name: имя комнаты на сервере.
func (t Topic) Name() string {
	if t.Feed == FeedThread {
		return "room:topic:" + t.ID
	}
	return "room:lobby:" + t.ID
}

// Envelope: одно событие в очереди.
type Envelope struct {
	Topic      Topic
	Payload    []byte
	ReceivedAt time.Time
}

// Inbox: общая очередь для всех лент. Порядок поступления сохраняется.
type Inbox struct {
	ch   chan Envelope
	done chan struct{}
	once sync.Once
}

func NewInbox(size int) *Inbox {
	if size < 1 {
		size = 256
	}
	return &Inbox{ch: make(chan Envelope, size), done: make(chan struct{})}
}

// Push ставит событие в очередь; ждёт места, пока не отменён ctx или
// очередь не закрыта. false: событие не принято.
func (in *Inbox) Push(ctx context.Context, e Envelope) bool {
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}
	select {
	case <-in.done:
		return false
	default:
	}
	select {
	case in.ch <- e:
		return true
	case <-in.done:
		return false
	case <-ctx.Done():
		return false
	}
}

// Deliverer возвращает функцию доставки для Source, привязанную к топику.
func (in *Inbox) Deliverer(ctx context.Context, t Topic) func([]byte) {
	return func(payload []byte) {
		in.Push(ctx, Envelope{Topic: t, Payload: payload})
	}
}

func (in *Inbox) C() <-chan Envelope { return in.ch }

// Done закрывается вместе с очередью.
func (in *Inbox) Done() <-chan struct{} { return in.done }

// Close перестаёт принимать события. Канал C не закрывается.
func (in *Inbox) Close() {
	in.once.Do(func() { close(in.done) })
}

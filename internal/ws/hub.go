// Package ws раздаёт снимки коллекции канала локальному UI и принимает от него
// команды, не требующие HTTP-ответа.
package ws

import (
	"context"
	"sync"

	"github.com/linen/internal/logger"
	"github.com/linen/internal/store"
)

// Controller: то, что hub вызывает у представления канала.
type Controller interface {
	Snapshot() store.Collection
	CurrentThread() string
	SelectThread(ctx context.Context, threadID string) error
	ToggleReaction(ctx context.Context, threadID, messageID, reactionType string)
}

type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	maxConns   int
	ctrl       Controller
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub(ctrl Controller, maxConns int) *Hub {
	if maxConns <= 0 {
		maxConns = 64
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		maxConns:   maxConns,
		ctrl:       ctrl,
		register:   make(chan *Client, 16),
		unregister: make(chan *Client, 16),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// Feed рассылает снимки из snapshots, пока канал не закрыт или не отменён ctx.
func (h *Hub) Feed(ctx context.Context, snapshots <-chan store.Collection) {
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-snapshots:
			if !ok {
				return
			}
			h.Broadcast(OutgoingMessage{Type: EventSnapshot, Payload: h.snapshot(c)})
		}
	}
}

// Notify показывает ошибку во всех подключённых UI.
func (h *Hub) Notify(err error) {
	if err == nil {
		return
	}
	h.Broadcast(OutgoingMessage{Type: EventToast, Payload: ToastPayload{Message: err.Error()}})
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot(c store.Collection) SnapshotPayload {
	return SnapshotPayload{Collection: c, CurrentThread: h.ctrl.CurrentThread()}
}

func (h *Hub) shutdown() {
	// Под локом только собираем клиентов, закрываем снаружи.
	h.mu.Lock()
	all := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		all = append(all, c)
	}
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
	for _, c := range all {
		c.Wait()
	}
}

func (h *Hub) addClient(c *Client) {
	h.mu.Lock()
	if len(h.clients) >= h.maxConns {
		h.mu.Unlock()
		logger.Errorf("ws connection limit reached (%d), rejecting %s", h.maxConns, c.addr)
		c.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.sendToClient(c, OutgoingMessage{Type: EventSnapshot, Payload: h.snapshot(h.ctrl.Snapshot())})
}

func (h *Hub) removeClient(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	h.mu.Unlock()
	c.Close()
}

// HandleMessage выполняет команду UI.
func (h *Hub) HandleMessage(ctx context.Context, c *Client, msg IncomingMessage) {
	switch msg.Type {
	case EventSelectThread:
		if err := h.ctrl.SelectThread(ctx, msg.ThreadID); err != nil {
			h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: ErrorPayload{Error: err.Error()}})
			return
		}
		h.Broadcast(OutgoingMessage{Type: EventSnapshot, Payload: h.snapshot(h.ctrl.Snapshot())})
	case EventToggleReaction:
		if msg.ThreadID == "" || msg.MessageID == "" || msg.Reaction == "" {
			h.sendToClient(c, OutgoingMessage{Type: EventError, Payload: ErrorPayload{Error: "thread_id, message_id and reaction are required"}})
			return
		}
		h.ctrl.ToggleReaction(ctx, msg.ThreadID, msg.MessageID, msg.Reaction)
	default:
		logger.Debugf("ws unknown event %q from %s", msg.Type, c.addr)
	}
}

func (h *Hub) Broadcast(msg OutgoingMessage) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.sendToClient(c, msg)
	}
}

func (h *Hub) sendToClient(c *Client, msg OutgoingMessage) {
	select {
	case c.send <- msg:
	case <-c.done:
	default:
		// Буфер переполнен: закрываем медленного клиента.
		logger.Errorf("ws send buffer full, closing slow client %s", c.addr)
		c.Close()
	}
}

func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.Close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

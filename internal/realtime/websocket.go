package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/linen/internal/logger"
)

const (
	writeWait        = 10 * time.Second
	readWait         = 60 * time.Second
	heartbeatPeriod  = 30 * time.Second
	maxFrameSize     = 1 << 20
	phoenixTopic     = "phoenix"
	eventJoin        = "phx_join"
	eventReply       = "phx_reply"
	eventClose       = "phx_close"
	eventError       = "phx_error"
	eventHeartbeat   = "heartbeat"
	eventNewMessage  = "new_message"
	joinRef          = "1"
	replyStatusOK    = "ok"
	tokenQueryParam  = "token"
	defaultDialDelay = 10 * time.Second
)

// frame: сообщение протокола каналов Phoenix (JSON-объект, vsn 1).
type frame struct {
	Topic   string          `json:"topic"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
	Ref     string          `json:"ref,omitempty"`
}

type replyPayload struct {
	Status   string          `json:"status"`
	Response json.RawMessage `json:"response"`
}

// WebSocketSource подписывается на комнаты через сокет Phoenix. На каждую
// подписку: отдельное соединение с переподключением.
type WebSocketSource struct {
	url       string
	token     string
	Dialer    *websocket.Dialer
	Backoff   Backoff
	Heartbeat time.Duration

	mu     sync.Mutex
	subs   map[*wsSubscription]struct{}
	closed bool
}

func NewWebSocketSource(rawURL, token string) *WebSocketSource {
	return &WebSocketSource{
		url:       rawURL,
		token:     token,
		Dialer:    &websocket.Dialer{HandshakeTimeout: defaultDialDelay},
		Backoff:   DefaultBackoff,
		Heartbeat: heartbeatPeriod,
		subs:      make(map[*wsSubscription]struct{}),
	}
}

type wsSubscription struct {
	src    *WebSocketSource
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (s *wsSubscription) Close() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.src.mu.Lock()
		delete(s.src.subs, s)
		s.src.mu.Unlock()
	})
	return nil
}

func (w *WebSocketSource) Subscribe(ctx context.Context, t Topic, deliver func([]byte)) (Subscription, error) {
	if _, err := w.endpoint(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil, errors.New("realtime: source closed")
	}
	ctx, cancel := context.WithCancel(ctx)
	sub := &wsSubscription{src: w, cancel: cancel, done: make(chan struct{})}
	w.subs[sub] = struct{}{}
	w.mu.Unlock()

	go func() {
		defer close(sub.done)
		w.run(ctx, t, deliver)
	}()
	return sub, nil
}

func (w *WebSocketSource) Close() error {
	w.mu.Lock()
	w.closed = true
	subs := make([]*wsSubscription, 0, len(w.subs))
	for s := range w.subs {
		subs = append(subs, s)
	}
	w.mu.Unlock()
	for _, s := range subs {
		s.Close()
	}
	return nil
}

func (w *WebSocketSource) endpoint() (string, error) {
	u, err := url.Parse(w.url)
	if err != nil {
		return "", fmt.Errorf("realtime: parse url: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("realtime: unsupported scheme %q", u.Scheme)
	}
	if w.token != "" {
		q := u.Query()
		q.Set(tokenQueryParam, w.token)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// run держит подписку живой до отмены ctx.
func (w *WebSocketSource) run(ctx context.Context, t Topic, deliver func([]byte)) {
	var delay time.Duration
	for ctx.Err() == nil {
		joined, err := w.session(ctx, t, deliver)
		if ctx.Err() != nil {
			return
		}
		if joined {
			delay = 0
		}
		delay = w.Backoff.next(delay)
		logger.Warnf("realtime %s: %v, reconnect in %v", t.Name(), err, delay)
		if !sleep(ctx, delay) {
			return
		}
	}
}

// session обслуживает одно соединение: join, heartbeat, чтение до ошибки.
func (w *WebSocketSource) session(ctx context.Context, t Topic, deliver func([]byte)) (joined bool, err error) {
	endpoint, err := w.endpoint()
	if err != nil {
		return false, err
	}
	conn, _, err := w.Dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	var wmu sync.Mutex
	var ref atomic.Uint64
	ref.Store(1)
	write := func(f frame) error {
		wmu.Lock()
		defer wmu.Unlock()
		if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return conn.WriteJSON(f)
	}

	if err := write(frame{Topic: t.Name(), Event: eventJoin, Payload: json.RawMessage(`{}`), Ref: joinRef}); err != nil {
		return false, fmt.Errorf("join: %w", err)
	}

	hbDone := make(chan struct{})
	defer close(hbDone)
	go func() {
		period := w.Heartbeat
		if period <= 0 {
			period = heartbeatPeriod
		}
		ticker := time.NewTicker(period)
		defer ticker.Stop()
		for {
			select {
			case <-hbDone:
				return
			case <-ticker.C:
				r := strconv.FormatUint(ref.Add(1), 10)
				if err := write(frame{Topic: phoenixTopic, Event: eventHeartbeat, Payload: json.RawMessage(`{}`), Ref: r}); err != nil {
					conn.Close()
					return
				}
			}
		}
	}()

	conn.SetReadLimit(maxFrameSize)
	for {
		if err := conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
			return joined, err
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return joined, fmt.Errorf("read: %w", err)
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil {
			logger.Debugf("realtime %s: bad frame: %v", t.Name(), err)
			continue
		}
		if f.Topic != t.Name() {
			continue
		}
		switch f.Event {
		case eventReply:
			if f.Ref != joinRef {
				continue
			}
			var rp replyPayload
			_ = json.Unmarshal(f.Payload, &rp)
			if rp.Status != replyStatusOK {
				return false, fmt.Errorf("join rejected: %s", rp.Status)
			}
			joined = true
			logger.Debugf("realtime joined %s", t.Name())
		case eventNewMessage:
			deliver([]byte(f.Payload))
		case eventClose, eventError:
			return joined, fmt.Errorf("server sent %s", f.Event)
		}
	}
}

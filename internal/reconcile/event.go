// Package reconcile вливает входящие realtime-события и подтверждения HTTP в
// список тредов, сводя имитацию и подтверждённую сущность к одной записи.
package reconcile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/linen/internal/identity"
	"github.com/linen/internal/model"
)

var (
	// ErrMalformed: payload не разбирается; событие отбрасывается без изменений.
	ErrMalformed = errors.New("reconcile: malformed event")
	// ErrUnknownKind: событие не про ответ и не про тред; игнорируется.
	ErrUnknownKind = errors.New("reconcile: event is neither reply nor thread")
)

// Event: payload события new_message из канала. Поля message и thread
// приходят JSON-строкой с сериализованной сущностью.
type Event struct {
	IsReply     bool            `json:"is_reply"`
	IsThread    bool            `json:"is_thread"`
	ThreadID    string          `json:"thread_id"`
	MessageID   string          `json:"message_id"`
	ImitationID string          `json:"imitation_id"`
	Message     json.RawMessage `json:"message,omitempty"`
	Thread      json.RawMessage `json:"thread,omitempty"`
}

// Parse разбирает payload канала в изменение. Если в payload и ответ, и тред,
// а разобрать удалось только одну часть, возвращается она.
func Parse(raw []byte) (Change, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	// Части разбираются независимо: битая половина не отменяет целую.
	var (
		changes Batch
		partErr error
	)
	if ev.IsReply {
		if c, err := replyChange(ev); err != nil {
			partErr = err
		} else {
			changes = append(changes, c)
		}
	}
	if ev.IsThread {
		if c, err := threadChange(ev); err != nil {
			partErr = errors.Join(partErr, err)
		} else {
			changes = append(changes, c)
		}
	}
	switch len(changes) {
	case 0:
		if partErr != nil {
			return nil, partErr
		}
		return nil, ErrUnknownKind
	case 1:
		return changes[0], nil
	default:
		return changes, nil
	}
}

// ParseReply разбирает событие из подписки на конкретный тред: там всегда
// приходит сообщение, а тред известен по самой подписке.
func ParseReply(threadID string, raw []byte) (Change, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if ev.ThreadID == "" {
		ev.ThreadID = threadID
	}
	return replyChange(ev)
}

func replyChange(ev Event) (ReplyChange, error) {
	var m model.Message
	if err := decodeNested(ev.Message, &m); err != nil {
		return ReplyChange{}, fmt.Errorf("reply message: %w", err)
	}
	if m.ID == "" || ev.ThreadID == "" {
		return ReplyChange{}, fmt.Errorf("%w: reply without message or thread id", ErrMalformed)
	}
	confirmed := ev.MessageID
	if confirmed == "" {
		confirmed = m.ID
	}
	return ReplyChange{
		ThreadID: ev.ThreadID,
		Key:      identity.NewPair(ev.ImitationID, confirmed),
		Message:  m,
	}, nil
}

func threadChange(ev Event) (ThreadChange, error) {
	var t model.Thread
	if err := decodeNested(ev.Thread, &t); err != nil {
		return ThreadChange{}, fmt.Errorf("thread: %w", err)
	}
	if t.ID == "" {
		return ThreadChange{}, fmt.Errorf("%w: thread without id", ErrMalformed)
	}
	confirmed := ev.ThreadID
	if confirmed == "" {
		confirmed = t.ID
	}
	return ThreadChange{Key: identity.NewPair(ev.ImitationID, confirmed), Thread: t}, nil
}

// decodeNested принимает и JSON-строку с сущностью, и вложенный объект.
func decodeNested(raw json.RawMessage, v any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("%w: missing payload", ErrMalformed)
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if s == "" {
			return fmt.Errorf("%w: empty payload", ErrMalformed)
		}
		raw = json.RawMessage(s)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

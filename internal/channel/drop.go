package channel

import (
	"context"
	"fmt"

	"github.com/linen/internal/identity"
)

// DragKind: что перетаскивают.
type DragKind string

const (
	DragThread  DragKind = "thread"
	DragMessage DragKind = "message"
)

// Drop: перетаскиваемый объект.
type Drop struct {
	Kind DragKind `json:"source"`
	ID   string   `json:"id"`
}

// OnChannelDrop: объект брошен на канал channelID.
func (v *View) OnChannelDrop(ctx context.Context, d Drop, channelID string) error {
	if identity.IsImitation(d.ID) {
		return nil
	}
	switch d.Kind {
	case DragThread:
		return v.MoveThreadToChannel(ctx, d.ID, channelID)
	case DragMessage:
		return v.MoveMessageToChannel(ctx, d.ID, channelID)
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown drag source %q", d.Kind)}
	}
}

// OnThreadDrop: объект брошен на тред threadID. Неподтверждённые сущности
// сервер ещё не знает, их не переносим.
func (v *View) OnThreadDrop(ctx context.Context, d Drop, threadID string) error {
	if identity.IsImitation(d.ID) || identity.IsImitation(threadID) {
		return nil
	}
	switch d.Kind {
	case DragThread:
		return v.MergeThreads(ctx, d.ID, threadID)
	case DragMessage:
		return v.MoveMessageToThread(ctx, d.ID, threadID)
	default:
		return &ValidationError{Reason: fmt.Sprintf("unknown drag source %q", d.Kind)}
	}
}

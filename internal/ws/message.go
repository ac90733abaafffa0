package ws

import "github.com/linen/internal/store"

type EventType string

const (
	// к UI
	EventSnapshot EventType = "snapshot"
	EventToast    EventType = "toast"
	EventError    EventType = "error"

	// от UI
	EventSelectThread   EventType = "select_thread"
	EventToggleReaction EventType = "toggle_reaction"
)

// IncomingMessage: команда от локального UI.
type IncomingMessage struct {
	Type      EventType `json:"type"`
	ThreadID  string    `json:"thread_id,omitempty"`
	MessageID string    `json:"message_id,omitempty"`
	Reaction  string    `json:"reaction,omitempty"`
}

// OutgoingMessage: то, что уходит в UI.
type OutgoingMessage struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

// SnapshotPayload: полная коллекция канала и открытый тред.
type SnapshotPayload struct {
	store.Collection
	CurrentThread string `json:"currentThreadId,omitempty"`
}

type ToastPayload struct {
	Message string `json:"message"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

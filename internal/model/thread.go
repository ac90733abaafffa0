package model

import (
	"slices"
	"time"
)

type ThreadState string

const (
	ThreadStateOpen   ThreadState = "OPEN"
	ThreadStateClosed ThreadState = "CLOSED"
)

type Thread struct {
	ID        string      `json:"id"`
	ChannelID string      `json:"channelId"`
	Title     string      `json:"title,omitempty"`
	State     ThreadState `json:"state"`
	Pinned    bool        `json:"pinned"`
	SentAt    time.Time   `json:"sentAt"`
	Messages  []Message   `json:"messages"`
}

// Closed: закрытый тред не принимает обычных правок (ответов).
func (t Thread) Closed() bool {
	return t.State == ThreadStateClosed
}

// IndexOfMessage возвращает позицию сообщения в треде или -1.
func (t Thread) IndexOfMessage(id string) int {
	return slices.IndexFunc(t.Messages, func(m Message) bool { return m.ID == id })
}

// IndexOfThread возвращает позицию треда в списке или -1.
func IndexOfThread(threads []Thread, id string) int {
	return slices.IndexFunc(threads, func(t Thread) bool { return t.ID == id })
}

// FindMessage ищет сообщение во всех тредах.
func FindMessage(threads []Thread, id string) (Message, Thread, bool) {
	for _, t := range threads {
		if i := t.IndexOfMessage(id); i >= 0 {
			return t.Messages[i], t, true
		}
	}
	return Message{}, Thread{}, false
}

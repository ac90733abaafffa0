package model

import (
	"slices"
	"time"
)

type MessageFormat string

const (
	MessageFormatPlain    MessageFormat = "PLAIN"
	MessageFormatMarkdown MessageFormat = "MARKDOWN"
)

type Message struct {
	ID            string        `json:"id"`
	ThreadID      string        `json:"threadId"`
	Body          string        `json:"body"`
	SentAt        time.Time     `json:"sentAt"`
	UsersID       string        `json:"usersId"`
	Author        *User         `json:"author"`
	Reactions     []Reaction    `json:"reactions"`
	Attachments   []Attachment  `json:"attachments"`
	Mentions      []User        `json:"mentions"`
	MessageFormat MessageFormat `json:"messageFormat"`
}

// Reaction: агрегат реакций одного типа на сообщение. Count всегда равен len(Users).
type Reaction struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
	Users []User `json:"users"`
}

type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// UploadedFile: файл, уже загруженный на сервер и прикладываемый к отправке.
type UploadedFile struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// HasReaction сообщает, отреагировал ли userID реакцией reactionType.
func (m Message) HasReaction(reactionType, userID string) bool {
	for _, r := range m.Reactions {
		if r.Type != reactionType {
			continue
		}
		return slices.ContainsFunc(r.Users, func(u User) bool { return u.ID == userID })
	}
	return false
}

// SortBySentAt сортирует сообщения по времени отправки (по возрастанию, стабильно).
// Возвращает новый срез, исходный не меняется.
func SortBySentAt(messages []Message) []Message {
	out := slices.Clone(messages)
	slices.SortStableFunc(out, func(a, b Message) int {
		return a.SentAt.Compare(b.SentAt)
	})
	return out
}

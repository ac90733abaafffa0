// Package imitation собирает временные (ещё не подтверждённые сервером) треды и сообщения.
package imitation

import (
	"time"

	"github.com/linen/internal/identity"
	"github.com/linen/internal/mention"
	"github.com/linen/internal/model"
)

// Draft: то, что пользователь отправляет.
type Draft struct {
	Body    string
	Files   []model.UploadedFile
	Author  model.User
	Channel model.Channel
}

// Builder не делает сетевых вызовов и не трогает хранилище.
type Builder struct {
	Users mention.Lookup
	Now   func() time.Time
	NewID func() string
}

func NewBuilder(users mention.Lookup) *Builder {
	return &Builder{Users: users}
}

func (b *Builder) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now().UTC()
}

func (b *Builder) newID() string {
	if b.NewID != nil {
		return b.NewID()
	}
	return identity.NewImitationID()
}

// Thread собирает тред-имитацию ровно с одним сообщением.
func (b *Builder) Thread(d Draft) model.Thread {
	threadID := b.newID()
	msg := b.Message(threadID, d)
	return model.Thread{
		ID:        threadID,
		ChannelID: d.Channel.ID,
		State:     model.ThreadStateOpen,
		SentAt:    msg.SentAt,
		Messages:  []model.Message{msg},
	}
}

// Message собирает сообщение-имитацию для треда threadID.
func (b *Builder) Message(threadID string, d Draft) model.Message {
	author := d.Author
	attachments := make([]model.Attachment, 0, len(d.Files))
	for _, f := range d.Files {
		attachments = append(attachments, model.Attachment{Name: f.ID, URL: f.URL})
	}
	mentions := mention.Resolve(d.Body, b.Users)
	if mentions == nil {
		mentions = []model.User{}
	}
	return model.Message{
		ID:            b.newID(),
		ThreadID:      threadID,
		Body:          d.Body,
		SentAt:        b.now(),
		UsersID:       author.ID,
		Author:        &author,
		Reactions:     []model.Reaction{},
		Attachments:   attachments,
		Mentions:      mentions,
		MessageFormat: model.MessageFormatPlain,
	}
}

// FromMessage готовит черновик из существующего сообщения (перенос сообщения в канал).
// Автор может быть удалён: тогда черновик получает пустого автора.
func FromMessage(m model.Message, channel model.Channel) Draft {
	files := make([]model.UploadedFile, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		files = append(files, model.UploadedFile{ID: a.Name, URL: a.URL})
	}
	d := Draft{Body: m.Body, Files: files, Channel: channel}
	if m.Author != nil {
		d.Author = *m.Author
	}
	return d
}

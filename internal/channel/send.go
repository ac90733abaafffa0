package channel

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/linen/internal/api"
	"github.com/linen/internal/imitation"
	"github.com/linen/internal/logger"
	"github.com/linen/internal/mention"
	"github.com/linen/internal/model"
	"github.com/linen/internal/push"
	"github.com/linen/internal/reconcile"
	"github.com/linen/internal/store"
)

func (v *View) validateDraft(body string, files []model.UploadedFile) (model.User, error) {
	user, ok := v.currentUser()
	if !ok {
		return model.User{}, ErrNotSignedIn
	}
	if strings.TrimSpace(body) == "" && len(files) == 0 {
		return model.User{}, ErrEmptyBody
	}
	for _, f := range files {
		if f.Size > v.cfg.MaxFileSize {
			return model.User{}, ErrFileTooLarge
		}
	}
	return user, nil
}

// SendMessage создаёт тред в канале. Тред-имитация появляется сразу, запрос
// уходит после окна debounce. Если запрос не прошёл, имитация убирается.
// Возвращает id имитации.
func (v *View) SendMessage(ctx context.Context, body string, files []model.UploadedFile) (string, error) {
	if !v.alive.Load() {
		return "", ErrClosed
	}
	user, err := v.validateDraft(body, files)
	if err != nil {
		return "", err
	}
	th := v.builder.Thread(imitation.Draft{Body: body, Files: files, Author: user, Channel: v.cfg.Channel})
	v.store.Update(func(c store.Collection) store.Collection {
		c.Threads = append(cloneThreads(c.Threads), th)
		return c
	})
	logger.Debugf("channel %s: imitation thread %s", v.cfg.Channel.ID, th.ID)

	req := api.ChannelMessageRequest{Body: body, Files: files, ChannelID: v.cfg.Channel.ID, ImitationID: th.ID}
	v.async(func(ctx context.Context) {
		defer logger.DeferLogDuration("channel.SendMessage", time.Now())()
		resp, err := v.sends.Do(ctx, th.ID, func(ctx context.Context) (api.ChannelMessageResponse, error) {
			return v.api.SendChannelMessage(ctx, req)
		})
		if err != nil {
			if v.alive.Load() && !errors.Is(err, context.Canceled) {
				v.store.Update(func(c store.Collection) store.Collection {
					c.Threads = reconcile.Discard(c.Threads, th.ID)
					return c
				})
			}
			v.fail("send message", "Failed to send the message.", err)
			return
		}
		if !v.alive.Load() {
			return
		}
		next := v.store.Update(func(c store.Collection) store.Collection {
			c.Threads = reconcile.Confirm(c.Threads, th.ID, resp.Thread)
			return c
		})
		v.users.AddFromThreads(next.Threads)
		if len(resp.Thread.Messages) > 0 {
			v.notifyMentions(ctx, resp.Thread.Messages[0], resp.Thread.ID)
		}
	})
	return th.ID, nil
}

// SendReply добавляет ответ в тред. В закрытый тред ответить нельзя;
// неизвестный тред: без изменений.
func (v *View) SendReply(ctx context.Context, threadID, body string, files []model.UploadedFile) (string, error) {
	if !v.alive.Load() {
		return "", ErrClosed
	}
	user, err := v.validateDraft(body, files)
	if err != nil {
		return "", err
	}
	snap := v.store.Snapshot()
	i := model.IndexOfThread(snap.Threads, threadID)
	if i < 0 {
		return "", nil
	}
	if snap.Threads[i].Closed() {
		return "", ErrThreadClosed
	}
	msg := v.builder.Message(threadID, imitation.Draft{Body: body, Files: files, Author: user, Channel: v.cfg.Channel})
	v.store.Update(func(c store.Collection) store.Collection {
		c.Threads = appendMessage(c.Threads, threadID, msg)
		c.Pinned = appendMessage(c.Pinned, threadID, msg)
		return c
	})

	req := api.ThreadMessageRequest{Body: body, Files: files, ThreadID: threadID, ImitationID: msg.ID}
	v.async(func(ctx context.Context) {
		defer logger.DeferLogDuration("channel.SendReply", time.Now())()
		resp, err := v.replies.Do(ctx, msg.ID, func(ctx context.Context) (api.ThreadMessageResponse, error) {
			return v.api.SendThreadMessage(ctx, req)
		})
		if err != nil {
			if v.alive.Load() && !errors.Is(err, context.Canceled) {
				v.store.Update(func(c store.Collection) store.Collection {
					c.Threads = reconcile.DiscardReply(c.Threads, threadID, msg.ID)
					c.Pinned = reconcile.DiscardReply(c.Pinned, threadID, msg.ID)
					return c
				})
			}
			v.fail("send reply", "Failed to send the message.", err)
			return
		}
		if !v.alive.Load() {
			return
		}
		v.store.Update(func(c store.Collection) store.Collection {
			c.Threads = reconcile.ConfirmReply(c.Threads, threadID, msg.ID, resp.Message)
			c.Pinned = reconcile.ConfirmReply(c.Pinned, threadID, msg.ID, resp.Message)
			return c
		})
		v.notifyMentions(ctx, resp.Message, threadID)
	})
	return msg.ID, nil
}

func (v *View) notifyMentions(ctx context.Context, m model.Message, threadID string) {
	if v.push == nil || len(m.Mentions) == 0 {
		return
	}
	push.NotifyMentions(ctx, v.push, m.Body, m.Mentions, mention.Users(m.Mentions), threadID, v.cfg.Channel.ID)
}

func appendMessage(threads []model.Thread, threadID string, m model.Message) []model.Thread {
	i := model.IndexOfThread(threads, threadID)
	if i < 0 {
		return threads
	}
	out := cloneThreads(threads)
	msgs := make([]model.Message, 0, len(threads[i].Messages)+1)
	msgs = append(msgs, threads[i].Messages...)
	out[i].Messages = model.SortBySentAt(append(msgs, m))
	return out
}

func cloneThreads(threads []model.Thread) []model.Thread {
	out := make([]model.Thread, len(threads), len(threads)+1)
	copy(out, threads)
	return out
}

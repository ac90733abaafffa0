package channel

import (
	"context"
	"slices"

	"github.com/linen/internal/api"
	"github.com/linen/internal/imitation"
	"github.com/linen/internal/logger"
	"github.com/linen/internal/model"
	"github.com/linen/internal/mutate"
	"github.com/linen/internal/reaction"
	"github.com/linen/internal/reconcile"
	"github.com/linen/internal/store"
)

// PinThread закрепляет или открепляет тред. Неизвестный тред: без запроса.
func (v *View) PinThread(ctx context.Context, threadID string, pinned bool) error {
	if !v.alive.Load() {
		return ErrClosed
	}
	var ok bool
	v.store.Update(func(c store.Collection) store.Collection {
		c.Threads, c.Pinned, ok = mutate.SetPinned(c.Threads, c.Pinned, threadID, pinned)
		return c
	})
	if !ok {
		return nil
	}
	if err := v.api.PinThread(ctx, threadID, pinned); err != nil {
		return v.fail("pin thread", "Failed to pin the thread.", err)
	}
	return nil
}

// UpdateThread меняет состояние и/или заголовок треда.
func (v *View) UpdateThread(ctx context.Context, threadID string, p mutate.Patch) error {
	if !v.alive.Load() {
		return ErrClosed
	}
	var ok bool
	v.store.Update(func(c store.Collection) store.Collection {
		c.Threads, ok = mutate.UpdateThread(c.Threads, threadID, p)
		c.Pinned, _ = mutate.UpdateThread(c.Pinned, threadID, p)
		return c
	})
	if !ok {
		return nil
	}
	if err := v.api.UpdateThread(ctx, threadID, api.ThreadUpdate{State: p.State, Title: p.Title}); err != nil {
		message := "Failed to update the thread."
		if p.State != nil && *p.State == model.ThreadStateClosed {
			message = "Failed to close the thread."
		}
		return v.fail("update thread", message, err)
	}
	return nil
}

// SendReaction ставит (active=false) или снимает (active=true) реакцию текущего
// пользователя. Запрос уходит в фоне, ошибка только логируется.
func (v *View) SendReaction(ctx context.Context, threadID, messageID, reactionType string, active bool) {
	user, ok := v.currentUser()
	if !ok || !v.alive.Load() {
		return
	}
	v.store.Update(func(c store.Collection) store.Collection {
		c.Threads = reaction.ApplyThreads(c.Threads, threadID, messageID, reactionType, user, active)
		c.Pinned = reaction.ApplyThreads(c.Pinned, threadID, messageID, reactionType, user, active)
		return c
	})
	action := reaction.ActionFor(active)
	v.async(func(ctx context.Context) {
		if err := v.api.PostReaction(ctx, messageID, reactionType, action); err != nil {
			logger.Errorf("channel %s: reaction %s on %s: %v", v.cfg.Channel.ID, action, messageID, err)
		}
	})
}

// ToggleReaction определяет active по текущему состоянию сообщения.
func (v *View) ToggleReaction(ctx context.Context, threadID, messageID, reactionType string) {
	user, ok := v.currentUser()
	if !ok {
		return
	}
	snap := v.store.Snapshot()
	i := model.IndexOfThread(snap.Threads, threadID)
	if i < 0 {
		return
	}
	j := snap.Threads[i].IndexOfMessage(messageID)
	if j < 0 {
		return
	}
	active := snap.Threads[i].Messages[j].HasReaction(reactionType, user.ID)
	v.SendReaction(ctx, threadID, messageID, reactionType, active)
}

// MergeThreads переносит все сообщения from в to и удаляет from.
func (v *View) MergeThreads(ctx context.Context, from, to string) error {
	if !v.alive.Load() {
		return ErrClosed
	}
	snap := v.store.Snapshot()
	i := model.IndexOfThread(snap.Threads, from)
	if i < 0 {
		return nil
	}
	if len(snap.Threads[i].Messages) > 0 && !v.cfg.Permissions.CanDrag(snap.Threads[i].Messages[0]) {
		return ErrNotPermitted
	}
	var ok bool
	v.store.Update(func(c store.Collection) store.Collection {
		c.Threads, ok = mutate.MergeThreads(c.Threads, from, to)
		c.Pinned = syncPinned(c.Pinned, c.Threads, from, to)
		return c
	})
	if !ok {
		return nil
	}
	if err := v.api.MergeThreads(ctx, from, to); err != nil {
		return v.fail("merge threads", "Failed to merge threads.", err)
	}
	return nil
}

// MoveMessageToThread переносит сообщение в другой тред.
func (v *View) MoveMessageToThread(ctx context.Context, messageID, threadID string) error {
	if !v.alive.Load() {
		return ErrClosed
	}
	m, src, found := model.FindMessage(v.store.Snapshot().Threads, messageID)
	if !found {
		return nil
	}
	if !v.cfg.Permissions.CanDrag(m) {
		return ErrNotPermitted
	}
	var ok bool
	v.store.Update(func(c store.Collection) store.Collection {
		c.Threads, ok = mutate.MoveMessageToThread(c.Threads, messageID, threadID)
		c.Pinned = syncPinned(c.Pinned, c.Threads, src.ID, threadID)
		return c
	})
	if !ok {
		return nil
	}
	if err := v.api.MoveMessageToThread(ctx, messageID, threadID); err != nil {
		return v.fail("move message", "Failed to move the message.", err)
	}
	return nil
}

// MoveMessageToChannel выносит сообщение в новый тред канала channelID.
// Для текущего канала сразу появляется тред-имитация.
func (v *View) MoveMessageToChannel(ctx context.Context, messageID, channelID string) error {
	if !v.alive.Load() {
		return ErrClosed
	}
	m, src, found := model.FindMessage(v.store.Snapshot().Threads, messageID)
	if !found {
		return nil
	}
	if !v.cfg.Permissions.CanDrag(m) {
		return ErrNotPermitted
	}
	var imit *model.Thread
	if channelID == v.cfg.Channel.ID {
		d := imitation.FromMessage(m, v.cfg.Channel)
		if m.Author == nil {
			if u, ok := v.users.ByID(m.UsersID); ok {
				d.Author = u
			}
		}
		th := v.builder.Thread(d)
		imit = &th
	}
	var ok bool
	v.store.Update(func(c store.Collection) store.Collection {
		c.Threads, ok = mutate.MoveMessageToChannel(c.Threads, messageID, imit)
		c.Pinned = syncPinned(c.Pinned, c.Threads, src.ID)
		return c
	})
	if !ok {
		return nil
	}
	th, err := v.api.MoveMessageToChannel(ctx, messageID, channelID)
	if err != nil {
		return v.fail("move message to channel", "Failed to move the message.", err)
	}
	if imit != nil && v.alive.Load() && th.ID != "" {
		v.store.Update(func(c store.Collection) store.Collection {
			c.Threads = reconcile.Confirm(c.Threads, imit.ID, th)
			return c
		})
	}
	return nil
}

// MoveThreadToChannel переносит тред в другой канал.
func (v *View) MoveThreadToChannel(ctx context.Context, threadID, channelID string) error {
	if !v.alive.Load() {
		return ErrClosed
	}
	snap := v.store.Snapshot()
	i := model.IndexOfThread(snap.Threads, threadID)
	if i < 0 {
		return nil
	}
	if len(snap.Threads[i].Messages) > 0 && !v.cfg.Permissions.CanDrag(snap.Threads[i].Messages[0]) {
		return ErrNotPermitted
	}
	var ok bool
	v.store.Update(func(c store.Collection) store.Collection {
		c.Threads, ok = mutate.MoveThreadToChannel(c.Threads, threadID, channelID)
		c.Pinned = syncPinned(c.Pinned, c.Threads, threadID)
		return c
	})
	if !ok {
		return nil
	}
	if err := v.api.MoveThreadToChannel(ctx, threadID, channelID); err != nil {
		return v.fail("move thread", "Failed to move the thread.", err)
	}
	return nil
}

// syncPinned переносит в зеркало закреплённых новое состояние тредов ids:
// исчезнувший из threads тред убирается, оставшийся заменяется.
func syncPinned(pinned, threads []model.Thread, ids ...string) []model.Thread {
	out := pinned
	for _, id := range ids {
		pi := model.IndexOfThread(out, id)
		if pi < 0 {
			continue
		}
		if ti := model.IndexOfThread(threads, id); ti >= 0 {
			out = slices.Clone(out)
			out[pi] = threads[ti]
			continue
		}
		out = slices.Delete(slices.Clone(out), pi, pi+1)
	}
	return out
}

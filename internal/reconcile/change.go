package reconcile

import (
	"slices"

	"github.com/linen/internal/identity"
	"github.com/linen/internal/model"
)

// Change: разобранное событие. Apply применяется к основному списку тредов,
// Mirror: к зеркалу закреплённых.
type Change interface {
	Apply(threads []model.Thread) []model.Thread
	Mirror(pinned []model.Thread) []model.Thread
}

// ReplyChange: новое или обновлённое сообщение в треде ThreadID.
type ReplyChange struct {
	ThreadID string
	Key      identity.Pair
	Message  model.Message
}

func (c ReplyChange) Apply(threads []model.Thread) []model.Thread {
	i := model.IndexOfThread(threads, c.ThreadID)
	if i < 0 {
		return threads
	}
	out := slices.Clone(threads)
	out[i].Messages = upsert(threads[i].Messages, c.Key, c.Message, messageID)
	return out
}

// Mirror: ответ попадает в закреплённый тред, только если тот уже в зеркале.
func (c ReplyChange) Mirror(pinned []model.Thread) []model.Thread {
	return c.Apply(pinned)
}

// ThreadChange: новый или обновлённый тред.
type ThreadChange struct {
	Key    identity.Pair
	Thread model.Thread
}

func (c ThreadChange) Apply(threads []model.Thread) []model.Thread {
	return upsert(threads, c.Key, c.Thread, threadID)
}

// Mirror держит зеркало закреплённых в согласии с флагом pinned пришедшего треда.
func (c ThreadChange) Mirror(pinned []model.Thread) []model.Thread {
	if c.Thread.Pinned {
		return upsert(pinned, c.Key, c.Thread, threadID)
	}
	if !slices.ContainsFunc(pinned, func(t model.Thread) bool { return c.Key.Matches(t.ID) }) {
		return pinned
	}
	return slices.DeleteFunc(slices.Clone(pinned), func(t model.Thread) bool { return c.Key.Matches(t.ID) })
}

// Batch: несколько изменений из одного payload, применяются по порядку.
type Batch []Change

func (b Batch) Apply(threads []model.Thread) []model.Thread {
	for _, c := range b {
		threads = c.Apply(threads)
	}
	return threads
}

func (b Batch) Mirror(pinned []model.Thread) []model.Thread {
	for _, c := range b {
		pinned = c.Mirror(pinned)
	}
	return pinned
}

// Confirm: подтверждение отправки из HTTP-ответа. Если сокет уже доставил
// подтверждённый тред, убирается только имитация; иначе тред встаёт на место
// имитации (или в конец, если имитации уже нет).
func Confirm(threads []model.Thread, imitationID string, confirmed model.Thread) []model.Thread {
	if model.IndexOfThread(threads, confirmed.ID) >= 0 {
		return without(threads, imitationID, threadID)
	}
	return upsert(threads, identity.NewPair(imitationID, confirmed.ID), confirmed, threadID)
}

// ConfirmReply: то же для ответа в тред.
func ConfirmReply(threads []model.Thread, threadIDValue, imitationID string, confirmed model.Message) []model.Thread {
	i := model.IndexOfThread(threads, threadIDValue)
	if i < 0 {
		return threads
	}
	out := slices.Clone(threads)
	if threads[i].IndexOfMessage(confirmed.ID) >= 0 {
		out[i].Messages = without(threads[i].Messages, imitationID, messageID)
		return out
	}
	out[i].Messages = upsert(threads[i].Messages, identity.NewPair(imitationID, confirmed.ID), confirmed, messageID)
	return out
}

// Discard убирает имитацию (запрос не удался и её нечем заменить).
func Discard(threads []model.Thread, imitationID string) []model.Thread {
	return without(threads, imitationID, threadID)
}

// DiscardReply убирает имитацию ответа из треда.
func DiscardReply(threads []model.Thread, threadIDValue, imitationID string) []model.Thread {
	i := model.IndexOfThread(threads, threadIDValue)
	if i < 0 {
		return threads
	}
	out := slices.Clone(threads)
	out[i].Messages = without(threads[i].Messages, imitationID, messageID)
	return out
}

func threadID(t model.Thread) string   { return t.ID }
func messageID(m model.Message) string { return m.ID }

// upsert убирает все записи, совпадающие с key, и вставляет v ровно один раз -
// на место первого совпадения, либо в конец.
func upsert[T any](items []T, key identity.Pair, v T, id func(T) string) []T {
	out := make([]T, 0, len(items)+1)
	placed := false
	for _, it := range items {
		if !key.Matches(id(it)) {
			out = append(out, it)
			continue
		}
		if !placed {
			out = append(out, v)
			placed = true
		}
	}
	if !placed {
		out = append(out, v)
	}
	return out
}

func without[T any](items []T, drop string, id func(T) string) []T {
	if drop == "" || !slices.ContainsFunc(items, func(it T) bool { return id(it) == drop }) {
		return items
	}
	return slices.DeleteFunc(slices.Clone(items), func(it T) bool { return id(it) == drop })
}

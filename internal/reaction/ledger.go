// Package reaction пересчитывает агрегаты реакций сообщения на локальное нажатие/снятие реакции.
package reaction

import (
	"slices"

	"github.com/linen/internal/model"
)

type Action string

const (
	ActionIncrement Action = "increment"
	ActionDecrement Action = "decrement"
)

// ActionFor определяет, что уходит на сервер; active означает, что пользователь снимает реакцию.
func ActionFor(active bool) Action {
	if active {
		return ActionDecrement
	}
	return ActionIncrement
}

// Apply возвращает новый срез сообщений с применённой реакцией.
// Корректность active гарантирует вызывающий; повторное добавление того же
// пользователя здесь не отсекается. Исходный срез не меняется.
func Apply(messages []model.Message, messageID, reactionType string, user model.User, active bool) []model.Message {
	i := slices.IndexFunc(messages, func(m model.Message) bool { return m.ID == messageID })
	if i < 0 {
		return messages
	}
	out := slices.Clone(messages)
	out[i].Reactions = applyOne(messages[i].Reactions, reactionType, user, active)
	return out
}

func applyOne(reactions []model.Reaction, reactionType string, user model.User, active bool) []model.Reaction {
	j := slices.IndexFunc(reactions, func(r model.Reaction) bool { return r.Type == reactionType })
	if j < 0 {
		out := make([]model.Reaction, 0, len(reactions)+1)
		out = append(out, reactions...)
		return append(out, model.Reaction{Type: reactionType, Count: 1, Users: []model.User{user}})
	}

	cur := reactions[j]
	if active {
		if cur.Count-1 <= 0 {
			return slices.Delete(slices.Clone(reactions), j, j+1)
		}
		out := slices.Clone(reactions)
		out[j] = model.Reaction{
			Type:  reactionType,
			Count: cur.Count - 1,
			Users: slices.DeleteFunc(slices.Clone(cur.Users), func(u model.User) bool { return u.ID == user.ID }),
		}
		return out
	}

	users := make([]model.User, 0, len(cur.Users)+1)
	users = append(users, cur.Users...)
	users = append(users, user)
	out := slices.Clone(reactions)
	out[j] = model.Reaction{Type: reactionType, Count: cur.Count + 1, Users: users}
	return out
}

// ApplyThreads применяет реакцию к сообщению треда threadID. Используется и для
// основного списка, и для зеркала закреплённых тредов, чтобы оба вида совпадали.
func ApplyThreads(threads []model.Thread, threadID, messageID, reactionType string, user model.User, active bool) []model.Thread {
	i := model.IndexOfThread(threads, threadID)
	if i < 0 {
		return threads
	}
	out := slices.Clone(threads)
	out[i].Messages = Apply(threads[i].Messages, messageID, reactionType, user, active)
	return out
}

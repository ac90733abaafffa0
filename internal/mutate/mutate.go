// Package mutate содержит структурные перестановки тредов и сообщений: слияние тредов,
// перенос сообщения в тред или канал, перенос треда в канал, закрепление.
//
// Все функции чистые: входные срезы не меняются, возвращается новое значение и
// признак ok. ok == false означает, что операция ничего не изменила (не найден
// id или изменение уже применено) и запрос на сервер отправлять не нужно.
package mutate

import (
	"slices"

	"github.com/linen/internal/model"
)

// MergeThreads переносит все сообщения from в to (с пересортировкой по времени)
// и убирает from из списка.
func MergeThreads(threads []model.Thread, from, to string) ([]model.Thread, bool) {
	if from == to {
		return threads, false
	}
	fi := model.IndexOfThread(threads, from)
	ti := model.IndexOfThread(threads, to)
	if fi < 0 || ti < 0 {
		return threads, false
	}

	source := threads[fi]
	merged := make([]model.Message, 0, len(threads[ti].Messages)+len(source.Messages))
	merged = append(merged, threads[ti].Messages...)
	for _, m := range source.Messages {
		m.ThreadID = to
		merged = append(merged, m)
	}

	out := make([]model.Thread, 0, len(threads)-1)
	for i, t := range threads {
		switch i {
		case fi:
			continue
		case ti:
			t.Messages = model.SortBySentAt(merged)
		}
		out = append(out, t)
	}
	return out, true
}

// MoveMessageToThread убирает сообщение из текущего треда и вставляет в threadID.
// Если целевой тред уже содержит сообщение, список не меняется. Если целевого
// треда нет в списке (другая страница), сообщение просто исчезает из текущего.
func MoveMessageToThread(threads []model.Thread, messageID, threadID string) ([]model.Thread, bool) {
	msg, _, found := model.FindMessage(threads, messageID)
	if !found {
		return threads, false
	}
	if di := model.IndexOfThread(threads, threadID); di >= 0 && threads[di].IndexOfMessage(messageID) >= 0 {
		return threads, false
	}

	msg.ThreadID = threadID
	out := make([]model.Thread, 0, len(threads))
	for _, t := range threads {
		if t.ID == threadID {
			msgs := make([]model.Message, 0, len(t.Messages)+1)
			msgs = append(msgs, t.Messages...)
			msgs = append(msgs, msg)
			t.Messages = model.SortBySentAt(msgs)
			out = append(out, t)
			continue
		}
		if t.IndexOfMessage(messageID) >= 0 {
			t = withoutMessage(t, messageID)
			if len(t.Messages) == 0 {
				continue
			}
		}
		out = append(out, t)
	}
	return out, true
}

// MoveMessageToChannel убирает сообщение из его треда. imitation: новый тред
// для переносимого сообщения, если канал назначения совпадает с текущим;
// для другого канала передаётся nil, тред создаст сервер.
func MoveMessageToChannel(threads []model.Thread, messageID string, imitation *model.Thread) ([]model.Thread, bool) {
	if _, _, found := model.FindMessage(threads, messageID); !found {
		return threads, false
	}
	out := make([]model.Thread, 0, len(threads)+1)
	for _, t := range threads {
		if t.IndexOfMessage(messageID) >= 0 {
			t = withoutMessage(t, messageID)
			if len(t.Messages) == 0 {
				continue
			}
		}
		out = append(out, t)
	}
	if imitation != nil {
		out = append(out, *imitation)
	}
	return out, true
}

// MoveThreadToChannel убирает тред, если он переносится в другой канал.
func MoveThreadToChannel(threads []model.Thread, threadID, channelID string) ([]model.Thread, bool) {
	i := model.IndexOfThread(threads, threadID)
	if i < 0 || threads[i].ChannelID == channelID {
		return threads, false
	}
	return slices.Delete(slices.Clone(threads), i, i+1), true
}

func withoutMessage(t model.Thread, messageID string) model.Thread {
	t.Messages = slices.DeleteFunc(slices.Clone(t.Messages), func(m model.Message) bool {
		return m.ID == messageID
	})
	return t
}

package mutate

import (
	"slices"

	"github.com/linen/internal/model"
)

// SetPinned меняет флаг pinned в основном списке и добавляет/убирает тред из
// зеркала закреплённых.
func SetPinned(threads, pinned []model.Thread, threadID string, value bool) ([]model.Thread, []model.Thread, bool) {
	i := model.IndexOfThread(threads, threadID)
	if i < 0 {
		return threads, pinned, false
	}
	nextThreads := slices.Clone(threads)
	nextThreads[i].Pinned = value

	nextPinned := slices.DeleteFunc(slices.Clone(pinned), func(t model.Thread) bool { return t.ID == threadID })
	if value {
		nextPinned = append(nextPinned, nextThreads[i])
	}
	return nextThreads, nextPinned, true
}

// Patch: изменяемые поля треда; nil означает «не трогать».
type Patch struct {
	State *model.ThreadState `json:"state,omitempty"`
	Title *string            `json:"title,omitempty"`
}

func (p Patch) Empty() bool {
	return p.State == nil && p.Title == nil
}

// UpdateThread применяет patch к треду threadID.
func UpdateThread(threads []model.Thread, threadID string, p Patch) ([]model.Thread, bool) {
	i := model.IndexOfThread(threads, threadID)
	if i < 0 || p.Empty() {
		return threads, false
	}
	out := slices.Clone(threads)
	if p.State != nil {
		out[i].State = *p.State
	}
	if p.Title != nil {
		out[i].Title = *p.Title
	}
	return out, true
}

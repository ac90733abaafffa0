// Package directory: справочник известных пользователей сообщества.
// Передаётся явно в сборщик имитаций и рендер упоминаний, глобального состояния нет.
package directory

import (
	"strings"
	"sync"

	"github.com/linen/internal/model"
)

type Directory struct {
	mu         sync.RWMutex
	byID       map[string]model.User
	byUsername map[string]string
}

func New(users ...model.User) *Directory {
	d := &Directory{
		byID:       make(map[string]model.User),
		byUsername: make(map[string]string),
	}
	d.Add(users...)
	return d
}

// Add добавляет или обновляет пользователей. Пустые id игнорируются.
func (d *Directory) Add(users ...model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, u := range users {
		if u.ID == "" {
			continue
		}
		if prev, ok := d.byID[u.ID]; ok {
			// Неполная запись (например, из реакций) не затирает известные поля.
			if u.Username == "" {
				u.Username = prev.Username
			}
			if u.DisplayName == "" {
				u.DisplayName = prev.DisplayName
			}
			if prev.Username != "" && !strings.EqualFold(prev.Username, u.Username) {
				delete(d.byUsername, strings.ToLower(prev.Username))
			}
		}
		d.byID[u.ID] = u
		if u.Username != "" {
			d.byUsername[strings.ToLower(u.Username)] = u.ID
		}
	}
}

// AddFromThreads собирает авторов, упомянутых и отреагировавших пользователей.
func (d *Directory) AddFromThreads(threads []model.Thread) {
	var users []model.User
	for _, t := range threads {
		for _, m := range t.Messages {
			if m.Author != nil {
				users = append(users, *m.Author)
			}
			users = append(users, m.Mentions...)
			for _, r := range m.Reactions {
				users = append(users, r.Users...)
			}
		}
	}
	d.Add(users...)
}

func (d *Directory) ByID(id string) (model.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.byID[id]
	return u, ok
}

// ByUsername ищет без учёта регистра.
func (d *Directory) ByUsername(username string) (model.User, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	id, ok := d.byUsername[strings.ToLower(username)]
	if !ok {
		return model.User{}, false
	}
	u, ok := d.byID[id]
	return u, ok
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}

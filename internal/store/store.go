// Package store хранит текущую коллекцию тредов канала. Читатели получают
// неизменяемый снимок, писатели сериализуются и всегда строят новое значение
// из последнего.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/linen/internal/model"
)

// Collection: треды канала и зеркало закреплённых.
type Collection struct {
	Threads []model.Thread `json:"threads"`
	Pinned  []model.Thread `json:"pinned"`
}

type Store struct {
	mu   sync.Mutex
	cur  atomic.Pointer[Collection]
	subs map[int]chan Collection
	next int
}

func New(initial Collection) *Store {
	s := &Store{subs: make(map[int]chan Collection)}
	s.cur.Store(&initial)
	return s
}

// Snapshot возвращает текущее значение. Срезы внутри разделяются с хранилищем,
// менять их нельзя.
func (s *Store) Snapshot() Collection {
	return *s.cur.Load()
}

// Update применяет fn к последнему значению и публикует результат.
func (s *Store) Update(fn func(Collection) Collection) Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := fn(*s.cur.Load())
	s.cur.Store(&next)
	s.broadcast(next)
	return next
}

// Reset заменяет коллекцию целиком (загрузка канала).
func (s *Store) Reset(c Collection) {
	s.Update(func(Collection) Collection { return c })
}

// Subscribe возвращает канал снимков. Медленный подписчик пропускает
// промежуточные значения, писатели на нём не блокируются.
func (s *Store) Subscribe(buffer int) (<-chan Collection, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan Collection, buffer)
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// broadcast вызывается под s.mu.
func (s *Store) broadcast(c Collection) {
	for _, ch := range s.subs {
		select {
		case ch <- c:
			continue
		default:
		}
		// Буфер полон: выкидываем самый старый снимок.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- c:
		default:
		}
	}
}

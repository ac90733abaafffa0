package channel

import "github.com/linen/internal/logger"

// Notifier показывает пользователю ошибку (toast).
type Notifier interface {
	Notify(err error)
}

// NotifierFunc позволяет передать функцию как Notifier.
type NotifierFunc func(err error)

func (f NotifierFunc) Notify(err error) { f(err) }

type logNotifier struct{}

func (logNotifier) Notify(err error) { logger.Errorf("%v", err) }

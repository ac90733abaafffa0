package channel

import (
	"errors"
	"fmt"
)

// ValidationError: действие отклонено до любых локальных изменений.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

var (
	ErrEmptyBody    = &ValidationError{Reason: "message is empty"}
	ErrFileTooLarge = &ValidationError{Reason: "file is too large"}
	ErrThreadClosed = &ValidationError{Reason: "thread is closed"}
	ErrNotSignedIn  = &ValidationError{Reason: "sign in to continue"}
	ErrNotPermitted = &ValidationError{Reason: "not permitted"}
)

// ErrClosed: представление уже закрыто.
var ErrClosed = errors.New("channel: view closed")

// NetworkError: запрос к серверу не прошёл. Локальное состояние не откатывается.
type NetworkError struct {
	Op      string
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsValidation: true для ошибок, возвращённых до изменения состояния.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Package identity описывает ключи сущностей для сверки: временный (imitation) или подтверждённый сервером.
package identity

import (
	"strings"

	"github.com/google/uuid"
)

const imitationPrefix = "imitation-"

// NewImitationID генерирует клиентский идентификатор, не пересекающийся с серверными.
func NewImitationID() string {
	return imitationPrefix + uuid.NewString()
}

// IsImitation сообщает, сгенерирован ли id на клиенте.
func IsImitation(id string) bool {
	return strings.HasPrefix(id, imitationPrefix)
}

// Pair связывает временный id с подтверждённым. Любая из половин может быть пустой.
type Pair struct {
	Imitation string
	Confirmed string
}

func NewPair(imitationID, confirmedID string) Pair {
	return Pair{Imitation: imitationID, Confirmed: confirmedID}
}

// Matches: true, если id относится к этой сущности по любому из ключей.
func (p Pair) Matches(id string) bool {
	if id == "" {
		return false
	}
	return id == p.Imitation || id == p.Confirmed
}

// Package mention разбирает упоминания в тексте сообщения: @username (обычное)
// и !username (signal: с повышенным приоритетом уведомления).
package mention

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/linen/internal/model"
)

type Kind string

const (
	KindUser   Kind = "user"
	KindSignal Kind = "signal"
)

var mentionRe = regexp.MustCompile(`[@!]([a-zA-Z0-9.]+)`)

// Token: упоминание в теле сообщения; Start/End задают байтовые смещения в body.
type Token struct {
	Kind     Kind
	Username string
	Start    int
	End      int
}

// Extract возвращает упоминания в порядке появления. Токен засчитывается только
// в начале текста или после пробельного символа; точка в конце отбрасывается.
func Extract(body string) []Token {
	matches := mentionRe.FindAllStringSubmatchIndex(body, -1)
	tokens := make([]Token, 0, len(matches))
	for _, match := range matches {
		start := match[0]
		if start > 0 {
			prev, _ := utf8.DecodeLastRuneInString(body[:start])
			if !unicode.IsSpace(prev) {
				continue
			}
		}
		name := strings.TrimRight(body[match[2]:match[3]], ".")
		if name == "" {
			continue
		}
		kind := KindUser
		if body[start] == '!' {
			kind = KindSignal
		}
		tokens = append(tokens, Token{
			Kind:     kind,
			Username: name,
			Start:    start,
			End:      match[2] + len(name),
		})
	}
	return tokens
}

// Lookup: поиск пользователя по username (directory.Directory это реализует).
type Lookup interface {
	ByUsername(username string) (model.User, bool)
}

// Resolve возвращает уникальных упомянутых пользователей, найденных в справочнике.
func Resolve(body string, users Lookup) []model.User {
	if users == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []model.User
	for _, tok := range Extract(body) {
		u, ok := users.ByUsername(tok.Username)
		if !ok {
			continue
		}
		if _, dup := seen[u.ID]; dup {
			continue
		}
		seen[u.ID] = struct{}{}
		out = append(out, u)
	}
	return out
}

// Node: разрешённое упоминание с типом; нужен для выбора типа пуш-уведомления.
type Node struct {
	Type   Kind   `json:"type"`
	ID     string `json:"id"`
	Source string `json:"source"`
}

// Nodes возвращает узлы упоминаний для пользователей, найденных в справочнике.
func Nodes(body string, users Lookup) []Node {
	if users == nil {
		return nil
	}
	var nodes []Node
	for _, tok := range Extract(body) {
		u, ok := users.ByUsername(tok.Username)
		if !ok {
			continue
		}
		nodes = append(nodes, Node{Type: tok.Kind, ID: u.ID, Source: body[tok.Start:tok.End]})
	}
	return nodes
}

// TypeFor: "signal", если userID упомянут хотя бы одним signal-узлом, иначе "user".
func TypeFor(userID string, nodes []Node) Kind {
	for _, n := range nodes {
		if n.ID == userID && n.Type == KindSignal {
			return KindSignal
		}
	}
	return KindUser
}

// Users адаптирует список упомянутых (message.Mentions) к Lookup.
type Users []model.User

func (us Users) ByUsername(username string) (model.User, bool) {
	for _, u := range us {
		if strings.EqualFold(u.Username, username) {
			return u, true
		}
	}
	return model.User{}, false
}

// Chain ищет по очереди в каждом Lookup, первый найденный побеждает.
type Chain []Lookup

func (c Chain) ByUsername(username string) (model.User, bool) {
	for _, l := range c {
		if l == nil {
			continue
		}
		if u, ok := l.ByUsername(username); ok {
			return u, true
		}
	}
	return model.User{}, false
}
